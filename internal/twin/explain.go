package twin

import (
	"fmt"
	"slices"
	"strings"
)

// Snapshot is the comparable form of an InputState used for change
// explanations. Devices are sorted and joined so selection order is ignored.
type Snapshot struct {
	AgeRange  AgeRange
	Interest  Interest
	SocialUse int
	Location  bool
	LateNight bool
	Password  PasswordHabit
	Devices   string
}

// SnapshotOf captures s for later comparison.
func SnapshotOf(s InputState) Snapshot {
	devices := s.DeviceNames()
	slices.Sort(devices)
	return Snapshot{
		AgeRange:  s.AgeRange,
		Interest:  s.Interest,
		SocialUse: s.SocialUse,
		Location:  s.LocationSharing,
		LateNight: s.LateNight,
		Password:  s.PasswordHabit,
		Devices:   strings.Join(devices, ","),
	}
}

// NoChangeMessage is shown before there is anything to compare.
const NoChangeMessage = "Try a preset, then change one thing and compare."

const maxExplainedChanges = 2

// Explain names up to two fields that differ between prev and cur, checked
// in the order social, location, late-night, password, devices, age,
// interest. A nil prev or identical snapshots yield NoChangeMessage.
func Explain(prev *Snapshot, cur Snapshot) string {
	if prev == nil {
		return NoChangeMessage
	}

	var changes []string
	if prev.SocialUse != cur.SocialUse {
		changes = append(changes, fmt.Sprintf("social → %d/10", cur.SocialUse))
	}
	if prev.Location != cur.Location {
		changes = append(changes, "location → "+onOff(cur.Location))
	}
	if prev.LateNight != cur.LateNight {
		changes = append(changes, "late-night → "+onOff(cur.LateNight))
	}
	if prev.Password != cur.Password {
		changes = append(changes, "password → "+string(cur.Password))
	}
	if prev.Devices != cur.Devices {
		changes = append(changes, "devices → updated")
	}
	if prev.AgeRange != cur.AgeRange {
		changes = append(changes, "age → updated")
	}
	if prev.Interest != cur.Interest {
		changes = append(changes, "interest → updated")
	}

	if len(changes) == 0 {
		return NoChangeMessage
	}
	if len(changes) > maxExplainedChanges {
		changes = changes[:maxExplainedChanges]
	}
	return fmt.Sprintf("You changed: %s.", strings.Join(changes, " • "))
}

// Explainer remembers the previous snapshot between updates.
// It is not safe for concurrent use; its owner serialises access.
type Explainer struct {
	prev *Snapshot
}

// Observe explains the change from the previous state to s and makes s the
// new previous state.
func (e *Explainer) Observe(s InputState) string {
	cur := SnapshotOf(s)
	msg := Explain(e.prev, cur)
	e.prev = &cur
	return msg
}

// Reset forgets the previous snapshot.
func (e *Explainer) Reset() {
	e.prev = nil
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
