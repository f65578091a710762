package twin

import (
	"fmt"
	"strings"
)

// maxWhyPieces is how many rationale phrases a why-text names.
const maxWhyPieces = 2

func joinWhy(pieces []string) string {
	if len(pieces) > maxWhyPieces {
		pieces = pieces[:maxWhyPieces]
	}
	return strings.Join(pieces, " + ")
}

// RiskWhy explains the main risk drivers.
func RiskWhy(s InputState) string {
	var pieces []string
	if s.PasswordHabit == PasswordRisky {
		pieces = append(pieces, "password reuse is a strong risk signal")
	}
	if s.LocationSharing {
		pieces = append(pieces, "always-on location adds exposure")
	}
	if s.SocialUse >= 7 {
		pieces = append(pieces, "high activity creates more surface area")
	}
	if len(pieces) == 0 {
		return "Looks fairly low-risk based on selected habits."
	}
	return fmt.Sprintf("Main drivers: %s.", joinWhy(pieces))
}

// ConfidenceWhy explains what raises targeting confidence.
func ConfidenceWhy(s InputState) string {
	var pieces []string
	if s.DeviceCount() >= 3 {
		pieces = append(pieces, "more devices = more signals")
	}
	if s.SocialUse >= 6 {
		pieces = append(pieces, "more activity = clearer pattern")
	}
	if s.LocationSharing {
		pieces = append(pieces, "location adds context")
	}
	if len(pieces) == 0 {
		return "Fewer signals → the system is less confident guessing."
	}
	return fmt.Sprintf("Why confidence is higher: %s.", joinWhy(pieces))
}

// AdProfileWhy explains how specific the ad profile is.
func AdProfileWhy(s InputState) string {
	var pieces []string
	if s.SocialUse >= 7 {
		pieces = append(pieces, "high social activity")
	}
	if s.LocationSharing {
		pieces = append(pieces, "location signals")
	}
	if s.DeviceCount() >= 3 {
		pieces = append(pieces, "multiple devices")
	}
	if s.LateNight {
		pieces = append(pieces, "late-night pattern")
	}
	if len(pieces) == 0 {
		return "Light signals → broader profile."
	}
	return fmt.Sprintf("Signals like %s make the profile more specific.", joinWhy(pieces))
}

// RecommendedActions returns exactly four suggestions: three that flip a
// single signal and one summary of the current risk and confidence labels.
func RecommendedActions(s InputState, riskLabel, confLabel string) []string {
	actions := make([]string, 0, 4)

	if s.LocationSharing {
		actions = append(actions, "Try turning Location Sharing OFF and watch what changes.")
	} else {
		actions = append(actions, "Try turning Location Sharing ON and see how confidence shifts.")
	}

	if s.PasswordHabit != PasswordStrong {
		actions = append(actions, "Switch Password Habits to “Strong” and see the risk score drop.")
	} else {
		actions = append(actions, "You already have strong passwords — try changing a different signal.")
	}

	if s.SocialUse >= 7 {
		actions = append(actions, "Lower Social Media Use a bit and see if the profile becomes less specific.")
	} else {
		actions = append(actions, "Increase Social Media Use to see confidence climb (more signals).")
	}

	actions = append(actions, fmt.Sprintf(
		"Right now: Risk is %s and confidence is %s. Try to keep confidence high while lowering risk.",
		riskLabel, confLabel))

	return actions
}

// Goal is a small challenge card shown next to the metrics.
type Goal struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Goals returns three challenges chosen from the current labels.
func Goals(riskLabel, confLabel string) []Goal {
	goals := make([]Goal, 0, 3)

	if riskLabel != "Low" {
		goals = append(goals, Goal{Title: "Goal: Drop risk one level", Body: "Move Security Risk down without changing Device Usage."})
	} else {
		goals = append(goals, Goal{Title: "Goal: Keep risk Low", Body: "Increase Social Media Use while keeping Security Risk Low."})
	}

	if confLabel != "High" {
		goals = append(goals, Goal{Title: "Goal: Raise confidence", Body: "Get Targeting Confidence to High while keeping Location Sharing OFF."})
	} else {
		goals = append(goals, Goal{Title: "Goal: Reduce signals", Body: "Turn off 1–2 signals and see how confidence reacts."})
	}

	goals = append(goals, Goal{Title: "Goal: Flip the Ad Profile", Body: "Change only ONE setting and make the Ad Profile switch."})
	return goals
}

// SignalMap describes each signal stream feeding the twin, one line each.
func SignalMap(s InputState) []string {
	var social string
	switch {
	case s.SocialUse >= 7:
		social = fmt.Sprintf("Social media: High (%d/10)", s.SocialUse)
	case s.SocialUse >= 4:
		social = fmt.Sprintf("Social media: Medium (%d/10)", s.SocialUse)
	default:
		social = fmt.Sprintf("Social media: Low (%d/10)", s.SocialUse)
	}

	location := "Location sharing: OFF"
	if s.LocationSharing {
		location = "Location sharing: ON (adds context)"
	}

	night := "Late-night activity: OFF"
	if s.LateNight {
		night = "Late-night activity: ON (pattern signal)"
	}

	var password string
	switch s.PasswordHabit {
	case PasswordStrong:
		password = "Password habits: Strong (unique + MFA)"
	case PasswordOkay:
		password = "Password habits: Okay (some reuse)"
	default:
		password = "Password habits: Risky (reuse/shared)"
	}

	devices := strings.Join(s.DeviceNames(), ", ")
	if devices == "" {
		devices = "none"
	}
	deviceLine := fmt.Sprintf("Device streams: %d (%s)", s.DeviceCount(), devices)

	return []string{social, location, password, deviceLine, night}
}

// UseCases lists what a system could do with this twin.
func UseCases(s InputState, confidence, risk int) []string {
	use := []string{"Personalized recommendations", "Ad targeting segments"}
	if confidence >= 70 {
		use = append(use, "Trend prediction (what you’ll click)")
	}
	if s.LocationSharing {
		use = append(use, "Local suggestions (events/places)")
	}
	if risk >= 66 {
		use = append(use, "Security prompts & extra verification")
	} else {
		use = append(use, "Account safety nudges")
	}
	return dedupeCap(use, 5)
}
