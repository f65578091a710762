// Package twin derives illustrative "digital twin" metrics from a handful of
// self-reported lifestyle signals.
//
// Every output is a fixed arithmetic function of InputState: security risk,
// targeting confidence, ad profile, likely interests, recommended actions and
// the mirroring strength / recreation likelihood bands. Nothing here is
// learned or stored; the same state always yields the same Metrics.
package twin

import "slices"

// AgeRange is the self-reported age bracket.
type AgeRange string

const (
	AgeUnder18 AgeRange = "u18"
	Age18To24  AgeRange = "18_24"
	Age25To34  AgeRange = "25_34"
	Age35To44  AgeRange = "35_44"
	Age45Plus  AgeRange = "45p"
)

// Interest is the major interest category.
type Interest string

const (
	InterestCyber    Interest = "cyber"
	InterestData     Interest = "data"
	InterestGaming   Interest = "gaming"
	InterestMusic    Interest = "music"
	InterestFitness  Interest = "fitness"
	InterestDesign   Interest = "design"
	InterestBusiness Interest = "business"
	InterestTravel   Interest = "travel"
)

// PasswordHabit is the self-reported password hygiene.
type PasswordHabit string

const (
	PasswordStrong PasswordHabit = "strong"
	PasswordOkay   PasswordHabit = "okay"
	PasswordRisky  PasswordHabit = "risky"
)

// Device is a device the user reports using.
type Device string

const (
	DevicePhone   Device = "phone"
	DeviceLaptop  Device = "laptop"
	DeviceTablet  Device = "tablet"
	DeviceWatch   Device = "watch"
	DeviceConsole Device = "console"
)

// Limits for the social media use slider.
const (
	MinSocialUse = 0
	MaxSocialUse = 10
)

// AgeRanges lists the known age brackets in form order.
var AgeRanges = []AgeRange{AgeUnder18, Age18To24, Age25To34, Age35To44, Age45Plus}

// Interests lists the known interests in form order.
var Interests = []Interest{
	InterestCyber, InterestData, InterestGaming, InterestMusic,
	InterestFitness, InterestDesign, InterestBusiness, InterestTravel,
}

// PasswordHabits lists the known password habits in form order.
var PasswordHabits = []PasswordHabit{PasswordStrong, PasswordOkay, PasswordRisky}

// Devices lists the known devices in form order.
var Devices = []Device{DevicePhone, DeviceLaptop, DeviceTablet, DeviceWatch, DeviceConsole}

// InputState is one reading of the twin form. It has no identity beyond the
// current form contents and is rebuilt on every change.
type InputState struct {
	AgeRange        AgeRange      `json:"ageRange"`
	Interest        Interest      `json:"interest"`
	SocialUse       int           `json:"socialUse"`
	LocationSharing bool          `json:"locationSharing"`
	LateNight       bool          `json:"lateNight"`
	PasswordHabit   PasswordHabit `json:"passwordHabit"`
	Devices         []Device      `json:"devices"`
}

// Normalize returns a copy with form defaults applied: the slider is clamped,
// a missing or unknown password habit falls back to strong, and unknown or
// repeated devices are dropped. Unknown age ranges and interests are kept so
// the formulas use their generic fallbacks.
func (s InputState) Normalize() InputState {
	out := s
	out.SocialUse = clamp(s.SocialUse, MinSocialUse, MaxSocialUse)
	if !slices.Contains(PasswordHabits, s.PasswordHabit) {
		out.PasswordHabit = PasswordStrong
	}

	out.Devices = make([]Device, 0, len(s.Devices))
	for _, d := range s.Devices {
		if slices.Contains(Devices, d) && !slices.Contains(out.Devices, d) {
			out.Devices = append(out.Devices, d)
		}
	}
	return out
}

// HasDevice reports whether d is among the selected devices.
func (s InputState) HasDevice(d Device) bool {
	return slices.Contains(s.Devices, d)
}

// DeviceCount is the number of selected devices.
func (s InputState) DeviceCount() int {
	return len(s.Devices)
}

// DeviceNames returns the selected devices as plain strings.
func (s InputState) DeviceNames() []string {
	names := make([]string, len(s.Devices))
	for i, d := range s.Devices {
		names[i] = string(d)
	}
	return names
}

var interestLabels = map[Interest]string{
	InterestCyber:    "Cybersecurity",
	InterestData:     "Data Science",
	InterestGaming:   "Gaming",
	InterestMusic:    "Music",
	InterestFitness:  "Fitness",
	InterestDesign:   "Art & Design",
	InterestBusiness: "Business",
	InterestTravel:   "Travel",
}

var ageLabels = map[AgeRange]string{
	AgeUnder18: "Under 18",
	Age18To24:  "18–24",
	Age25To34:  "25–34",
	Age35To44:  "35–44",
	Age45Plus:  "45+",
}

// InterestLabel is the display name of an interest, "General" when unknown.
func InterestLabel(i Interest) string {
	if label, ok := interestLabels[i]; ok {
		return label
	}
	return "General"
}

// AgeLabel is the display name of an age range, "Unknown" when unknown.
func AgeLabel(a AgeRange) string {
	if label, ok := ageLabels[a]; ok {
		return label
	}
	return "Unknown"
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
