package twin

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownPreset is returned for a preset name that does not exist.
var ErrUnknownPreset = errors.New("twin: unknown preset")

// Preset names.
const (
	PresetPrivate = "private"
	PresetSocial  = "social"
	PresetLate    = "late"
)

// Default is the state the form resets to.
func Default() InputState {
	return InputState{
		AgeRange:      Age18To24,
		Interest:      InterestCyber,
		SocialUse:     5,
		PasswordHabit: PasswordStrong,
		Devices:       []Device{DevicePhone, DeviceLaptop},
	}
}

var presets = map[string]InputState{
	PresetPrivate: {
		AgeRange:      Age18To24,
		Interest:      InterestCyber,
		SocialUse:     2,
		PasswordHabit: PasswordStrong,
		Devices:       []Device{DevicePhone, DeviceLaptop},
	},
	PresetSocial: {
		AgeRange:        Age18To24,
		Interest:        InterestMusic,
		SocialUse:       8,
		LocationSharing: true,
		PasswordHabit:   PasswordOkay,
		Devices:         []Device{DevicePhone, DeviceLaptop, DeviceWatch},
	},
	PresetLate: {
		AgeRange:        Age18To24,
		Interest:        InterestGaming,
		SocialUse:       7,
		LocationSharing: true,
		LateNight:       true,
		PasswordHabit:   PasswordRisky,
		Devices:         []Device{DevicePhone, DeviceLaptop, DeviceConsole},
	},
}

// PresetNames lists the scenario presets in display order.
func PresetNames() []string {
	return []string{PresetPrivate, PresetSocial, PresetLate}
}

// Preset returns a copy of the named scenario.
func Preset(name string) (InputState, error) {
	p, ok := presets[name]
	if !ok {
		return InputState{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	p.Devices = slices.Clone(p.Devices)
	return p, nil
}
