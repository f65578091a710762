package twin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func privateState() InputState {
	return InputState{
		AgeRange:      Age18To24,
		Interest:      InterestCyber,
		SocialUse:     2,
		PasswordHabit: PasswordStrong,
		Devices:       []Device{DevicePhone, DeviceLaptop},
	}
}

// allDeviceSubsets enumerates every subset of Devices in form order.
func allDeviceSubsets() [][]Device {
	var out [][]Device
	for mask := 0; mask < 1<<len(Devices); mask++ {
		var set []Device
		for i, d := range Devices {
			if mask&(1<<i) != 0 {
				set = append(set, d)
			}
		}
		out = append(out, set)
	}
	return out
}

// forEachState visits every valid state plus unknown age and interest keys.
func forEachState(fn func(InputState)) {
	ages := append([]AgeRange{"unknown"}, AgeRanges...)
	interests := append([]Interest{"knitting"}, Interests...)
	for _, age := range ages {
		for _, interest := range interests {
			for social := MinSocialUse; social <= MaxSocialUse; social++ {
				for _, pw := range PasswordHabits {
					for _, devices := range allDeviceSubsets() {
						for _, loc := range []bool{false, true} {
							for _, night := range []bool{false, true} {
								fn(InputState{
									AgeRange:        age,
									Interest:        interest,
									SocialUse:       social,
									LocationSharing: loc,
									LateNight:       night,
									PasswordHabit:   pw,
									Devices:         devices,
								})
							}
						}
					}
				}
			}
		}
	}
}

func TestScoresStayInRange(t *testing.T) {
	forEachState(func(s InputState) {
		risk := ComputeRisk(s)
		if risk < MinRisk || risk > MaxRisk {
			t.Fatalf("risk %d out of range for %+v", risk, s)
		}
		conf := ComputeConfidence(s)
		if conf < MinConfidence || conf > MaxConfidence {
			t.Fatalf("confidence %d out of range for %+v", conf, s)
		}
		strength := ComputeTwinStrengthScore(s, conf)
		if strength < MinStrength || strength > MaxStrength {
			t.Fatalf("strength %d out of range for %+v", strength, s)
		}
	})
}

func TestLikelyInterestsBoundedAndUnique(t *testing.T) {
	forEachState(func(s InputState) {
		got := BuildLikelyInterests(s)
		if len(got) > MaxLikelyInterests {
			t.Fatalf("got %d interests for %+v", len(got), s)
		}
		seen := map[string]bool{}
		for _, it := range got {
			if seen[it] {
				t.Fatalf("duplicate %q for %+v", it, s)
			}
			seen[it] = true
		}
	})
}

func TestPickAdProfileDeterministic(t *testing.T) {
	forEachState(func(s InputState) {
		if PickAdProfile(s) != PickAdProfile(s) {
			t.Fatalf("ad profile not deterministic for %+v", s)
		}
	})
}

func TestPrivateScenarioIsLowRisk(t *testing.T) {
	s := privateState()

	risk := ComputeRisk(s)
	assert.Equal(t, 30, risk) // 10 password + 10 age + 4 social + 8 devices - 2 cyber
	assert.Equal(t, Level{Label: "Low", Tier: TierLow}, RiskLevel(risk))

	conf := ComputeConfidence(s)
	assert.Equal(t, 55, conf)
	assert.Equal(t, "Medium", ConfidenceLevel(conf).Label)

	assert.Equal(t, "Security Scout", PickAdProfile(s))
	assert.Equal(t, []string{"Password tools", "Privacy settings", "Security tips"}, BuildLikelyInterests(s))
	assert.Equal(t, 56, ComputeTwinStrengthScore(s, conf))
}

func TestLateNightGamerGetsSecondProfile(t *testing.T) {
	s := InputState{
		AgeRange:        Age18To24,
		Interest:        InterestGaming,
		SocialUse:       7,
		LocationSharing: true,
		LateNight:       true,
		PasswordHabit:   PasswordRisky,
		Devices:         []Device{DevicePhone, DeviceLaptop, DeviceConsole},
	}

	assert.Equal(t, "Hype Gamer", PickAdProfile(s))
	assert.Equal(t, 100, ComputeRisk(s))
	assert.Equal(t, 95, ComputeConfidence(s))
	assert.Equal(t,
		[]string{"Game drops", "Streaming", "Headsets & gear", "Creators & trends", "Nearby events"},
		BuildLikelyInterests(s))
}

func TestPickAdProfileBranches(t *testing.T) {
	tests := []struct {
		name  string
		state InputState
		want  string
	}{
		{"quiet", InputState{Interest: InterestTravel, SocialUse: 3}, "Local Explorer"},
		{"late night needs social six", InputState{Interest: InterestTravel, SocialUse: 5, LateNight: true}, "Local Explorer"},
		{"late night and social", InputState{Interest: InterestTravel, SocialUse: 6, LateNight: true}, "Weekend Wanderer"},
		{"location", InputState{Interest: InterestTravel, LocationSharing: true}, "Deal Finder"},
		{"three devices", InputState{Interest: InterestFitness, Devices: []Device{DevicePhone, DeviceWatch, DeviceTablet}}, "Tracker Fan"},
		{"social seven", InputState{Interest: InterestData, SocialUse: 7}, "Pattern Hunter"},
		{"unknown interest", InputState{Interest: "knitting"}, "Curious Explorer"},
		{"unknown interest busy", InputState{Interest: "knitting", SocialUse: 9}, "Trend Tester"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PickAdProfile(tt.state))
		})
	}
}

func TestComputeRiskFallbacks(t *testing.T) {
	s := InputState{AgeRange: "unknown", Interest: "knitting", PasswordHabit: "whatever"}
	// 10 default password + 10 default age + 2 for a non-security interest
	assert.Equal(t, 22, ComputeRisk(s))
}

func TestTwinStrengthRoundsHalfUp(t *testing.T) {
	s := InputState{LocationSharing: true, LateNight: true}
	conf := ComputeConfidence(s)
	require.Equal(t, 50, conf)
	// 27.5 + 10 + 6 = 43.5
	assert.Equal(t, 44, ComputeTwinStrengthScore(s, conf))
}

func TestBand(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{0, "Low"}, {34, "Low"}, {35, "Medium"}, {65, "Medium"}, {66, "High"}, {100, "High"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Band(tt.value, RiskLowMax, RiskMediumMax).Label, "value %d", tt.value)
	}

	assert.Equal(t, Level{Label: "Loose", Tier: TierLow}, StrengthLevel(39))
	assert.Equal(t, Level{Label: "Moderate", Tier: TierMedium}, StrengthLevel(69))
	assert.Equal(t, Level{Label: "Strong", Tier: TierHigh}, StrengthLevel(70))
	assert.Equal(t, Level{Label: "High", Tier: TierHigh}, LikelihoodLevel(70))
}

func TestWhyTexts(t *testing.T) {
	quiet := privateState()
	assert.Equal(t, "Looks fairly low-risk based on selected habits.", RiskWhy(quiet))
	assert.Equal(t, "Fewer signals → the system is less confident guessing.", ConfidenceWhy(quiet))
	assert.Equal(t, "Light signals → broader profile.", AdProfileWhy(quiet))

	busy := InputState{
		SocialUse:       9,
		LocationSharing: true,
		LateNight:       true,
		PasswordHabit:   PasswordRisky,
		Devices:         []Device{DevicePhone, DeviceLaptop, DeviceTablet},
	}
	assert.Equal(t,
		"Main drivers: password reuse is a strong risk signal + always-on location adds exposure.",
		RiskWhy(busy))
	assert.Equal(t,
		"Why confidence is higher: more devices = more signals + more activity = clearer pattern.",
		ConfidenceWhy(busy))
	assert.Equal(t,
		"Signals like high social activity + location signals make the profile more specific.",
		AdProfileWhy(busy))
}

func TestRecommendedActions(t *testing.T) {
	s := privateState()
	got := RecommendedActions(s, "Low", "Medium")
	require.Len(t, got, 4)
	assert.Equal(t, "Try turning Location Sharing ON and see how confidence shifts.", got[0])
	assert.Equal(t, "You already have strong passwords — try changing a different signal.", got[1])
	assert.Equal(t, "Increase Social Media Use to see confidence climb (more signals).", got[2])
	assert.Equal(t, "Right now: Risk is Low and confidence is Medium. Try to keep confidence high while lowering risk.", got[3])

	s.LocationSharing = true
	s.PasswordHabit = PasswordOkay
	s.SocialUse = 7
	got = RecommendedActions(s, "High", "High")
	require.Len(t, got, 4)
	assert.Contains(t, got[0], "OFF")
	assert.Contains(t, got[1], "Switch Password Habits")
	assert.Contains(t, got[2], "Lower Social Media Use")
}

func TestSignalMapAndUseCases(t *testing.T) {
	s := privateState()
	assert.Equal(t, []string{
		"Social media: Low (2/10)",
		"Location sharing: OFF",
		"Password habits: Strong (unique + MFA)",
		"Device streams: 2 (phone, laptop)",
		"Late-night activity: OFF",
	}, SignalMap(s))

	s.Devices = nil
	assert.Equal(t, "Device streams: 0 (none)", SignalMap(s)[3])

	assert.Equal(t, []string{"Personalized recommendations", "Ad targeting segments", "Account safety nudges"},
		UseCases(privateState(), 55, 30))
	s.LocationSharing = true
	assert.Equal(t, []string{
		"Personalized recommendations",
		"Ad targeting segments",
		"Trend prediction (what you’ll click)",
		"Local suggestions (events/places)",
		"Security prompts & extra verification",
	}, UseCases(s, 70, 66))
}

func TestGoals(t *testing.T) {
	goals := Goals("Low", "High")
	require.Len(t, goals, 3)
	assert.Equal(t, "Goal: Keep risk Low", goals[0].Title)
	assert.Equal(t, "Goal: Reduce signals", goals[1].Title)
	assert.Equal(t, "Goal: Flip the Ad Profile", goals[2].Title)

	goals = Goals("Medium", "Medium")
	assert.Equal(t, "Goal: Drop risk one level", goals[0].Title)
	assert.Equal(t, "Goal: Raise confidence", goals[1].Title)
}

func TestDerive(t *testing.T) {
	m := Derive(privateState())
	assert.Equal(t, 30, m.Risk)
	assert.Equal(t, "Low", m.RiskLevel.Label)
	assert.Equal(t, 55, m.Confidence)
	assert.Equal(t, 56, m.StrengthScore)
	assert.Equal(t, "Moderate", m.Strength.Label)
	assert.Equal(t, "Medium", m.Likelihood.Label)
	assert.Len(t, m.RecommendedActions, 4)
	assert.Len(t, m.Goals, 3)
	assert.Len(t, m.SignalMap, 5)
}

func TestNormalize(t *testing.T) {
	s := InputState{
		AgeRange:  "unknown",
		Interest:  "knitting",
		SocialUse: 42,
		Devices:   []Device{DeviceLaptop, "toaster", DevicePhone, DeviceLaptop},
	}
	n := s.Normalize()

	assert.Equal(t, MaxSocialUse, n.SocialUse)
	assert.Equal(t, PasswordStrong, n.PasswordHabit)
	assert.Equal(t, []Device{DeviceLaptop, DevicePhone}, n.Devices)
	assert.Equal(t, AgeRange("unknown"), n.AgeRange)
	assert.Equal(t, Interest("knitting"), n.Interest)

	// the input is left alone
	assert.Len(t, s.Devices, 4)
	assert.Equal(t, 0, InputState{SocialUse: -3}.Normalize().SocialUse)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "18–24", AgeLabel(Age18To24))
	assert.Equal(t, "Unknown", AgeLabel("x"))
	assert.Equal(t, "Art & Design", InterestLabel(InterestDesign))
	assert.Equal(t, "General", InterestLabel("x"))
}

func TestPresets(t *testing.T) {
	for _, name := range PresetNames() {
		p, err := Preset(name)
		require.NoError(t, err, name)
		assert.Equal(t, p, p.Normalize(), "preset %s should already be normalized", name)
	}

	late, err := Preset(PresetLate)
	require.NoError(t, err)
	late.Devices[0] = DeviceWatch
	again, _ := Preset(PresetLate)
	assert.Equal(t, DevicePhone, again.Devices[0], "presets must be copied")

	_, err = Preset("nope")
	assert.ErrorIs(t, err, ErrUnknownPreset)

	d := Default()
	assert.Equal(t, 36, ComputeRisk(d)) // 10 password + 10 age + 10 social + 8 devices - 2 cyber
}
