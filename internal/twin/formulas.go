package twin

import (
	"math"
	"slices"
)

// Score ranges.
const (
	MinRisk       = 0
	MaxRisk       = 100
	MinConfidence = 25
	MaxConfidence = 95
	MinStrength   = 0
	MaxStrength   = 100
)

var passwordPoints = map[PasswordHabit]int{
	PasswordStrong: 10,
	PasswordOkay:   35,
	PasswordRisky:  70,
}

var agePoints = map[AgeRange]int{
	AgeUnder18: 6,
	Age18To24:  10,
	Age25To34:  12,
	Age35To44:  10,
	Age45Plus:  8,
}

var devicePoints = map[Device]int{
	DevicePhone:   5,
	DeviceLaptop:  3,
	DeviceTablet:  2,
	DeviceWatch:   2,
	DeviceConsole: 3,
}

const (
	defaultPasswordPoints = 10
	defaultAgePoints      = 10
)

// ComputeRisk is the weighted security risk score, clamped to [0, 100].
func ComputeRisk(s InputState) int {
	pw, ok := passwordPoints[s.PasswordHabit]
	if !ok {
		pw = defaultPasswordPoints
	}
	age, ok := agePoints[s.AgeRange]
	if !ok {
		age = defaultAgePoints
	}

	raw := pw + age + s.SocialUse*2
	if s.LocationSharing {
		raw += 15
	}
	if s.LateNight {
		raw += 10
	}
	for _, d := range s.Devices {
		raw += devicePoints[d]
	}

	// Security-minded interests shave a little off.
	if s.Interest == InterestCyber || s.Interest == InterestData {
		raw -= 2
	} else {
		raw += 2
	}

	return clamp(raw, MinRisk, MaxRisk)
}

// ComputeConfidence is how sure a targeting system would be, clamped to [25, 95].
func ComputeConfidence(s InputState) int {
	raw := 35 + s.SocialUse*4 + s.DeviceCount()*6
	if s.LocationSharing {
		raw += 10
	}
	if s.LateNight {
		raw += 5
	}
	return clamp(raw, MinConfidence, MaxConfidence)
}

var adProfiles = map[Interest][3]string{
	InterestCyber:    {"Security Scout", "Privacy-Pro Planner", "System Sleuth"},
	InterestData:     {"Insight Seeker", "Dashboard Devotee", "Pattern Hunter"},
	InterestGaming:   {"Cozy Gamer", "Hype Gamer", "Competitive Grinder"},
	InterestMusic:    {"Playlist Curator", "Concert Chaser", "New-Release Radar"},
	InterestFitness:  {"Goal Getter", "Routine Builder", "Tracker Fan"},
	InterestDesign:   {"Visual Explorer", "Creative Collector", "Aesthetic Architect"},
	InterestBusiness: {"Career Climber", "Deal Strategist", "Startup Watcher"},
	InterestTravel:   {"Local Explorer", "Weekend Wanderer", "Deal Finder"},
}

var genericAdProfiles = [3]string{"Curious Explorer", "Tech Taster", "Trend Tester"}

// PickAdProfile selects one of the interest's three ad profile labels.
func PickAdProfile(s InputState) string {
	options, ok := adProfiles[s.Interest]
	if !ok {
		options = genericAdProfiles
	}

	manySignals := s.DeviceCount() >= 3 || s.SocialUse >= 7 || s.LocationSharing
	switch {
	case s.LateNight && s.SocialUse >= 6:
		return options[1]
	case manySignals:
		return options[2]
	default:
		return options[0]
	}
}

var baseInterests = map[Interest][]string{
	InterestCyber:    {"Password tools", "Privacy settings", "Security tips"},
	InterestData:     {"AI & analytics", "Cool dashboards", "Data storytelling"},
	InterestGaming:   {"Game drops", "Streaming", "Headsets & gear"},
	InterestMusic:    {"New releases", "Playlists", "Live shows"},
	InterestFitness:  {"Training plans", "Wearables", "Meal ideas"},
	InterestDesign:   {"Creative tools", "Inspiration boards", "Design trends"},
	InterestBusiness: {"Career growth", "Productivity", "Side hustles"},
	InterestTravel:   {"Weekend plans", "Budget deals", "Local spots"},
}

var genericInterests = []string{"Trends", "Communities", "Recommendations"}

// MaxLikelyInterests caps the likely interest list.
const MaxLikelyInterests = 5

// BuildLikelyInterests lists up to five interests a profiler would guess,
// base tags first, then signal bonuses, without duplicates.
func BuildLikelyInterests(s InputState) []string {
	base, ok := baseInterests[s.Interest]
	if !ok {
		base = genericInterests
	}

	list := slices.Clone(base)
	if s.SocialUse >= 7 {
		list = append(list, "Creators & trends")
	}
	if s.LocationSharing {
		list = append(list, "Nearby events")
	}
	if s.HasDevice(DeviceConsole) {
		list = append(list, "Gaming content")
	}
	if s.HasDevice(DeviceWatch) {
		list = append(list, "Health tracking")
	}
	if s.LateNight {
		list = append(list, "Late-night browsing")
	}

	return dedupeCap(list, MaxLikelyInterests)
}

// ComputeTwinStrengthScore scores how closely a twin could mirror the user.
// The same score feeds both the strength and the likelihood bands.
func ComputeTwinStrengthScore(s InputState, confidence int) int {
	raw := float64(confidence)*0.55 +
		float64(s.SocialUse*5) +
		float64(s.DeviceCount()*8)
	if s.LocationSharing {
		raw += 10
	}
	if s.LateNight {
		raw += 6
	}
	return clamp(int(math.Round(raw)), MinStrength, MaxStrength)
}

// dedupeCap keeps first occurrences in order and truncates to limit.
func dedupeCap(items []string, limit int) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, limit)
	for _, it := range items {
		if seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
		if len(out) == limit {
			break
		}
	}
	return out
}
