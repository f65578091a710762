// Package persona assembles persona requests from twin metrics and schedules
// them against the persona proxy.
//
// A Scheduler debounces bursts of form changes into a single request and tags
// every request with a sequence number so that only the newest response is
// ever shown.
package persona

import (
	"github.com/emilio-vasquez/digitaltwin/internal/twin"
)

// Inputs is the signal half of a persona request. Age and interest are sent as
// display labels, the rest as raw form values.
type Inputs struct {
	AgeRange          string   `json:"age_range"`
	MajorInterest     string   `json:"major_interest"`
	SocialMediaUse    int      `json:"social_media_use"`
	LocationSharing   bool     `json:"location_sharing"`
	PasswordHabits    string   `json:"password_habits"`
	DeviceUsage       []string `json:"device_usage"`
	LateNightActivity bool     `json:"late_night_activity"`
}

// Outputs carries the derived metrics the persona should reflect.
type Outputs struct {
	AdProfile            string   `json:"ad_profile"`
	SecurityRiskScore    int      `json:"security_risk_score"`
	RiskLevel            string   `json:"risk_level"`
	TargetingConfidence  int      `json:"targeting_confidence"`
	ConfidenceLevel      string   `json:"confidence_level"`
	LikelyInterests      []string `json:"likely_interests"`
	RecommendedActions   []string `json:"recommended_actions"`
	MirroringStrength    string   `json:"mirroring_strength"`
	RecreationLikelihood string   `json:"recreation_likelihood"`
}

// Style steers the tone of the generated text.
type Style struct {
	Tone     string   `json:"tone"`
	Audience string   `json:"audience"`
	Avoid    []string `json:"avoid"`
	Length   string   `json:"length"`
}

// Payload is the body POSTed to /api/twin.
type Payload struct {
	TwinID  string  `json:"twin_id"`
	Inputs  Inputs  `json:"inputs"`
	Outputs Outputs `json:"outputs"`
	Style   Style   `json:"style"`
}

// DefaultStyle is the style block every session sends.
func DefaultStyle() Style {
	return Style{
		Tone:     "friendly",
		Audience: "college_students",
		Avoid:    []string{"fear", "threats", "guilt"},
		Length:   "medium",
	}
}

// BuildPayload assembles the persona request for one derived state.
func BuildPayload(twinID string, s twin.InputState, m twin.Metrics) *Payload {
	return &Payload{
		TwinID: twinID,
		Inputs: Inputs{
			AgeRange:          twin.AgeLabel(s.AgeRange),
			MajorInterest:     twin.InterestLabel(s.Interest),
			SocialMediaUse:    s.SocialUse,
			LocationSharing:   s.LocationSharing,
			PasswordHabits:    string(s.PasswordHabit),
			DeviceUsage:       s.DeviceNames(),
			LateNightActivity: s.LateNight,
		},
		Outputs: Outputs{
			AdProfile:            m.AdProfile,
			SecurityRiskScore:    m.Risk,
			RiskLevel:            m.RiskLevel.Label,
			TargetingConfidence:  m.Confidence,
			ConfidenceLevel:      m.ConfidenceLevel.Label,
			LikelyInterests:      m.LikelyInterests,
			RecommendedActions:   m.RecommendedActions,
			MirroringStrength:    m.Strength.Label,
			RecreationLikelihood: m.Likelihood.Label,
		},
		Style: DefaultStyle(),
	}
}
