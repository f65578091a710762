// Package proxy turns a twin payload into a persona by calling the
// text-generation upstream. It owns the upstream API key; browsers only ever
// see the rendered persona.
package proxy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/emilio-vasquez/digitaltwin/internal/persona"
)

// Request is the loose form of persona.Payload accepted from clients. Every
// field is optional so the prompt can say "(unknown)" for what is missing.
// Numeric fields hold the value as display text; empty means missing, so a
// real zero is still printed.
type Request struct {
	TwinID  string         `json:"twin_id"`
	Inputs  RequestInputs  `json:"inputs"`
	Outputs RequestOutputs `json:"outputs"`
	Style   persona.Style  `json:"style"`
}

// RequestInputs mirrors persona.Inputs.
type RequestInputs struct {
	AgeRange          string   `json:"age_range"`
	MajorInterest     string   `json:"major_interest"`
	SocialMediaUse    string   `json:"social_media_use"`
	LocationSharing   bool     `json:"location_sharing"`
	PasswordHabits    string   `json:"password_habits"`
	DeviceUsage       []string `json:"device_usage"`
	LateNightActivity bool     `json:"late_night_activity"`
}

// RequestOutputs mirrors persona.Outputs.
type RequestOutputs struct {
	AdProfile            string   `json:"ad_profile"`
	SecurityRiskScore    string   `json:"security_risk_score"`
	RiskLevel            string   `json:"risk_level"`
	TargetingConfidence  string   `json:"targeting_confidence"`
	ConfidenceLevel      string   `json:"confidence_level"`
	LikelyInterests      []string `json:"likely_interests"`
	RecommendedActions   []string `json:"recommended_actions"`
	MirroringStrength    string   `json:"mirroring_strength"`
	RecreationLikelihood string   `json:"recreation_likelihood"`
}

// DecodeRequest parses any well-formed JSON body. Fields of the wrong type
// are coerced rather than rejected: text fields take a scalar's text and
// treat false, null and "" as missing; numeric fields keep any non-null
// scalar as sent; flags are on for any truthy value; lists keep their
// elements' text and ignore anything that is not an array. A body that is
// not an object yields an empty Request. Only malformed JSON is an error.
func DecodeRequest(body []byte) (Request, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	if dec.More() {
		return Request{}, fmt.Errorf("decode request: trailing data after JSON value")
	}

	root := object(raw)
	in := object(root["inputs"])
	out := object(root["outputs"])
	style := object(root["style"])

	return Request{
		TwinID: text(root["twin_id"]),
		Inputs: RequestInputs{
			AgeRange:          text(in["age_range"]),
			MajorInterest:     text(in["major_interest"]),
			SocialMediaUse:    number(in["social_media_use"]),
			LocationSharing:   truthy(in["location_sharing"]),
			PasswordHabits:    text(in["password_habits"]),
			DeviceUsage:       list(in["device_usage"]),
			LateNightActivity: truthy(in["late_night_activity"]),
		},
		Outputs: RequestOutputs{
			AdProfile:            text(out["ad_profile"]),
			SecurityRiskScore:    number(out["security_risk_score"]),
			RiskLevel:            text(out["risk_level"]),
			TargetingConfidence:  number(out["targeting_confidence"]),
			ConfidenceLevel:      text(out["confidence_level"]),
			LikelyInterests:      list(out["likely_interests"]),
			RecommendedActions:   list(out["recommended_actions"]),
			MirroringStrength:    text(out["mirroring_strength"]),
			RecreationLikelihood: text(out["recreation_likelihood"]),
		},
		Style: persona.Style{
			Tone:     text(style["tone"]),
			Audience: text(style["audience"]),
			Avoid:    list(style["avoid"]),
			Length:   text(style["length"]),
		},
	}, nil
}

func object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// scalar renders strings, numbers and booleans; ok is false for null,
// arrays and objects.
func scalar(v any) (s string, ok bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64), true
		}
		return x.String(), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}

func text(v any) string {
	if b, isBool := v.(bool); isBool && !b {
		return ""
	}
	s, _ := scalar(v)
	return s
}

func number(v any) string {
	s, _ := scalar(v)
	return s
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		return err == nil && f != 0
	default:
		return true
	}
}

func list(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, _ := scalar(item)
		out = append(out, s)
	}
	return out
}

// FromPayload converts a fully populated payload.
func FromPayload(p *persona.Payload) Request {
	if p == nil {
		return Request{}
	}
	return Request{
		TwinID: p.TwinID,
		Inputs: RequestInputs{
			AgeRange:          p.Inputs.AgeRange,
			MajorInterest:     p.Inputs.MajorInterest,
			SocialMediaUse:    strconv.Itoa(p.Inputs.SocialMediaUse),
			LocationSharing:   p.Inputs.LocationSharing,
			PasswordHabits:    p.Inputs.PasswordHabits,
			DeviceUsage:       p.Inputs.DeviceUsage,
			LateNightActivity: p.Inputs.LateNightActivity,
		},
		Outputs: RequestOutputs{
			AdProfile:            p.Outputs.AdProfile,
			SecurityRiskScore:    strconv.Itoa(p.Outputs.SecurityRiskScore),
			RiskLevel:            p.Outputs.RiskLevel,
			TargetingConfidence:  strconv.Itoa(p.Outputs.TargetingConfidence),
			ConfidenceLevel:      p.Outputs.ConfidenceLevel,
			LikelyInterests:      p.Outputs.LikelyInterests,
			RecommendedActions:   p.Outputs.RecommendedActions,
			MirroringStrength:    p.Outputs.MirroringStrength,
			RecreationLikelihood: p.Outputs.RecreationLikelihood,
		},
		Style: p.Style,
	}
}

