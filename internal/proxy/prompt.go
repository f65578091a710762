package proxy

import (
	"fmt"
	"os"
	"strings"

	"github.com/osteele/liquid"
)

// DefaultPromptTemplate is the built-in Liquid prompt. PROMPT_TEMPLATE_FILE
// replaces it; the same bindings are available (inputs, outputs, style,
// twin_id).
const DefaultPromptTemplate = `You are generating a fictional "Digital Twin" persona for a college workshop.
IMPORTANT SAFETY AND TONE:
- Friendly, playful, non-scary.
- No threats, fear, guilt, or shaming.
- Do not claim real tracking or real identity.
- Treat all data as hypothetical and simulated.

Write the persona in this exact format (plain text, no markdown):
1) Twin Name: <short nickname>
2) One-liner: <one sentence>
3) Persona Summary: <2-3 sentences>
4) What the system would do next: <3 bullet lines starting with '- '>
5) Blind Spots: <2 bullet lines starting with '- ' about what the system cannot know>

Here are the simulated signals:
- Age range: {{ inputs.age_range | default: "(unknown)" }}
- Major interest: {{ inputs.major_interest | default: "(unknown)" }}
- Social media use (0-10): {{ inputs.social_media_use | default: "(unknown)" }}
- Location sharing: {{ inputs.location_sharing | onoff }}
- Password habits: {{ inputs.password_habits | default: "(unknown)" }}
- Device usage: {{ inputs.device_usage | list: "none" }}
- Late-night activity: {{ inputs.late_night_activity | onoff }}

Here are the current generated outputs:
- Ad Profile: {{ outputs.ad_profile | default: "(unknown)" }}
- Security Risk Score: {{ outputs.security_risk_score | default: "(unknown)" }}/100 ({{ outputs.risk_level | default: "?" }})
- Targeting Confidence: {{ outputs.targeting_confidence | default: "(unknown)" }}% ({{ outputs.confidence_level | default: "?" }})
- Mirroring Strength: {{ outputs.mirroring_strength | default: "(unknown)" }}
- Recreation Likelihood: {{ outputs.recreation_likelihood | default: "(unknown)" }}

Make it feel personal but clearly fictional. Keep it under ~220 words total.`

// Prompter renders persona prompts from a parsed Liquid template.
type Prompter struct {
	tpl *liquid.Template
}

// NewPrompter parses source, or DefaultPromptTemplate when source is empty.
func NewPrompter(source string) (*Prompter, error) {
	if source == "" {
		source = DefaultPromptTemplate
	}

	engine := liquid.NewEngine()
	registerFilters(engine)

	tpl, err := engine.ParseString(source)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return &Prompter{tpl: tpl}, nil
}

// NewPrompterFromFile reads a template file; an empty path selects the
// built-in template.
func NewPrompterFromFile(path string) (*Prompter, error) {
	if path == "" {
		return NewPrompter("")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt template: %w", err)
	}
	return NewPrompter(string(data))
}

// Render produces the prompt for req.
func (p *Prompter) Render(req Request) (string, error) {
	out, err := p.tpl.RenderString(bindings(req))
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func registerFilters(engine *liquid.Engine) {
	// nil and "" fall back; numbers, including 0, are kept.
	engine.RegisterFilter("default", func(value interface{}, fallback string) interface{} {
		if value == nil {
			return fallback
		}
		if s, ok := value.(string); ok && s == "" {
			return fallback
		}
		return value
	})

	engine.RegisterFilter("onoff", func(value interface{}) string {
		if b, ok := value.(bool); ok && b {
			return "ON"
		}
		return "OFF"
	})

	engine.RegisterFilter("list", func(value interface{}, empty string) string {
		var items []string
		switch v := value.(type) {
		case []string:
			items = v
		case []interface{}:
			for _, it := range v {
				items = append(items, fmt.Sprint(it))
			}
		}
		if len(items) == 0 {
			return empty
		}
		return strings.Join(items, ", ")
	})
}

func bindings(req Request) liquid.Bindings {
	in, out := req.Inputs, req.Outputs
	return liquid.Bindings{
		"twin_id": req.TwinID,
		"inputs": map[string]interface{}{
			"age_range":           in.AgeRange,
			"major_interest":      in.MajorInterest,
			"social_media_use":    in.SocialMediaUse,
			"location_sharing":    in.LocationSharing,
			"password_habits":     in.PasswordHabits,
			"device_usage":        in.DeviceUsage,
			"late_night_activity": in.LateNightActivity,
		},
		"outputs": map[string]interface{}{
			"ad_profile":            out.AdProfile,
			"security_risk_score":   out.SecurityRiskScore,
			"risk_level":            out.RiskLevel,
			"targeting_confidence":  out.TargetingConfidence,
			"confidence_level":      out.ConfidenceLevel,
			"likely_interests":      out.LikelyInterests,
			"recommended_actions":   out.RecommendedActions,
			"mirroring_strength":    out.MirroringStrength,
			"recreation_likelihood": out.RecreationLikelihood,
		},
		"style": map[string]interface{}{
			"tone":     req.Style.Tone,
			"audience": req.Style.Audience,
			"avoid":    req.Style.Avoid,
			"length":   req.Style.Length,
		},
	}
}
