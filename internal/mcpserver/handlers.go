package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/emilio-vasquez/digitaltwin/internal/idgen"
	"github.com/emilio-vasquez/digitaltwin/internal/logging"
	"github.com/emilio-vasquez/digitaltwin/internal/metrics"
	"github.com/emilio-vasquez/digitaltwin/internal/persona"
	"github.com/emilio-vasquez/digitaltwin/internal/twin"
	"github.com/emilio-vasquez/digitaltwin/internal/validation"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	fetcher persona.Fetcher
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(f persona.Fetcher) *Handlers {
	return &Handlers{fetcher: f}
}

// HandleDeriveTwin computes the metrics for the requested state.
func (h *Handlers) HandleDeriveTwin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := stateFromArgs(req.GetArguments(), twin.Default())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	m := twin.Derive(state)
	metrics.DerivationsTotal.WithLabelValues("mcp").Inc()

	return mcp.NewToolResultText(formatTwin(state, m)), nil
}

// HandleListPresets lists the scenario presets.
func (h *Handlers) HandleListPresets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	sb.WriteString("Presets:\n")
	for _, name := range twin.PresetNames() {
		s, err := twin.Preset(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		fmt.Fprintf(&sb, "\n%s\n", name)
		writeState(&sb, s)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// HandleExplainChange explains the edit from from_preset to the requested state.
func (h *Handlers) HandleExplainChange(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from := req.GetString("from_preset", "")
	if from == "" {
		return mcp.NewToolResultError("from_preset is required"), nil
	}
	before, err := twin.Preset(from)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("unknown preset %q", from)), nil
	}

	after, err := stateFromArgs(req.GetArguments(), before)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	prev := twin.SnapshotOf(before)
	return mcp.NewToolResultText(twin.Explain(&prev, twin.SnapshotOf(after))), nil
}

// HandleGeneratePersona derives the twin and asks the proxy for a persona.
func (h *Handlers) HandleGeneratePersona(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := stateFromArgs(req.GetArguments(), twin.Default())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	twinID := validation.SanitizeString(req.GetString("twin_id", ""), validation.MaxStringLength)
	if twinID == "" {
		twinID = idgen.TwinID()
	}
	ctx = logging.WithTwinID(ctx, twinID)

	m := twin.Derive(state)
	metrics.DerivationsTotal.WithLabelValues("mcp").Inc()

	resp, err := h.fetcher.FetchPersona(ctx, persona.BuildPayload(twinID, state, m))
	if err != nil {
		logging.L(ctx).Warn("persona request failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Failed to generate persona: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Twin: %s\n", twinID)
	fmt.Fprintf(&sb, "Model: %s\n\n", resp.Model)
	sb.WriteString(resp.PersonaText)
	return mcp.NewToolResultText(sb.String()), nil
}

// stateFromArgs starts from the named preset (or base) and overrides
// whichever fields are present in args.
func stateFromArgs(args map[string]any, base twin.InputState) (twin.InputState, error) {
	s := base
	if name, ok := args["preset"].(string); ok && name != "" {
		p, err := twin.Preset(name)
		if err != nil {
			return twin.InputState{}, fmt.Errorf("preset: must be one of %s", strings.Join(twin.PresetNames(), ", "))
		}
		s = p
	}

	var errs validation.ValidationErrors
	fieldErr := func(field, msg string) {
		errs = append(errs, validation.ValidationError{Field: field, Message: msg})
	}

	if v, ok := args["age_range"]; ok {
		str, isStr := v.(string)
		if !isStr {
			fieldErr("age_range", "must be a string")
		} else {
			s.AgeRange = twin.AgeRange(str)
		}
	}
	if v, ok := args["interest"]; ok {
		str, isStr := v.(string)
		if !isStr {
			fieldErr("interest", "must be a string")
		} else {
			s.Interest = twin.Interest(str)
		}
	}
	if v, ok := args["password_habit"]; ok {
		str, isStr := v.(string)
		if !isStr {
			fieldErr("password_habit", "must be a string")
		} else {
			s.PasswordHabit = twin.PasswordHabit(str)
		}
	}
	if v, ok := args["social_use"]; ok {
		n, err := toInt(v)
		if err != nil {
			fieldErr("social_use", err.Error())
		} else {
			s.SocialUse = n
		}
	}
	if v, ok := args["location_sharing"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			fieldErr("location_sharing", "must be a boolean")
		}
		s.LocationSharing = b
	}
	if v, ok := args["late_night"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			fieldErr("late_night", "must be a boolean")
		}
		s.LateNight = b
	}
	if v, ok := args["devices"]; ok {
		devices, err := toDevices(v)
		if err != nil {
			fieldErr("devices", err.Error())
		} else {
			s.Devices = devices
		}
	}

	errs = append(errs, validation.Validate(
		validation.OneOf("age_range", s.AgeRange, twin.AgeRanges),
		validation.OneOf("interest", s.Interest, twin.Interests),
		validation.OneOf("password_habit", s.PasswordHabit, twin.PasswordHabits),
		validation.IntRange("social_use", s.SocialUse, twin.MinSocialUse, twin.MaxSocialUse),
		validation.EachOneOf("devices", s.Devices, twin.Devices),
	)...)
	if err := errs.Err(); err != nil {
		return twin.InputState{}, err
	}
	return s.Normalize(), nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("must be a whole number")
		}
		return int(n), nil
	case int:
		return n, nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("must be a whole number")
		}
		return int(i), nil
	default:
		return 0, fmt.Errorf("must be a number")
	}
}

func toDevices(v any) ([]twin.Device, error) {
	switch list := v.(type) {
	case []any:
		out := make([]twin.Device, 0, len(list))
		for _, item := range list {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("must be a list of strings")
			}
			out = append(out, twin.Device(str))
		}
		return out, nil
	case []string:
		out := make([]twin.Device, len(list))
		for i, str := range list {
			out[i] = twin.Device(str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("must be a list of strings")
	}
}

// --- Formatting ---

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func writeState(sb *strings.Builder, s twin.InputState) {
	fmt.Fprintf(sb, "  Age range: %s\n", twin.AgeLabel(s.AgeRange))
	fmt.Fprintf(sb, "  Interest: %s\n", twin.InterestLabel(s.Interest))
	fmt.Fprintf(sb, "  Social media use: %d/10\n", s.SocialUse)
	fmt.Fprintf(sb, "  Location sharing: %s\n", onOff(s.LocationSharing))
	fmt.Fprintf(sb, "  Late-night activity: %s\n", onOff(s.LateNight))
	fmt.Fprintf(sb, "  Password habits: %s\n", s.PasswordHabit)
	fmt.Fprintf(sb, "  Devices: %s\n", listOrNone(s.DeviceNames()))
}

func formatTwin(s twin.InputState, m twin.Metrics) string {
	var sb strings.Builder
	sb.WriteString("Inputs:\n")
	writeState(&sb, s)

	sb.WriteString("\nTwin:\n")
	fmt.Fprintf(&sb, "  Security risk: %d/100 (%s)\n", m.Risk, m.RiskLevel.Label)
	fmt.Fprintf(&sb, "    %s\n", m.RiskWhy)
	fmt.Fprintf(&sb, "  Targeting confidence: %d/100 (%s)\n", m.Confidence, m.ConfidenceLevel.Label)
	fmt.Fprintf(&sb, "    %s\n", m.ConfidenceWhy)
	fmt.Fprintf(&sb, "  Ad profile: %s\n", m.AdProfile)
	fmt.Fprintf(&sb, "    %s\n", m.AdProfileWhy)
	fmt.Fprintf(&sb, "  Mirroring strength: %s\n", m.Strength.Label)
	fmt.Fprintf(&sb, "  Recreation likelihood: %s\n", m.Likelihood.Label)
	fmt.Fprintf(&sb, "  Likely interests: %s\n", listOrNone(m.LikelyInterests))

	if len(m.RecommendedActions) > 0 {
		sb.WriteString("\nRecommended actions:\n")
		for _, a := range m.RecommendedActions {
			fmt.Fprintf(&sb, "  - %s\n", a)
		}
	}
	return sb.String()
}
