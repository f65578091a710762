package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/emilio-vasquez/digitaltwin/internal/twin"
)

// Tool definitions for the digital twin MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

func names[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// stateOptions are the form fields shared by every tool that takes a twin state.
// Omitted fields keep the value from the preset (or the default form).
func stateOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("preset",
			mcp.Description("Scenario to start from before applying the other fields. Omit to start from the default form."),
			mcp.Enum(twin.PresetNames()...)),
		mcp.WithString("age_range",
			mcp.Description("Age bracket"),
			mcp.Enum(names(twin.AgeRanges)...)),
		mcp.WithString("interest",
			mcp.Description("Major interest category"),
			mcp.Enum(names(twin.Interests)...)),
		mcp.WithNumber("social_use",
			mcp.Description("Social media use from 0 (never) to 10 (constantly)")),
		mcp.WithBoolean("location_sharing",
			mcp.Description("Whether apps are allowed to share location")),
		mcp.WithBoolean("late_night",
			mcp.Description("Whether the user is usually online late at night")),
		mcp.WithString("password_habit",
			mcp.Description("Password hygiene: 'strong' (unique + manager), 'okay' (some reuse) or 'risky' (reuse everywhere)"),
			mcp.Enum(names(twin.PasswordHabits)...)),
		mcp.WithArray("devices",
			mcp.Description("Devices in use"),
			mcp.WithStringItems(mcp.Enum(names(twin.Devices)...))),
	}
}

func newStateTool(name, description string, extra ...mcp.ToolOption) mcp.Tool {
	opts := append([]mcp.ToolOption{mcp.WithDescription(description)}, stateOptions()...)
	return mcp.NewTool(name, append(opts, extra...)...)
}

var ToolDeriveTwin = newStateTool("derive_twin",
	"Compute the illustrative digital twin for a set of lifestyle signals. "+
		"Returns the security risk score, targeting confidence, ad profile, likely interests, "+
		"recommended actions and how strongly the twin mirrors the user. "+
		"The numbers are a teaching aid, not a real assessment.")

var ToolListPresets = mcp.NewTool("list_presets",
	mcp.WithDescription(
		"List the built-in scenarios (private, social, late) with their form values. "+
			"Use a preset name as the starting point for the other tools."),
)

var ToolExplainChange = newStateTool("explain_change",
	"Describe what changed between two twin states in one short sentence, the way the page does after each edit. "+
		"The 'before' state is from_preset; the 'after' state is from_preset with the other fields applied.",
	mcp.WithString("from_preset",
		mcp.Required(),
		mcp.Description("Scenario describing the state before the change"),
		mcp.Enum(twin.PresetNames()...)),
)

var ToolGeneratePersona = newStateTool("generate_persona",
	"Ask the persona proxy to write a short, non-judgmental persona for the twin. "+
		"Requires a running proxy with an OpenAI key configured.",
	mcp.WithString("twin_id",
		mcp.Description("Twin identifier to send with the request (e.g. 'DT-7KQ2MX'). A new one is generated if omitted.")),
)
