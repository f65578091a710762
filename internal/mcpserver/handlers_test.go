package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilio-vasquez/digitaltwin/internal/persona"
	"github.com/emilio-vasquez/digitaltwin/internal/twin"
)

// --- Test helpers ---

type stubFetcher struct {
	got *persona.Payload
	err error
}

func (f *stubFetcher) FetchPersona(_ context.Context, p *persona.Payload) (*persona.Response, error) {
	f.got = p
	if f.err != nil {
		return nil, f.err
	}
	return &persona.Response{Model: "stub-model", PersonaText: "1) Twin Name: Night Owl"}, nil
}

func makeRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	if args == nil {
		args = map[string]any{}
	}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected at least one content block")
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

// ============================================================
// derive_twin
// ============================================================

func TestHandleDeriveTwin_Defaults(t *testing.T) {
	h := NewHandlers(&stubFetcher{})

	result, err := h.HandleDeriveTwin(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	want := twin.Derive(twin.Default())
	text := resultText(t, result)
	assert.Contains(t, text, "Social media use: 5/10")
	assert.Contains(t, text, "Devices: phone, laptop")
	assert.Contains(t, text, "Ad profile: "+want.AdProfile)
	assert.Contains(t, text, "Security risk: ")
	assert.Contains(t, text, want.RiskLevel.Label)
}

func TestHandleDeriveTwin_PresetWithOverride(t *testing.T) {
	h := NewHandlers(&stubFetcher{})

	result, err := h.HandleDeriveTwin(context.Background(), makeRequest(map[string]any{
		"preset":     "late",
		"late_night": false,
		"devices":    []any{"phone", "phone", "console"},
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	state, _ := twin.Preset(twin.PresetLate)
	state.LateNight = false
	state.Devices = []twin.Device{twin.DevicePhone, twin.DeviceConsole}
	want := twin.Derive(state)

	text := resultText(t, result)
	assert.Contains(t, text, "Late-night activity: OFF")
	assert.Contains(t, text, "Devices: phone, console")
	assert.Contains(t, text, "Ad profile: "+want.AdProfile)
}

func TestHandleDeriveTwin_PrivatePreset(t *testing.T) {
	h := NewHandlers(&stubFetcher{})

	result, err := h.HandleDeriveTwin(context.Background(), makeRequest(map[string]any{"preset": "private"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Security risk: 30/100 (Low)")
}

func TestHandleDeriveTwin_InvalidArgs(t *testing.T) {
	h := NewHandlers(&stubFetcher{})

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"unknown preset", map[string]any{"preset": "paranoid"}, "preset"},
		{"unknown age", map[string]any{"age_range": "ancient"}, "age_range"},
		{"unknown interest", map[string]any{"interest": "knitting"}, "interest"},
		{"unknown habit", map[string]any{"password_habit": "none"}, "password_habit"},
		{"social too high", map[string]any{"social_use": float64(11)}, "social_use"},
		{"social fractional", map[string]any{"social_use": 2.5}, "social_use"},
		{"social as string", map[string]any{"social_use": "five"}, "social_use"},
		{"unknown device", map[string]any{"devices": []any{"phone", "toaster"}}, "devices"},
		{"devices not a list", map[string]any{"devices": "phone"}, "devices"},
		{"bool as string", map[string]any{"late_night": "yes"}, "late_night"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleDeriveTwin(context.Background(), makeRequest(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
		})
	}
}

// ============================================================
// list_presets / explain_change
// ============================================================

func TestHandleListPresets(t *testing.T) {
	h := NewHandlers(&stubFetcher{})

	result, err := h.HandleListPresets(context.Background(), makeRequest(nil))
	require.NoError(t, err)

	text := resultText(t, result)
	for _, name := range twin.PresetNames() {
		assert.Contains(t, text, "\n"+name+"\n")
	}
	assert.Contains(t, text, "Devices: phone, laptop, console")
}

func TestHandleExplainChange(t *testing.T) {
	h := NewHandlers(&stubFetcher{})

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"single change", map[string]any{"from_preset": "late", "late_night": false}, "You changed: late-night → OFF."},
		{"slider", map[string]any{"from_preset": "private", "social_use": float64(7)}, "You changed: social → 7/10."},
		{"no change", map[string]any{"from_preset": "social"}, twin.NoChangeMessage},
		{"preset to preset", map[string]any{"from_preset": "private", "preset": "social"}, "You changed: social → 8/10 • location → ON."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleExplainChange(context.Background(), makeRequest(tt.args))
			require.NoError(t, err)
			require.False(t, result.IsError, resultText(t, result))
			assert.Equal(t, tt.want, resultText(t, result))
		})
	}
}

func TestHandleExplainChange_Errors(t *testing.T) {
	h := NewHandlers(&stubFetcher{})

	result, err := h.HandleExplainChange(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "from_preset is required")

	result, err = h.HandleExplainChange(context.Background(), makeRequest(map[string]any{"from_preset": "nope"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "unknown preset")
}

// ============================================================
// generate_persona
// ============================================================

func TestHandleGeneratePersona(t *testing.T) {
	f := &stubFetcher{}
	h := NewHandlers(f)

	result, err := h.HandleGeneratePersona(context.Background(), makeRequest(map[string]any{
		"preset":  "social",
		"twin_id": "DT-TEST22",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Twin: DT-TEST22")
	assert.Contains(t, text, "Model: stub-model")
	assert.Contains(t, text, "1) Twin Name: Night Owl")

	require.NotNil(t, f.got)
	assert.Equal(t, "DT-TEST22", f.got.TwinID)
	assert.Equal(t, 8, f.got.Inputs.SocialMediaUse)
	assert.Equal(t, persona.DefaultStyle(), f.got.Style)
}

func TestHandleGeneratePersona_GeneratesTwinID(t *testing.T) {
	f := &stubFetcher{}
	h := NewHandlers(f)

	_, err := h.HandleGeneratePersona(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	require.NotNil(t, f.got)
	assert.Regexp(t, `^DT-[A-Z2-9]{6}$`, f.got.TwinID)
}

func TestHandleGeneratePersona_FetchError(t *testing.T) {
	h := NewHandlers(&stubFetcher{err: errors.New("Backend error (502): upstream")})

	result, err := h.HandleGeneratePersona(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Backend error (502): upstream")
}

func TestHandleGeneratePersona_ThroughProxyClient(t *testing.T) {
	var gotOrigin string
	var got persona.Payload
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/twin", r.URL.Path)
		gotOrigin = r.Header.Get("Origin")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_ = json.NewEncoder(w).Encode(persona.Response{Model: "gpt-test", PersonaText: "hello", PersonaHTML: "<p>hello</p>"})
	}))
	defer ts.Close()

	h := NewHandlers(NewProxyClient(Config{ProxyURL: ts.URL, Origin: "http://localhost:8787"}))
	result, err := h.HandleGeneratePersona(context.Background(), makeRequest(map[string]any{"preset": "late"}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	assert.Equal(t, "http://localhost:8787", gotOrigin)
	assert.Equal(t, "Hype Gamer", got.Outputs.AdProfile)
	assert.Contains(t, resultText(t, result), "Model: gpt-test")
}

// ============================================================
// Server wiring
// ============================================================

func TestNewMCPServer_RegistersTools(t *testing.T) {
	s := NewMCPServer(Config{ProxyURL: "http://127.0.0.1:1"})
	require.NotNil(t, s)

	tools := s.ListTools()
	for _, name := range []string{"derive_twin", "list_presets", "explain_change", "generate_persona"} {
		_, ok := tools[name]
		assert.True(t, ok, "tool %s not registered", name)
	}
}

func TestToolSchemas(t *testing.T) {
	assert.Contains(t, ToolExplainChange.InputSchema.Required, "from_preset")
	assert.Contains(t, ToolDeriveTwin.InputSchema.Properties, "devices")
	assert.Contains(t, ToolGeneratePersona.InputSchema.Properties, "twin_id")
	assert.Empty(t, ToolListPresets.InputSchema.Properties)
}
