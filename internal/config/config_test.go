package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper to set env vars and clean up after
func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if !had {
			os.Unsetenv(key)
		} else {
			os.Setenv(key, old)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "OPENAI_API_KEY", "ALLOWED_ORIGINS", "PERSONA_DEBOUNCE", "OPENAI_MODEL", "LOG_FORMAT", "UPSTREAM_MAX_ATTEMPTS", "OTEL_EXPORTER_OTLP_INSECURE", "OTEL_TRACES_SAMPLER_ARG"} {
		setEnv(t, key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Empty(t, cfg.OpenAIAPIKey, "a missing key is allowed at startup")
	assert.Equal(t, DefaultOpenAIModel, cfg.OpenAIModel)
	assert.Equal(t, DefaultMaxOutputTokens, cfg.MaxOutputTokens)
	assert.Equal(t, 900*time.Millisecond, cfg.PersonaDebounce)
	assert.Equal(t, []string{"http://localhost:8787", "http://127.0.0.1:8787", "https://emilio-vasquez.github.io"}, cfg.AllowedOrigins)
	assert.Equal(t, DefaultRateLimitRPM, cfg.RateLimitRPM)
	assert.Equal(t, 1, cfg.UpstreamMaxAttempts)
	assert.True(t, cfg.OTLPInsecure)
	assert.Equal(t, DefaultTraceSampleRatio, cfg.TraceSampleRatio)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	setEnv(t, "PORT", "9090")
	setEnv(t, "OPENAI_API_KEY", "sk-test")
	setEnv(t, "OPENAI_MAX_OUTPUT_TOKENS", "500")
	setEnv(t, "UPSTREAM_TIMEOUT", "5s")
	setEnv(t, "PERSONA_DEBOUNCE", "250ms")
	setEnv(t, "ALLOWED_ORIGINS", " https://a.example , http://localhost:3000 ,")
	setEnv(t, "ENV", "production")
	setEnv(t, "UPSTREAM_MAX_ATTEMPTS", "3")
	setEnv(t, "OTEL_EXPORTER_OTLP_INSECURE", "false")
	setEnv(t, "OTEL_TRACES_SAMPLER_ARG", "0.25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, 500, cfg.MaxOutputTokens)
	assert.Equal(t, 5*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.PersonaDebounce)
	assert.Equal(t, []string{"https://a.example", "http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 3, cfg.UpstreamMaxAttempts)
	assert.False(t, cfg.OTLPInsecure)
	assert.Equal(t, 0.25, cfg.TraceSampleRatio)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_UnparseableNumbersFallBack(t *testing.T) {
	setEnv(t, "RATE_LIMIT_RPM", "lots")
	setEnv(t, "BREAKER_OPEN_DURATION", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultRateLimitRPM, cfg.RateLimitRPM)
	assert.Equal(t, DefaultBreakerOpen, cfg.BreakerOpenDuration)
}

func TestLoad_InvalidOrigin(t *testing.T) {
	setEnv(t, "ALLOWED_ORIGINS", "http://localhost:8787,*")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALLOWED_ORIGINS")
}

func validConfig() Config {
	return Config{
		Port:            "8787",
		LogFormat:       "text",
		MaxOutputTokens: 300,
		UpstreamTimeout: time.Second,
		RateLimitRPM:    30,
		RateLimitBurst:  10,
		AllowedOrigins:  []string{"http://localhost:8787"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"non-numeric port", func(c *Config) { c.Port = "http" }, "PORT"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "PORT"},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"zero tokens", func(c *Config) { c.MaxOutputTokens = 0 }, "OPENAI_MAX_OUTPUT_TOKENS"},
		{"zero timeout", func(c *Config) { c.UpstreamTimeout = 0 }, "UPSTREAM_TIMEOUT"},
		{"negative debounce", func(c *Config) { c.PersonaDebounce = -time.Second }, "PERSONA_DEBOUNCE"},
		{"zero burst", func(c *Config) { c.RateLimitBurst = 0 }, "RATE_LIMIT"},
		{"sample ratio above one", func(c *Config) { c.TraceSampleRatio = 1.5 }, "OTEL_TRACES_SAMPLER_ARG"},
		{"no origins", func(c *Config) { c.AllowedOrigins = nil }, "ALLOWED_ORIGINS"},
		{"origin with path", func(c *Config) { c.AllowedOrigins = []string{"https://x.example/app"} }, "ALLOWED_ORIGINS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
