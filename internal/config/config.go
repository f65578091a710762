// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/emilio-vasquez/digitaltwin/internal/security"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port      string
	Env       string // "development", "staging", "production"
	LogLevel  string
	LogFormat string // "text" or "json"

	// Upstream text generation
	OpenAIAPIKey    string // Secret; requests get 500 when empty
	OpenAIBaseURL   string
	OpenAIModel     string
	MaxOutputTokens int
	UpstreamTimeout time.Duration

	// UpstreamMaxAttempts > 1 retries transient upstream failures
	UpstreamMaxAttempts int
	UpstreamRetryDelay  time.Duration

	// Persona shaping
	PromptTemplateFile string // Liquid template; empty uses the built-in prompt
	PersonaMaxChars    int
	PersonaDebounce    time.Duration

	// Security
	AllowedOrigins []string
	RateLimitRPM   int
	RateLimitBurst int

	// Upstream circuit breaker
	BreakerThreshold    int
	BreakerOpenDuration time.Duration

	// Tracing (optional)
	OTLPEndpoint     string
	OTLPInsecure     bool    // plaintext gRPC to a local collector
	TraceSampleRatio float64 // fraction of root spans kept
}

// Defaults
const (
	DefaultPort             = "8787"
	DefaultEnv              = "development"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultOpenAIBaseURL    = "https://api.openai.com/v1"
	DefaultOpenAIModel      = "gpt-4.1-mini"
	DefaultMaxOutputTokens  = 300
	DefaultUpstreamTimeout  = 30 * time.Second
	DefaultUpstreamAttempts = 1
	DefaultUpstreamRetry    = 500 * time.Millisecond
	DefaultPersonaMaxChars  = 2000
	DefaultPersonaDebounce  = 900 * time.Millisecond
	DefaultRateLimitRPM     = 30
	DefaultRateLimitBurst   = 10
	DefaultBreakerThreshold = 5
	DefaultBreakerOpen      = 30 * time.Second
	DefaultTraceSampleRatio = 1.0
)

// DefaultAllowedOrigins is the ALLOWED_ORIGINS default.
var DefaultAllowedOrigins = strings.Join(security.DefaultAllowedOrigins, ",")

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", DefaultPort),
		Env:                 getEnv("ENV", DefaultEnv),
		LogLevel:            getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:           getEnv("LOG_FORMAT", DefaultLogFormat),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", DefaultOpenAIBaseURL),
		OpenAIModel:         getEnv("OPENAI_MODEL", DefaultOpenAIModel),
		MaxOutputTokens:     getEnvInt("OPENAI_MAX_OUTPUT_TOKENS", DefaultMaxOutputTokens),
		UpstreamTimeout:     getEnvDuration("UPSTREAM_TIMEOUT", DefaultUpstreamTimeout),
		UpstreamMaxAttempts: getEnvInt("UPSTREAM_MAX_ATTEMPTS", DefaultUpstreamAttempts),
		UpstreamRetryDelay:  getEnvDuration("UPSTREAM_RETRY_DELAY", DefaultUpstreamRetry),
		PromptTemplateFile:  os.Getenv("PROMPT_TEMPLATE_FILE"),
		PersonaMaxChars:     getEnvInt("PERSONA_MAX_CHARS", DefaultPersonaMaxChars),
		PersonaDebounce:     getEnvDuration("PERSONA_DEBOUNCE", DefaultPersonaDebounce),
		AllowedOrigins:      splitList(getEnv("ALLOWED_ORIGINS", DefaultAllowedOrigins)),
		RateLimitRPM:        getEnvInt("RATE_LIMIT_RPM", DefaultRateLimitRPM),
		RateLimitBurst:      getEnvInt("RATE_LIMIT_BURST", DefaultRateLimitBurst),
		BreakerThreshold:    getEnvInt("BREAKER_THRESHOLD", DefaultBreakerThreshold),
		BreakerOpenDuration: getEnvDuration("BREAKER_OPEN_DURATION", DefaultBreakerOpen),
		OTLPEndpoint:        os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPInsecure:        getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		TraceSampleRatio:    getEnvFloat("OTEL_TRACES_SAMPLER_ARG", DefaultTraceSampleRatio),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable. A missing API key is not
// an error: the server starts and answers persona requests with 500.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a number between 1 and 65535, got %q", c.Port)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}

	if c.MaxOutputTokens <= 0 {
		return fmt.Errorf("OPENAI_MAX_OUTPUT_TOKENS must be positive")
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive")
	}
	if c.PersonaDebounce < 0 {
		return fmt.Errorf("PERSONA_DEBOUNCE must not be negative")
	}
	if c.RateLimitRPM <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPM and RATE_LIMIT_BURST must be positive")
	}

	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		return fmt.Errorf("OTEL_TRACES_SAMPLER_ARG must be between 0 and 1, got %v", c.TraceSampleRatio)
	}

	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_ORIGINS must list at least one origin")
	}
	for _, o := range c.AllowedOrigins {
		if err := security.ValidateOrigin(o); err != nil {
			return fmt.Errorf("ALLOWED_ORIGINS: %w", err)
		}
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
