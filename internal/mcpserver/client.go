package mcpserver

import (
	"time"

	"github.com/emilio-vasquez/digitaltwin/internal/persona"
)

// Config holds the configuration for reaching the persona proxy.
type Config struct {
	ProxyURL string        // Base URL, e.g. "http://localhost:8787"
	Origin   string        // Origin header the proxy will check, e.g. "http://localhost:8787"
	Timeout  time.Duration // per persona request; zero means the client default
}

// NewProxyClient creates the persona client used by generate_persona.
func NewProxyClient(cfg Config) *persona.Client {
	return persona.NewClient(persona.ClientConfig{
		BaseURL: cfg.ProxyURL,
		Origin:  cfg.Origin,
		Timeout: cfg.Timeout,
	})
}
