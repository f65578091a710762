package persona

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Response is the proxy's success body.
type Response struct {
	Model       string `json:"model"`
	PersonaText string `json:"persona_text"`
	PersonaHTML string `json:"persona_html"`
}

// Fetcher produces a persona for a payload.
type Fetcher interface {
	FetchPersona(ctx context.Context, p *Payload) (*Response, error)
}

// ClientConfig holds the configuration for reaching a persona proxy.
type ClientConfig struct {
	BaseURL string        // e.g. "http://localhost:8787"; empty means same origin
	Origin  string        // sent as the Origin header when set
	Timeout time.Duration // defaults to 30s
}

// Client calls POST /api/twin on a persona proxy.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

// NewClient creates a new proxy client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// URL returns the absolute endpoint for path.
func (c *Client) URL(path string) string {
	return strings.TrimSuffix(c.cfg.BaseURL, "/") + path
}

// FetchPersona posts p and decodes the persona. Any non-2xx status becomes an
// error carrying the status and the raw body text.
func (c *Client) FetchPersona(ctx context.Context, p *Payload) (*Response, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL("/api/twin"), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Origin != "" {
		req.Header.Set("Origin", c.cfg.Origin)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("Backend error (%d): %s", resp.StatusCode, string(body))
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
