// Package llm is a minimal client for the OpenAI Responses API: one prompt in,
// one block of text out.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Defaults used when Config leaves a field empty.
const (
	DefaultBaseURL         = "https://api.openai.com/v1"
	DefaultModel           = "gpt-4.1-mini"
	DefaultMaxOutputTokens = 300
	DefaultTimeout         = 30 * time.Second
)

// ErrNoAPIKey is returned by Generate when no key is configured.
var ErrNoAPIKey = errors.New("llm: missing API key")

// Config holds the upstream connection settings.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	MaxOutputTokens int
	Timeout         time.Duration
}

// UpstreamError is a non-2xx reply from the API. Body is passed through to
// callers verbatim.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("OpenAI error (%d)", e.Status)
}

// Temporary reports whether the status suggests the upstream itself is
// struggling (rate limited or failing) rather than rejecting the request.
func (e *UpstreamError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// Client calls POST {BaseURL}/responses.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// New creates a client, filling defaults.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

type responsesRequest struct {
	Model           string `json:"model"`
	Input           string `json:"input"`
	MaxOutputTokens int    `json:"max_output_tokens"`
}

// Response is the subset of the Responses API reply that carries text.
type Response struct {
	Model  string       `json:"model"`
	Output []OutputItem `json:"output"`
}

// OutputItem is one entry of Response.Output.
type OutputItem struct {
	Type    string        `json:"type"`
	Content []ContentPart `json:"content"`
}

// ContentPart is one piece of an output item.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Generate sends prompt and returns the extracted text, which may be empty.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", ErrNoAPIKey
	}

	data, err := json.Marshal(responsesRequest{
		Model:           c.cfg.Model,
		Input:           prompt,
		MaxOutputTokens: c.cfg.MaxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/responses", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var parsed Response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return ExtractText(parsed), nil
}

// ExtractText joins every output_text part with newlines and trims the result.
func ExtractText(r Response) string {
	var texts []string
	for _, item := range r.Output {
		for _, part := range item.Content {
			if part.Type == "output_text" {
				texts = append(texts, part.Text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(texts, "\n"))
}
