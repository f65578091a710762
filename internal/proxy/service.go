package proxy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/emilio-vasquez/digitaltwin/internal/circuitbreaker"
	"github.com/emilio-vasquez/digitaltwin/internal/llm"
	"github.com/emilio-vasquez/digitaltwin/internal/logging"
	"github.com/emilio-vasquez/digitaltwin/internal/metrics"
	"github.com/emilio-vasquez/digitaltwin/internal/persona"
	"github.com/emilio-vasquez/digitaltwin/internal/retry"
	"github.com/emilio-vasquez/digitaltwin/internal/traces"
)

// BreakerKey is the circuit breaker key for the text-generation upstream.
const BreakerKey = "openai"

// DefaultMaxChars caps persona_text when no limit is configured.
const DefaultMaxChars = 2000

var (
	// ErrNotConfigured means no upstream API key is set.
	ErrNotConfigured = errors.New("proxy: upstream API key not configured")
	// ErrUpstreamUnavailable means the circuit breaker rejected the call.
	ErrUpstreamUnavailable = errors.New("proxy: upstream temporarily unavailable")
)

// Generator is the upstream text-generation call. *llm.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
	Configured() bool
}

// Service renders prompts, calls the upstream once per request and shapes
// the reply.
type Service struct {
	gen      Generator
	breaker  *circuitbreaker.Breaker
	prompter *Prompter
	maxChars int
	retry    retry.Policy
}

// Option configures a Service.
type Option func(*Service)

// WithBreaker guards upstream calls with b.
func WithBreaker(b *circuitbreaker.Breaker) Option {
	return func(s *Service) { s.breaker = b }
}

// WithPrompter replaces the default prompt template.
func WithPrompter(p *Prompter) Option {
	return func(s *Service) { s.prompter = p }
}

// WithMaxChars caps persona_text at n runes; n <= 0 disables the cap.
func WithMaxChars(n int) Option {
	return func(s *Service) { s.maxChars = n }
}

// WithRetry repeats transient upstream failures (transport errors, 429, 5xx)
// up to attempts calls in total. The whole sequence counts as one breaker
// call. attempts <= 1 disables retrying.
func WithRetry(attempts int, baseDelay time.Duration) Option {
	return func(s *Service) {
		s.retry.MaxAttempts = attempts
		s.retry.BaseDelay = baseDelay
	}
}

// NewService creates a service. It fails only if the built-in template does
// not parse.
func NewService(gen Generator, opts ...Option) (*Service, error) {
	s := &Service{
		gen:      gen,
		maxChars: DefaultMaxChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.prompter == nil {
		p, err := NewPrompter("")
		if err != nil {
			return nil, err
		}
		s.prompter = p
	}
	return s, nil
}

// Configured reports whether the upstream has an API key.
func (s *Service) Configured() bool {
	return s.gen.Configured()
}

// Model returns the model name reported to clients.
func (s *Service) Model() string {
	return s.gen.Model()
}

// BreakerState reports the upstream circuit state; closed when no breaker is
// configured.
func (s *Service) BreakerState() circuitbreaker.State {
	if s.breaker == nil {
		return circuitbreaker.StateClosed
	}
	return s.breaker.State(BreakerKey)
}

// Generate produces a persona for req. Errors are ErrNotConfigured,
// ErrUpstreamUnavailable, a wrapped *llm.UpstreamError, or a wrapped
// transport failure.
func (s *Service) Generate(ctx context.Context, req Request) (*persona.Response, error) {
	if !s.gen.Configured() {
		return nil, ErrNotConfigured
	}

	prompt, err := s.prompter.Render(req)
	if err != nil {
		return nil, err
	}

	ctx, span := traces.StartSpan(ctx, "persona.generate",
		traces.TwinID(req.TwinID),
		traces.Model(s.gen.Model()),
		traces.PromptChars(len(prompt)),
	)
	defer span.End()

	var text string
	policy := s.retry
	policy.Retryable = tripsBreaker
	policy.OnRetry = func(attempt int, err error) {
		metrics.UpstreamRequestsTotal.WithLabelValues("retried").Inc()
		logging.L(ctx).Warn("retrying upstream call", "attempt", attempt, "error", err)
	}
	call := func(ctx context.Context) error {
		return policy.Do(ctx, func(ctx context.Context) error {
			var err error
			text, err = s.gen.Generate(ctx, prompt)
			return err
		})
	}

	start := time.Now()
	if s.breaker != nil {
		err = s.breaker.Do(ctx, BreakerKey, call, tripsBreaker)
	} else {
		err = call(ctx)
	}

	if errors.Is(err, circuitbreaker.ErrOpen) {
		metrics.ProxyRejectionsTotal.WithLabelValues("breaker_open").Inc()
		span.SetStatus(codes.Error, "circuit open")
		return nil, ErrUpstreamUnavailable
	}
	metrics.UpstreamDuration.Observe(time.Since(start).Seconds())

	log := logging.L(ctx)
	if err != nil {
		var ue *llm.UpstreamError
		if errors.As(err, &ue) {
			metrics.UpstreamRequestsTotal.WithLabelValues("upstream_error").Inc()
			span.SetAttributes(traces.UpstreamStatus(ue.Status))
			log.Warn("upstream returned error", "status", ue.Status)
		} else {
			metrics.UpstreamRequestsTotal.WithLabelValues("request_failed").Inc()
			log.Warn("upstream request failed", "error", err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("generate persona: %w", err)
	}

	metrics.UpstreamRequestsTotal.WithLabelValues("ok").Inc()
	span.SetAttributes(traces.UpstreamStatus(200))

	if text == "" {
		text = NoTextFallback
	}
	text = Truncate(text, s.maxChars)

	log.Info("persona generated", "chars", len([]rune(text)))
	return &persona.Response{
		Model:       s.gen.Model(),
		PersonaText: text,
		PersonaHTML: RenderHTML(text),
	}, nil
}

// FetchPersona lets in-process sessions use the service without a network
// hop.
func (s *Service) FetchPersona(ctx context.Context, p *persona.Payload) (*persona.Response, error) {
	return s.Generate(ctx, FromPayload(p))
}

// tripsBreaker counts transport failures, rate limiting and 5xx replies.
// A 4xx means the request was bad, not that the upstream is down.
func tripsBreaker(err error) bool {
	var ue *llm.UpstreamError
	if errors.As(err, &ue) {
		return ue.Temporary()
	}
	return true
}
