// Package session binds one twin form to the formula library and the persona
// scheduler. A Session owns everything that outlives a single update: the
// twin id, the previous snapshot for change explanations and the request
// sequence inside its scheduler.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/emilio-vasquez/digitaltwin/internal/idgen"
	"github.com/emilio-vasquez/digitaltwin/internal/metrics"
	"github.com/emilio-vasquez/digitaltwin/internal/persona"
	"github.com/emilio-vasquez/digitaltwin/internal/twin"
)

// View is everything rendered after one update.
type View struct {
	TwinID            string           `json:"twinId"`
	State             twin.InputState  `json:"state"`
	Metrics           twin.Metrics     `json:"metrics"`
	ChangeExplanation string           `json:"changeExplanation"`
	Payload           *persona.Payload `json:"payload"`
}

// Renderer receives session output. RenderPersona is called from the
// scheduler's goroutines, one call at a time.
type Renderer interface {
	RenderDerived(View)
	RenderPersona(persona.Update)
}

// Session is one live twin form.
type Session struct {
	id       string
	renderer Renderer
	logger   *slog.Logger
	sched    *persona.Scheduler
	closed   sync.Once

	mu          sync.Mutex
	explainer   twin.Explainer
	state       twin.InputState
	explanation string
}

// Option configures a Session.
type Option func(*config)

type config struct {
	twinID string
	delay  time.Duration
	logger *slog.Logger
}

// WithTwinID fixes the twin id instead of generating one.
func WithTwinID(id string) Option {
	return func(c *config) { c.twinID = id }
}

// WithDebounce overrides the persona debounce delay.
func WithDebounce(d time.Duration) Option {
	return func(c *config) { c.delay = d }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// New creates a session that fetches personas through f.
func New(f persona.Fetcher, r Renderer, opts ...Option) *Session {
	cfg := config{delay: persona.DefaultDelay, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.twinID == "" {
		cfg.twinID = idgen.TwinID()
	}

	logger := cfg.logger.With("twin_id", cfg.twinID)
	s := &Session{
		id:          cfg.twinID,
		renderer:    r,
		logger:      logger,
		explanation: twin.NoChangeMessage,
	}
	s.sched = persona.NewScheduler(f, r.RenderPersona,
		persona.WithDelay(cfg.delay),
		persona.WithLogger(logger),
	)
	metrics.ActiveSessions.Inc()
	return s
}

// TwinID returns the session's display id.
func (s *Session) TwinID() string {
	return s.id
}

// State returns the last rendered state.
func (s *Session) State() twin.InputState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start runs the initial cycle: render the default form without an
// explanation, then request a persona immediately.
func (s *Session) Start() {
	s.mu.Lock()
	s.explainer.Reset()
	s.explanation = twin.NoChangeMessage
	s.mu.Unlock()

	s.Update(twin.Default(), false)
	s.sched.Schedule(nil, true)
}

// Update normalizes state, derives and renders metrics, and schedules a
// debounced persona request. With explain set the change from the previous
// explained state is described; otherwise the last explanation is kept.
func (s *Session) Update(state twin.InputState, explain bool) View {
	state = state.Normalize()
	m := twin.Derive(state)
	metrics.DerivationsTotal.WithLabelValues("session").Inc()
	p := persona.BuildPayload(s.id, state, m)

	s.mu.Lock()
	s.state = state
	if explain {
		s.explanation = s.explainer.Observe(state)
	}
	v := View{
		TwinID:            s.id,
		State:             state,
		Metrics:           m,
		ChangeExplanation: s.explanation,
		Payload:           p,
	}
	s.renderer.RenderDerived(v)
	s.mu.Unlock()

	s.sched.Schedule(p, false)
	return v
}

// ApplyPreset loads a scenario, renders it with an explanation and requests
// a persona immediately.
func (s *Session) ApplyPreset(name string) (View, error) {
	state, err := twin.Preset(name)
	if err != nil {
		return View{}, err
	}
	v := s.Update(state, true)
	s.sched.Schedule(nil, true)
	return v, nil
}

// Reset restores the default form and requests a persona immediately.
func (s *Session) Reset() View {
	v := s.Update(twin.Default(), true)
	s.sched.Schedule(nil, true)
	return v
}

// Regenerate re-sends the latest payload without waiting.
func (s *Session) Regenerate() {
	s.sched.Schedule(nil, true)
}

// Close stops persona delivery. It must not be called from a Renderer.
func (s *Session) Close() {
	s.closed.Do(func() {
		s.sched.Close()
		metrics.ActiveSessions.Dec()
		s.logger.Debug("session closed")
	})
}
