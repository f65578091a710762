package persona

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emilio-vasquez/digitaltwin/internal/metrics"
)

// DefaultDelay is the quiet period before a non-forced request is issued.
const DefaultDelay = 900 * time.Millisecond

// Scheduler debounces persona requests and delivers only the newest result.
//
// Every issued request takes the next sequence number. Updates reach the
// deliver func in issue order: once "generating" for N has been delivered,
// nothing for a tag below N is. In-flight requests are never aborted when
// superseded; their responses are dropped instead.
type Scheduler struct {
	fetcher Fetcher
	deliver func(Update)
	delay   time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	timer  *time.Timer
	latest *Payload
	closed bool

	// seq is the highest issued tag; deliverMu orders its increments with
	// deliveries.
	seq       atomic.Uint64
	deliverMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithDelay overrides DefaultDelay.
func WithDelay(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.delay = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// WithClock sets the clock used for the meta line.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler creates a scheduler. deliver is called with deliveries
// serialised; it must not call Close.
func NewScheduler(f Fetcher, deliver func(Update), opts ...SchedulerOption) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		fetcher: f,
		deliver: deliver,
		delay:   DefaultDelay,
		logger:  slog.Default(),
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule records p as the latest payload (a nil p keeps the previous one)
// and re-arms the timer: DefaultDelay normally, zero when force is set. When
// the timer fires the latest payload at that moment is sent. Without any
// payload Schedule does nothing.
func (s *Scheduler) Schedule(p *Payload, force bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if p != nil {
		s.latest = p
	}
	if s.latest == nil {
		return
	}

	if s.timer != nil {
		s.timer.Stop()
	}
	delay := s.delay
	if force {
		delay = 0
	}
	s.timer = time.AfterFunc(delay, s.fire)
}

// Latest returns the highest issued sequence number.
func (s *Scheduler) Latest() uint64 {
	return s.seq.Load()
}

// Close stops the timer, cancels in-flight requests and waits for them to
// return. Nothing is delivered after Close returns.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	p := s.latest
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in persona request", "panic", fmt.Sprint(r))
		}
	}()

	seq, ok := s.issue()
	if !ok {
		return
	}
	metrics.PersonaIssuedTotal.Inc()

	resp, err := s.fetcher.FetchPersona(s.ctx, p)
	s.settle(seq, resp, err)
}

// issue takes the next tag and delivers "generating" for it.
func (s *Scheduler) issue() (seq uint64, ok bool) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	defer s.recoverDeliver(&ok)

	seq = s.seq.Add(1)
	s.deliver(GeneratingUpdate(seq))
	return seq, true
}

// settle delivers the outcome of request seq unless it was superseded or the
// scheduler closed meanwhile.
func (s *Scheduler) settle(seq uint64, resp *Response, err error) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	var ok bool
	defer s.recoverDeliver(&ok)

	if seq != s.seq.Load() {
		metrics.PersonaStaleDiscardedTotal.Inc()
		s.logger.Debug("discarding stale persona response", "seq", seq, "latest", s.seq.Load())
		return
	}
	if s.ctx.Err() != nil {
		return
	}
	if err != nil {
		s.logger.Warn("persona request failed", "seq", seq, "error", err)
		s.deliver(OfflineUpdate(seq, err))
		return
	}
	s.deliver(ReadyUpdate(seq, resp, s.now()))
}

// recoverDeliver logs a panicking deliver func. It runs before deliverMu is
// released, so the lock is never left held.
func (s *Scheduler) recoverDeliver(ok *bool) {
	if r := recover(); r != nil {
		*ok = false
		s.logger.Error("panic in persona delivery", "panic", fmt.Sprint(r))
	}
}
