package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/emilio-vasquez/digitaltwin/internal/persona"
	"github.com/emilio-vasquez/digitaltwin/internal/twin"
)

type stubFetcher struct {
	mu    sync.Mutex
	calls []*persona.Payload
	err   error
}

func (f *stubFetcher) FetchPersona(_ context.Context, p *persona.Payload) (*persona.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p)
	if f.err != nil {
		return nil, f.err
	}
	return &persona.Response{Model: "test-model", PersonaText: "Meet your twin."}, nil
}

func (f *stubFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type captureRenderer struct {
	mu       sync.Mutex
	views    []View
	personas []persona.Update
}

func (r *captureRenderer) RenderDerived(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
}

func (r *captureRenderer) RenderPersona(u persona.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.personas = append(r.personas, u)
}

func (r *captureRenderer) lastPersona() (persona.Update, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.personas) == 0 {
		return persona.Update{}, false
	}
	return r.personas[len(r.personas)-1], true
}

func (r *captureRenderer) viewCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func newTestSession(t *testing.T, f persona.Fetcher, r Renderer) *Session {
	t.Helper()
	return New(f, r,
		WithTwinID("DT-TEST23"),
		WithDebounce(20*time.Millisecond),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestSession_StartRendersDefaultsAndPersona(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &stubFetcher{}
	r := &captureRenderer{}
	s := newTestSession(t, f, r)
	defer s.Close()

	s.Start()

	require.Equal(t, 1, r.viewCount())
	v := r.views[0]
	assert.Equal(t, "DT-TEST23", v.TwinID)
	assert.Equal(t, twin.Default().Normalize(), v.State)
	assert.Equal(t, twin.NoChangeMessage, v.ChangeExplanation)
	assert.Equal(t, 36, v.Metrics.Risk) // 10 password + 10 age + 10 social + 8 devices - 2 cyber
	assert.Equal(t, "DT-TEST23", v.Payload.TwinID)

	require.Eventually(t, func() bool {
		u, ok := r.lastPersona()
		return ok && u.Status == persona.StatusUpdated
	}, 2*time.Second, 5*time.Millisecond)

	u, _ := r.lastPersona()
	assert.Equal(t, "<p>Meet your twin.</p>", u.HTML)
	assert.Contains(t, u.Meta, "Model: test-model")
}

func TestSession_UpdateExplainsSingleChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &stubFetcher{}
	r := &captureRenderer{}
	s := newTestSession(t, f, r)
	defer s.Close()

	v, err := s.ApplyPreset(twin.PresetPrivate)
	require.NoError(t, err)
	assert.Equal(t, 30, v.Metrics.Risk)
	assert.Equal(t, "Low", v.Metrics.RiskLevel.Label)

	next := s.State()
	next.LocationSharing = true
	v = s.Update(next, true)
	assert.Equal(t, "You changed: location → ON.", v.ChangeExplanation)

	// an unexplained update keeps the previous text
	next.SocialUse = 3
	v = s.Update(next, false)
	assert.Equal(t, "You changed: location → ON.", v.ChangeExplanation)
}

func TestSession_UpdateNormalizes(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newTestSession(t, &stubFetcher{}, &captureRenderer{})
	defer s.Close()

	v := s.Update(twin.InputState{SocialUse: 99, Devices: []twin.Device{"fridge", twin.DevicePhone}}, true)
	assert.Equal(t, twin.MaxSocialUse, v.State.SocialUse)
	assert.Equal(t, twin.PasswordStrong, v.State.PasswordHabit)
	assert.Equal(t, []twin.Device{twin.DevicePhone}, v.State.Devices)
}

func TestSession_UnknownPreset(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := &captureRenderer{}
	s := newTestSession(t, &stubFetcher{}, r)
	defer s.Close()

	_, err := s.ApplyPreset("chaos")
	assert.ErrorIs(t, err, twin.ErrUnknownPreset)
	assert.Equal(t, 0, r.viewCount())
}

func TestSession_ResetExplainsAgainstPrevious(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newTestSession(t, &stubFetcher{}, &captureRenderer{})
	defer s.Close()

	_, err := s.ApplyPreset(twin.PresetLate)
	require.NoError(t, err)

	v := s.Reset()
	assert.Equal(t, twin.Default().Normalize(), v.State)
	assert.Equal(t, "You changed: social → 5/10 • location → OFF.", v.ChangeExplanation)
}

func TestSession_OfflineOnFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &stubFetcher{err: errors.New("Backend error (500): no key")}
	r := &captureRenderer{}
	s := newTestSession(t, f, r)
	defer s.Close()

	s.Start()
	require.Eventually(t, func() bool {
		u, ok := r.lastPersona()
		return ok && u.Status == persona.StatusOffline
	}, 2*time.Second, 5*time.Millisecond)

	u, _ := r.lastPersona()
	assert.Equal(t, "Backend error (500): no key", u.Error)
}

func TestSession_RegenerateResendsLatest(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &stubFetcher{}
	r := &captureRenderer{}
	s := newTestSession(t, f, r)
	defer s.Close()

	s.Start()
	require.Eventually(t, func() bool { return f.count() == 1 }, 2*time.Second, 5*time.Millisecond)

	s.Regenerate()
	require.Eventually(t, func() bool { return f.count() == 2 }, 2*time.Second, 5*time.Millisecond)

	f.mu.Lock()
	assert.Same(t, f.calls[0], f.calls[1])
	f.mu.Unlock()
}

func TestSession_GeneratedTwinID(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := New(&stubFetcher{}, &captureRenderer{})
	defer s.Close()
	assert.Regexp(t, `^DT-[A-HJKMNP-Z2-9]{6}$`, s.TwinID())
}
