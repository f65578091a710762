// Package health provides a registry of named subsystem health checkers.
package health

import (
	"context"
	"sync"
)

// Check names registered by the server.
const (
	CheckUpstreamKey     = "upstream_key"
	CheckUpstreamBreaker = "upstream_breaker"
)

// Status represents the health of a single subsystem.
type Status struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Checker is a function that checks the health of a subsystem.
type Checker func(ctx context.Context) Status

// Registry holds named health checkers and runs them on demand.
type Registry struct {
	mu       sync.RWMutex
	checkers []namedChecker
}

type namedChecker struct {
	name  string
	check Checker
}

// NewRegistry creates a new health check registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a named health checker.
func (r *Registry) Register(name string, check Checker) {
	r.mu.Lock()
	r.checkers = append(r.checkers, namedChecker{name: name, check: check})
	r.mu.Unlock()
}

// CheckAll runs all registered checkers in registration order and returns
// the aggregate health plus individual results. A checker that leaves Name
// empty is reported under its registered name.
func (r *Registry) CheckAll(ctx context.Context) (healthy bool, statuses []Status) {
	r.mu.RLock()
	checkers := make([]namedChecker, len(r.checkers))
	copy(checkers, r.checkers)
	r.mu.RUnlock()

	healthy = true
	statuses = make([]Status, len(checkers))

	for i, nc := range checkers {
		statuses[i] = nc.check(ctx)
		if statuses[i].Name == "" {
			statuses[i].Name = nc.name
		}
		if !statuses[i].Healthy {
			healthy = false
		}
	}

	return healthy, statuses
}

// UpstreamKey reports whether the text-generation API key is configured.
func UpstreamKey(configured func() bool) Checker {
	return func(_ context.Context) Status {
		if !configured() {
			return Status{Name: CheckUpstreamKey, Healthy: false, Detail: "OPENAI_API_KEY not set"}
		}
		return Status{Name: CheckUpstreamKey, Healthy: true}
	}
}

// UpstreamBreaker reports the upstream circuit state; only "closed" is
// healthy.
func UpstreamBreaker(state func() string) Checker {
	return func(_ context.Context) Status {
		s := state()
		return Status{Name: CheckUpstreamBreaker, Healthy: s == "closed", Detail: s}
	}
}
