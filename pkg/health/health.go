// Package health provides liveness and readiness probe endpoints.
//
// Checks are evaluated on demand when a probe endpoint is hit, with results
// cached for a short interval so aggressive probing does not hammer the
// checked components.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// CheckFunc reports the health of a single component. A nil return means
// healthy.
type CheckFunc func(ctx context.Context) error

// check wraps a CheckFunc with a timeout and a cached last result.
type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	mu      sync.Mutex
	lastRun time.Time
	lastErr error
}

// eval runs the check, reusing the cached result if it is fresh enough.
func (c *check) eval(ctx context.Context, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if !c.lastRun.IsZero() && now.Sub(c.lastRun) < ttl {
		return c.lastErr
	}

	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.lastErr = c.fn(checkCtx)
	c.lastRun = now
	return c.lastErr
}

// Health aggregates liveness and readiness checks for a service.
type Health struct {
	cacheTTL time.Duration

	mu        sync.RWMutex
	ready     bool
	liveness  []*check
	readiness []*check
}

// New creates a Health. The service starts not-ready; call SetReady(true)
// after initialization completes.
func New() *Health {
	return &Health{cacheTTL: time.Second}
}

// AddLivenessCheck registers a check answering "is this process functioning".
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, &check{name: name, timeout: timeout, fn: fn})
}

// AddReadinessCheck registers a check answering "can this process serve
// traffic", such as a database ping.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, &check{name: name, timeout: timeout, fn: fn})
}

// SetReady flips the manual readiness gate. Set false during graceful
// shutdown so load balancers stop routing new traffic.
func (h *Health) SetReady(ready bool) {
	h.mu.Lock()
	h.ready = ready
	h.mu.Unlock()
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves the /livez probe: 200 when all liveness checks pass,
// 503 with failure details otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := append([]*check(nil), h.liveness...)
	h.mu.RUnlock()

	writeProbe(w, h.runChecks(r.Context(), checks))
}

// ReadyEndpoint serves the /readyz probe: 200 when the service is marked
// ready and all readiness checks pass.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	ready := h.ready
	checks := append([]*check(nil), h.readiness...)
	h.mu.RUnlock()

	failures := h.runChecks(r.Context(), checks)
	if !ready {
		failures["_readiness"] = "service is not ready"
	}
	writeProbe(w, failures)
}

func (h *Health) runChecks(ctx context.Context, checks []*check) map[string]string {
	failures := make(map[string]string)
	for _, c := range checks {
		if err := c.eval(ctx, h.cacheTTL); err != nil {
			failures[c.name] = err.Error()
		}
	}
	return failures
}

func writeProbe(w http.ResponseWriter, failures map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{Status: "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = failures
		code = http.StatusServiceUnavailable
	}

	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
