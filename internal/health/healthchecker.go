package health

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// HealthChecker is implemented by component-level checkers (metadata store, object store).
type HealthChecker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// ServiceHealthChecker is healthy only while every store checker is.
type ServiceHealthChecker struct {
	healthy atomic.Bool
	deps    []HealthChecker
	log     zerolog.Logger

	mu   sync.Mutex
	down []string
}

func NewServiceHealthChecker(log zerolog.Logger, deps ...HealthChecker) *ServiceHealthChecker {
	return &ServiceHealthChecker{deps: deps, log: log}
}

// IsHealthy returns cached service health.
func (h *ServiceHealthChecker) IsHealthy() bool { return h.healthy.Load() }

// Unhealthy names the checkers that were down at the last evaluation.
func (h *ServiceHealthChecker) Unhealthy() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.down...)
}

// Start re-evaluates the checkers every interval until ctx is done,
// logging only when the service flag flips.
func (h *ServiceHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	first := true
	for {
		h.evaluate(first)
		first = false
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *ServiceHealthChecker) evaluate(first bool) {
	var down []string
	for _, c := range h.deps {
		if !c.IsHealthy() {
			down = append(down, c.Name())
		}
	}
	h.mu.Lock()
	h.down = down
	h.mu.Unlock()

	up := len(down) == 0
	if h.healthy.Swap(up) == up && !first {
		return
	}
	if up {
		h.log.Info().Int("stores", len(h.deps)).Msg("service health: UP")
	} else {
		h.log.Error().Strs("down", down).Msg("service health: DOWN")
	}
}
