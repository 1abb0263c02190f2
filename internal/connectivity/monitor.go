// Package connectivity probes backend liveness.
package connectivity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/helpdesk-go/internal/models"
	"golang.org/x/time/rate"
)

// HealthChecker is the backend liveness call.
type HealthChecker interface {
	Health(ctx context.Context) (*models.HealthStatus, error)
}

// Monitor issues health probes and reports connectivity. It holds no
// connectivity state of its own; callers own the last reported value.
type Monitor struct {
	checker  HealthChecker
	endpoint string
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// New creates a monitor. minGap is the minimum spacing between probes
// issued through MaybeProbe; zero disables throttling.
func New(checker HealthChecker, endpoint string, minGap time.Duration, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	limit := rate.Inf
	if minGap > 0 {
		limit = rate.Every(minGap)
	}
	return &Monitor{
		checker:  checker,
		endpoint: endpoint,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
	}
}

// Probe issues a health check unconditionally.
func (m *Monitor) Probe(ctx context.Context) models.ConnectivityState {
	if _, err := m.checker.Health(ctx); err != nil {
		m.logger.Warn("backend health probe failed", "endpoint", m.endpoint, "error", err)
		return models.Disconnected(DisconnectedMessage(m.endpoint))
	}
	m.logger.Debug("backend health probe succeeded", "endpoint", m.endpoint)
	return models.Connected()
}

// MaybeProbe probes unless a probe ran within the minimum gap.
// The boolean is false when the probe was skipped.
func (m *Monitor) MaybeProbe(ctx context.Context) (models.ConnectivityState, bool) {
	if !m.limiter.Allow() {
		return models.ConnectivityState{}, false
	}
	return m.Probe(ctx), true
}

// DisconnectedMessage describes an unreachable backend.
func DisconnectedMessage(endpoint string) string {
	return fmt.Sprintf("Cannot connect to backend. Please ensure the server is running on %s", endpoint)
}
