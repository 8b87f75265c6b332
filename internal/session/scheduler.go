package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/tidegate/worldctl/internal/gql"
)

// refreshTimeout bounds the background refresh call, including its
// retry/backoff budget.
const refreshTimeout = 2 * time.Minute

// scheduleRefresh arms the one-shot deferred refresh. Any previously
// scheduled refresh is cancelled first — at most one pending refresh
// exists at a time.
func (m *Manager) scheduleRefresh() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopTimerLocked()
	m.refreshTimer = m.afterFunc(m.refreshAfter, m.refreshNow)

	m.logger.Debug("scheduled token refresh", slog.Duration("after", m.refreshAfter))
}

// cancelRefresh stops any pending refresh.
func (m *Manager) cancelRefresh() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopTimerLocked()
}

// stopTimerLocked stops and clears the refresh timer. Caller holds m.mu.
func (m *Manager) stopTimerLocked() {
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
		m.refreshTimer = nil
	}
}

// refreshPending reports whether a deferred refresh is armed.
func (m *Manager) refreshPending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.refreshTimer != nil
}

// refreshNow is the timer callback. RefreshToken already tears the
// session down on unrecoverable token failures and absorbs transient
// failures through its own retry loop, so remaining errors are only
// logged here.
func (m *Manager) refreshNow() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if _, err := m.RefreshToken(ctx); err != nil {
		kind, _ := gql.KindOf(err)
		m.logger.Warn("scheduled token refresh failed",
			slog.String("kind", kind.String()),
			slog.String("error", err.Error()),
		)
	}
}
