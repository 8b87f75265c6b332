package session

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// timerRecorder replaces the manager's afterFunc so tests control when
// the scheduled refresh fires.
type timerRecorder struct {
	mu        sync.Mutex
	scheduled int
	delays    []time.Duration
	callback  func()
}

func (r *timerRecorder) install(m *Manager) {
	m.afterFunc = func(d time.Duration, f func()) *time.Timer {
		r.mu.Lock()
		defer r.mu.Unlock()

		r.scheduled++
		r.delays = append(r.delays, d)
		r.callback = f

		// A far-future timer stands in for the real schedule; the test
		// fires the callback directly.
		return time.AfterFunc(time.Hour, func() {})
	}
}

func (r *timerRecorder) fire() {
	r.mu.Lock()
	cb := r.callback
	r.mu.Unlock()

	cb()
}

func (r *timerRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.scheduled
}

func TestScheduledRefresh_FiresAndReschedules(t *testing.T) {
	api := newFakeAPI(t)
	api.respond("Login", loginOK)
	api.respond("Me", meOK)
	api.respond("RefreshToken", refreshOK)

	m, store := newTestManager(t, api)

	rec := &timerRecorder{}
	rec.install(m)

	_, err := m.Login(context.Background(), "admin", "hunter2secret")
	require.NoError(t, err)
	require.Equal(t, 1, rec.count())
	assert.Equal(t, []time.Duration{time.Hour}, rec.delays)

	rec.fire()

	// The fired refresh persisted the new token and rescheduled.
	assert.Equal(t, "new123", m.Token())
	assert.Equal(t, 2, rec.count())

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "new123", saved)
}

func TestScheduledRefresh_ExpiredTokenForcesRelogin(t *testing.T) {
	api := newFakeAPI(t)
	api.respond("Login", loginOK)
	api.respond("Me", meOK)
	api.respond("RefreshToken", `{"errors":[{"message":"token expired"}]}`)

	m, store := newTestManager(t, api)

	rec := &timerRecorder{}
	rec.install(m)

	_, err := m.Login(context.Background(), "admin", "hunter2secret")
	require.NoError(t, err)

	rec.fire()

	// Unrecoverable token failure during scheduled refresh clears the
	// persisted token so the next start forces a re-login.
	assert.False(t, m.IsAuthenticated())
	assert.False(t, m.refreshPending())

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, saved)

	// No reschedule after teardown.
	assert.Equal(t, 1, rec.count())
}

func TestScheduledRefresh_TransientFailureLoggedOnly(t *testing.T) {
	api := newFakeAPI(t)
	api.respond("Login", loginOK)
	api.respond("Me", meOK)
	api.on("RefreshToken", func(map[string]any, string) (int, string) {
		return http.StatusServiceUnavailable, `down`
	})

	m, _ := newTestManager(t, api)

	rec := &timerRecorder{}
	rec.install(m)

	_, err := m.Login(context.Background(), "admin", "hunter2secret")
	require.NoError(t, err)

	rec.fire()

	// The refresh call's own retry budget was spent; the scheduler does
	// not retry further and the session stays up with the old token.
	assert.Equal(t, 3, api.count("RefreshToken"))
	assert.True(t, m.IsAuthenticated())
	assert.Equal(t, "tok123", m.Token())
}

func TestScheduleRefresh_AtMostOnePending(t *testing.T) {
	api := newFakeAPI(t)
	api.respond("Login", loginOK)
	api.respond("Me", meOK)

	m, _ := newTestManager(t, api)

	// Two logins: the second schedule replaces the first timer.
	_, err := m.Login(context.Background(), "admin", "hunter2secret")
	require.NoError(t, err)

	_, err = m.Login(context.Background(), "admin", "hunter2secret")
	require.NoError(t, err)

	assert.True(t, m.refreshPending())

	m.cancelRefresh()
	assert.False(t, m.refreshPending())

	// Cancelling twice is harmless.
	m.cancelRefresh()
}
