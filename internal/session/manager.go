// Package session owns the authenticated session for the process: login,
// logout, token validation, and proactive refresh against the Worlds
// GraphQL API. One Manager is constructed at startup and injected into
// consumers; it is safe for concurrent use.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/tidegate/worldctl/internal/gql"
	"github.com/tidegate/worldctl/internal/tokenstore"
)

// Credential length floors enforced before any network call.
const (
	minUsernameLen = 3
	minPasswordLen = 6
)

// Manager composes the transport, retry engine, token store, and refresh
// scheduler into the session contract the CLI consumes. The {token, user}
// pair is mutated only through Login, Logout, RefreshToken, and external
// store notifications, never by callers directly.
type Manager struct {
	client       *gql.Client
	store        *tokenstore.Store
	retrier      *gql.Retrier
	logger       *slog.Logger
	refreshAfter time.Duration

	// Concurrent logins or refreshes share one in-flight call instead of
	// racing on session state.
	flight singleflight.Group

	mu           sync.Mutex
	token        string
	user         *User
	refreshTimer *time.Timer

	// afterFunc schedules the deferred refresh. Defaults to time.AfterFunc.
	// Tests override this to fire timers deterministically.
	afterFunc func(d time.Duration, f func()) *time.Timer
}

// NewManager creates the session manager. refreshAfter is the delay from
// token issuance to the scheduled refresh.
func NewManager(
	client *gql.Client,
	store *tokenstore.Store,
	retrier *gql.Retrier,
	refreshAfter time.Duration,
	logger *slog.Logger,
) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		client:       client,
		store:        store,
		retrier:      retrier,
		logger:       logger,
		refreshAfter: refreshAfter,
		afterFunc:    time.AfterFunc,
	}
}

// Resume loads the persisted token into the session without validating
// it. An absent token means logged out and is not an error.
func (m *Manager) Resume() error {
	tok, err := m.store.Load()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.token = tok
	m.mu.Unlock()

	return nil
}

// Token returns the current session token, or "" when logged out.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.token
}

// CurrentUser returns the user from the last successful login, or nil.
func (m *Manager) CurrentUser() *User {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.user
}

// IsAuthenticated reports whether a session token is held.
func (m *Manager) IsAuthenticated() bool {
	return m.Token() != ""
}

// validateCredentials enforces the length floors. Failures classify as
// Validation and never reach the network.
func validateCredentials(username, password string) error {
	if utf8.RuneCountInString(username) < minUsernameLen {
		return gql.Errorf(gql.KindValidation, "username must be at least %d characters", minUsernameLen)
	}

	if utf8.RuneCountInString(password) < minPasswordLen {
		return gql.Errorf(gql.KindValidation, "password must be at least %d characters", minPasswordLen)
	}

	return nil
}

// loginResult carries the outcome of one shared login flight.
type loginResult struct {
	token string
	user  *User
}

// Login authenticates with the given credentials. On success the token is
// persisted, session state is set, a refresh is scheduled, and the user is
// returned. Concurrent callers join the in-flight login.
func (m *Manager) Login(ctx context.Context, username, password string) (*User, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	v, err, _ := m.flight.Do("login", func() (any, error) {
		return m.doLogin(ctx, username, password)
	})
	if err != nil {
		return nil, err
	}

	res := v.(*loginResult)

	return res.user, nil
}

// doLogin runs the retry-wrapped login sequence: Login mutation, then Me
// with the fresh token. A non-retryable failure anywhere in the sequence
// (bad credentials, invalid token) aborts the whole retry loop.
func (m *Manager) doLogin(ctx context.Context, username, password string) (*loginResult, error) {
	res, err := gql.DoValue(ctx, m.retrier, "Login", func(ctx context.Context) (*loginResult, error) {
		data, err := m.client.Do(ctx, "Login", loginMutation, map[string]any{
			"username": username,
			"password": password,
		}, "")
		if err != nil {
			return nil, err
		}

		var payload struct {
			Login struct {
				Token string `json:"token"`
			} `json:"login"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, &gql.Error{Kind: gql.KindNetwork, Message: "decoding login payload", Err: err}
		}

		if payload.Login.Token == "" {
			return nil, gql.Errorf(gql.KindInvalidCredentials, "login response missing token")
		}

		user, err := m.fetchUser(ctx, payload.Login.Token)
		if err != nil {
			return nil, err
		}

		return &loginResult{token: payload.Login.Token, user: user}, nil
	})
	if err != nil {
		return nil, err
	}

	if saveErr := m.store.Save(res.token); saveErr != nil {
		// The session is live server-side; losing persistence only costs a
		// re-login after restart.
		m.logger.Warn("failed to persist session token", slog.String("error", saveErr.Error()))
	}

	m.mu.Lock()
	m.token = res.token
	m.user = res.user
	m.mu.Unlock()

	m.scheduleRefresh()

	m.logger.Info("login successful",
		slog.String("user_id", res.user.ID),
		slog.String("email", res.user.Email),
	)

	return res, nil
}

// Logout invalidates the session server-side, cancels the pending
// refresh, and clears local state. Calling Logout with no session is a
// no-op.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()

	if token == "" {
		m.logger.Info("logout: no session (already logged out)")

		return nil
	}

	err := m.retrier.Do(ctx, "Logout", func(ctx context.Context) error {
		_, doErr := m.client.Do(ctx, "Logout", logoutMutation, nil, token)

		return doErr
	})
	if err != nil {
		if _, classified := gql.KindOf(err); !classified {
			err = &gql.Error{Kind: gql.KindGeneric, Message: "logout failed", Err: err}
		}

		return err
	}

	m.cancelRefresh()
	m.clearLocal()

	m.logger.Info("logout successful")

	return nil
}

// fetchUser runs the Me query with the given token and normalizes the
// response.
func (m *Manager) fetchUser(ctx context.Context, token string) (*User, error) {
	data, err := m.client.Do(ctx, "Me", meQuery, nil, token)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Me userResponse `json:"me"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &gql.Error{Kind: gql.KindNetwork, Message: "decoding user payload", Err: err}
	}

	return payload.Me.toUser()
}

// FetchUser fetches the current user with the session token, retry-wrapped.
func (m *Manager) FetchUser(ctx context.Context) (*User, error) {
	token := m.Token()

	user, err := gql.DoValue(ctx, m.retrier, "Me", func(ctx context.Context) (*User, error) {
		return m.fetchUser(ctx, token)
	})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.user = user
	m.mu.Unlock()

	return user, nil
}

// RefreshToken exchanges the current token for a fresh one, persists it,
// and reschedules the deferred refresh. Concurrent callers join the
// in-flight refresh. A TokenExpired or TokenInvalid failure tears the
// local session down — the token is beyond saving.
func (m *Manager) RefreshToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()

	if token == "" {
		return "", gql.Errorf(gql.KindTokenRefreshFailed, "no session to refresh")
	}

	v, err, _ := m.flight.Do("refresh", func() (any, error) {
		return m.doRefresh(ctx, token)
	})
	if err != nil {
		if gql.HasKind(err, gql.KindTokenExpired) || gql.HasKind(err, gql.KindTokenInvalid) {
			m.teardown()
		}

		return "", err
	}

	return v.(string), nil
}

func (m *Manager) doRefresh(ctx context.Context, token string) (string, error) {
	newToken, err := gql.DoValue(ctx, m.retrier, "RefreshToken", func(ctx context.Context) (string, error) {
		data, doErr := m.client.Do(ctx, "RefreshToken", refreshMutation, nil, token)
		if doErr != nil {
			return "", doErr
		}

		var payload struct {
			RefreshToken struct {
				Token string `json:"token"`
			} `json:"refreshToken"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return "", &gql.Error{Kind: gql.KindNetwork, Message: "decoding refresh payload", Err: err}
		}

		if payload.RefreshToken.Token == "" {
			return "", gql.Errorf(gql.KindTokenRefreshFailed, "refresh response missing token")
		}

		return payload.RefreshToken.Token, nil
	})
	if err != nil {
		return "", err
	}

	if saveErr := m.store.Save(newToken); saveErr != nil {
		m.logger.Warn("failed to persist refreshed token", slog.String("error", saveErr.Error()))
	}

	m.mu.Lock()
	m.token = newToken
	m.mu.Unlock()

	m.scheduleRefresh()

	m.logger.Info("token refreshed")

	return newToken, nil
}

// ValidateToken checks the given token against the API. It never returns
// an error: every failure mode collapses to false. A failure classified
// TokenExpired or TokenInvalid additionally clears the persisted token so
// the next start forces a re-login.
func (m *Manager) ValidateToken(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	valid, err := gql.DoValue(ctx, m.retrier, "ValidateToken", func(ctx context.Context) (bool, error) {
		data, doErr := m.client.Do(ctx, "ValidateToken", validateQuery, nil, token)
		if doErr != nil {
			return false, doErr
		}

		var payload struct {
			ValidateToken bool `json:"validateToken"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return false, &gql.Error{Kind: gql.KindNetwork, Message: "decoding validate payload", Err: err}
		}

		return payload.ValidateToken, nil
	})
	if err != nil {
		m.logger.Warn("token validation failed", slog.String("error", err.Error()))

		if gql.HasKind(err, gql.KindTokenExpired) || gql.HasKind(err, gql.KindTokenInvalid) {
			m.teardown()
		}

		return false
	}

	return valid
}

// clearLocal drops the in-memory session and the persisted token.
func (m *Manager) clearLocal() {
	if err := m.store.Clear(); err != nil {
		m.logger.Warn("failed to clear persisted token", slog.String("error", err.Error()))
	}

	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.mu.Unlock()
}

// teardown forces the local session down after an unrecoverable token
// failure: cancel the pending refresh and clear state. The server-side
// session is already dead.
func (m *Manager) teardown() {
	m.cancelRefresh()
	m.clearLocal()
	m.logger.Info("session torn down after unrecoverable token failure")
}

// Watch subscribes to external token-store changes and applies them to
// the in-memory session. An externally written token is treated as
// authoritative and is not re-validated; an external clear tears the
// session down. The goroutine exits when ctx is canceled.
func (m *Manager) Watch(ctx context.Context) error {
	ch, err := m.store.Watch(ctx)
	if err != nil {
		return err
	}

	go func() {
		for tok := range ch {
			m.applyExternalToken(tok)
		}
	}()

	return nil
}

// applyExternalToken updates session state from an external store change.
func (m *Manager) applyExternalToken(tok string) {
	m.mu.Lock()
	if tok == m.token {
		m.mu.Unlock()

		return
	}

	m.token = tok
	cleared := tok == ""
	if cleared {
		m.user = nil
		m.stopTimerLocked()
	}
	m.mu.Unlock()

	if cleared {
		m.logger.Info("session cleared by external store change")
	} else {
		m.logger.Info("session token updated by external store change")
	}
}
