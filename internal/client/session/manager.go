// Package session owns the answer to "who is the current user". The Manager
// is a constructed instance, passed explicitly to whoever needs it; there is
// no package-level session state.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dsavelev/speakerportal/internal/client/api"
	"github.com/dsavelev/speakerportal/internal/client/models"
	"github.com/dsavelev/speakerportal/internal/logging"
)

// State is the session lifecycle state.
type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
	StateRefreshing     State = "refreshing"
)

// NetworkErrorMessage is shown for transport-level login/register failures.
const NetworkErrorMessage = "Network error. Please try again."

// LoginOutcome is the structured result of a login attempt. Expected auth
// failures land in Err, not in an error return: a wrong password is a normal
// outcome, not an exception.
type LoginOutcome struct {
	Success     bool
	MFARequired bool
	User        *models.User
	Err         string
}

// RegisterOutcome mirrors the registration response. Registration never
// authenticates; it is a separate step from login.
type RegisterOutcome struct {
	Success bool
	Message string
	Err     string
}

// Manager tracks the session state machine and exposes role-derived
// authorization queries. It implements api.SessionHooks so the client's
// transparent token refreshes move the state through REFRESHING.
type Manager struct {
	client api.Client
	log    logging.Logger

	mu    sync.RWMutex
	state State
	user  *models.User
}

func NewManager(client api.Client, log logging.Logger) *Manager {
	return &Manager{
		client: client,
		log:    log.With("component", "session"),
		state:  StateAnonymous,
	}
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// User returns the current identity, nil when unauthenticated. The user is
// non-nil exactly when the session is authenticated and the profile fetch
// succeeded.
func (m *Manager) User() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

func (m *Manager) setSession(state State, user *models.User) {
	m.mu.Lock()
	m.state = state
	m.user = user
	m.mu.Unlock()
}

// Login authenticates against the portal. With mfaCode empty and MFA enabled
// on the account, the outcome has MFARequired set and the session stays
// anonymous; the caller re-invokes with a code. Transport and auth failures
// are reported in the outcome, which leaves the state unchanged at anonymous.
func (m *Manager) Login(ctx context.Context, email, password, mfaCode string) LoginOutcome {
	m.setSession(StateAuthenticating, nil)

	res, err := m.client.Login(ctx, email, password, mfaCode)
	if err != nil {
		m.setSession(StateAnonymous, nil)
		return LoginOutcome{Err: loginError(err)}
	}

	if res.MFARequired {
		m.setSession(StateAnonymous, nil)
		return LoginOutcome{MFARequired: true}
	}

	// a 2xx login without a user record is malformed; authenticating on it
	// would break the user-non-nil-iff-authenticated invariant
	if res.User == nil {
		m.setSession(StateAnonymous, nil)
		m.log.Warn(ctx, "login response missing user")
		return LoginOutcome{Err: "Unexpected server response. Please try again."}
	}

	m.setSession(StateAuthenticated, res.User)
	m.log.Info(ctx, "logged in", "email", email)
	return LoginOutcome{Success: true, User: res.User}
}

func loginError(err error) string {
	if errors.Is(err, api.ErrUnavailable) || errors.Is(err, api.ErrTimeout) {
		return NetworkErrorMessage
	}
	var se *api.ServerError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return err.Error()
}

// Register creates an account. It has no effect on session state.
func (m *Manager) Register(ctx context.Context, reg models.Registration) RegisterOutcome {
	msg, err := m.client.Register(ctx, reg)
	if err != nil {
		return RegisterOutcome{Err: loginError(err)}
	}
	return RegisterOutcome{Success: true, Message: msg}
}

// Logout clears the session unconditionally. It is idempotent and never
// fails; server-side revocation is best effort.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.client.Logout(ctx); err != nil {
		m.log.Warn(ctx, "logout cleanup", "err", err)
	}
	m.setSession(StateAnonymous, nil)
	m.log.Info(ctx, "logged out")
}

// Restore promotes a persisted token pair to an authenticated session by
// fetching the profile (which may transparently refresh an expired access
// token). A failed fetch is not retried: the token is treated as invalid and
// the session is cleared. Returns whether a session was restored.
func (m *Manager) Restore(ctx context.Context) bool {
	if !m.client.HasSession() {
		return false
	}

	user, err := m.client.Profile(ctx)
	if err != nil || user == nil {
		m.log.Warn(ctx, "stored session invalid", "err", err)
		m.Logout(ctx)
		return false
	}

	m.setSession(StateAuthenticated, user)
	m.log.Info(ctx, "session restored", "email", user.Email)
	return true
}

// AccessTokenExpiry reports the exp claim of the current access token, zero
// when anonymous or when the token is opaque.
func (m *Manager) AccessTokenExpiry() time.Time {
	return models.TokenExpiry(m.client.AccessToken())
}

// HasRole reports whether the current user holds the named role; false when
// unauthenticated.
func (m *Manager) HasRole(name string) bool {
	return m.User().HasRole(name)
}

func (m *Manager) IsSpeaker() bool { return m.HasRole(models.RoleSpeaker) }
func (m *Manager) IsManager() bool { return m.HasRole(models.RoleManager) }
func (m *Manager) IsAdmin() bool   { return m.HasRole(models.RoleAdmin) }

// RefreshStarted implements api.SessionHooks.
func (m *Manager) RefreshStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateAuthenticated {
		m.state = StateRefreshing
	}
}

// RefreshFinished implements api.SessionHooks. A failed refresh is terminal:
// the client has already cleared the token pair, so the session drops to
// anonymous without a user.
func (m *Manager) RefreshFinished(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		if m.state == StateRefreshing {
			m.state = StateAuthenticated
		}
		return
	}
	m.state = StateAnonymous
	m.user = nil
}
