// Package api implements the REST client for the speaker-portal backend.
// It owns the in-memory access/refresh token pair, mirrors every change to
// the tokens repository, and transparently refreshes an expired access
// token on 401, retrying the original request exactly once.
package api

import (
	"context"

	"github.com/dsavelev/speakerportal/internal/client/models"
)

// LoginResult is the outcome of a successful POST /auth/login exchange.
// When the account has MFA enabled and no code was supplied, MFARequired is
// set and no tokens were issued; the caller must retry with a code.
type LoginResult struct {
	MFARequired bool
	User        *models.User
}

// Client is the portal API surface the services build on. Implementations
// attach Authorization: Bearer <access token> to every call below except
// Login and Register.
type Client interface {
	Login(ctx context.Context, email, password, mfaCode string) (*LoginResult, error)
	Register(ctx context.Context, reg models.Registration) (string, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*models.User, error)

	Notifications(ctx context.Context, unreadOnly bool) ([]models.Notification, int, error)
	MarkNotificationRead(ctx context.Context, id int) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id int) error
	Preferences(ctx context.Context) (*models.Preferences, error)
	UpdatePreferences(ctx context.Context, prefs models.Preferences) error

	// HasSession reports whether an access token is currently held.
	HasSession() bool
	// AccessToken returns the current access token ("" when anonymous).
	AccessToken() string
	// ClearTokens drops the token pair from memory and from the store.
	ClearTokens(ctx context.Context) error
}

// SessionHooks lets an observer follow the client's transparent refresh
// lifecycle. The session layer reacts to refresh outcomes through these
// callbacks, keeping the request layer free of UI concerns.
type SessionHooks interface {
	// RefreshStarted fires when a 401 triggered a token refresh.
	RefreshStarted()
	// RefreshFinished fires with the refresh outcome. ok=false means the
	// token pair has been cleared.
	RefreshFinished(ok bool)
}
