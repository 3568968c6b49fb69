package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dsavelev/speakerportal/internal/client/api"
	"github.com/dsavelev/speakerportal/internal/client/config"
	"github.com/dsavelev/speakerportal/internal/client/models"
	"github.com/dsavelev/speakerportal/internal/client/notifications"
	"github.com/dsavelev/speakerportal/internal/client/session"
	"github.com/dsavelev/speakerportal/internal/logging"
)

// apiStub implements api.Client for App command tests.
type apiStub struct {
	mfaEnabled bool
	user       *models.User
	loginErr   error

	registerMsg   string
	registerErr   error
	registerCalls int
	lastReg       models.Registration

	items []models.Notification
	prefs models.Preferences

	lastPrefs *models.Preferences
}

func (s *apiStub) Login(ctx context.Context, email, password, mfaCode string) (*api.LoginResult, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	if s.mfaEnabled && mfaCode == "" {
		return &api.LoginResult{MFARequired: true}, nil
	}
	return &api.LoginResult{User: s.user}, nil
}

func (s *apiStub) Register(ctx context.Context, reg models.Registration) (string, error) {
	s.registerCalls++
	s.lastReg = reg
	return s.registerMsg, s.registerErr
}

func (s *apiStub) Logout(ctx context.Context) error                  { return nil }
func (s *apiStub) Profile(ctx context.Context) (*models.User, error) { return s.user, nil }

func (s *apiStub) Notifications(ctx context.Context, unreadOnly bool) ([]models.Notification, int, error) {
	items := s.items
	if unreadOnly {
		items = nil
		for _, n := range s.items {
			if !n.IsRead {
				items = append(items, n)
			}
		}
	}
	return items, 0, nil
}

func (s *apiStub) MarkNotificationRead(ctx context.Context, id int) error { return nil }
func (s *apiStub) MarkAllNotificationsRead(ctx context.Context) error     { return nil }
func (s *apiStub) DeleteNotification(ctx context.Context, id int) error   { return nil }
func (s *apiStub) Preferences(ctx context.Context) (*models.Preferences, error) {
	return &s.prefs, nil
}
func (s *apiStub) UpdatePreferences(ctx context.Context, prefs models.Preferences) error {
	s.lastPrefs = &prefs
	return nil
}
func (s *apiStub) HasSession() bool                      { return false }
func (s *apiStub) AccessToken() string                   { return "" }
func (s *apiStub) ClearTokens(ctx context.Context) error { return nil }

func stubPasswords(t *testing.T, passwords ...string) {
	t.Helper()
	orig := readPassword
	i := 0
	readPassword = func(fd int) ([]byte, error) {
		pw := passwords[i%len(passwords)]
		i++
		return []byte(pw), nil
	}
	t.Cleanup(func() { readPassword = orig })
}

func newTestApp(t *testing.T, stub *apiStub, input string) (*App, *bytes.Buffer) {
	t.Helper()
	log := logging.NewTextLogger(io.Discard, slog.LevelDebug)
	cfg := &config.Config{PollInterval: time.Hour, RequestTimeout: time.Second}

	out := &bytes.Buffer{}
	app := &App{
		config:   cfg,
		session:  session.NewManager(stub, log),
		notifier: notifications.NewReconciler(stub, log),
		reader:   bufio.NewReader(strings.NewReader(input)),
		out:      out,
	}
	t.Cleanup(app.stopPolling)
	return app, out
}

func speaker() *models.User {
	return &models.User{
		ID: 1, Email: "a@b.com", FirstName: "Jane", LastName: "Doe",
		Roles: []models.Role{{ID: 1, Name: models.RoleSpeaker}},
	}
}

func TestAppLogin_SuccessStartsPolling(t *testing.T) {
	stub := &apiStub{user: speaker()}
	stubPasswords(t, "secret1")
	app, out := newTestApp(t, stub, "a@b.com\n")

	require.NoError(t, app.Login(context.Background()))
	require.Contains(t, out.String(), "Logged in as a@b.com (speaker)")
	require.Equal(t, session.StateAuthenticated, app.session.State())

	app.pollMu.Lock()
	started := app.pollCancel != nil
	app.pollMu.Unlock()
	require.True(t, started)
}

func TestAppLogin_MFAPromptsForCode(t *testing.T) {
	stub := &apiStub{user: speaker(), mfaEnabled: true}
	stubPasswords(t, "secret1")
	app, out := newTestApp(t, stub, "a@b.com\n123456\n")

	require.NoError(t, app.Login(context.Background()))
	require.Contains(t, out.String(), "Enter MFA code")
	require.Equal(t, session.StateAuthenticated, app.session.State())
}

func TestAppLogin_FailurePrintsMessage(t *testing.T) {
	stub := &apiStub{loginErr: &api.ServerError{Status: 401, Message: "Invalid email or password"}}
	stubPasswords(t, "wrong")
	app, out := newTestApp(t, stub, "a@b.com\n")

	require.NoError(t, app.Login(context.Background()))
	require.Contains(t, out.String(), "Login failed: Invalid email or password")
	require.Equal(t, session.StateAnonymous, app.session.State())
}

func TestAppLogin_MissingUserInResponse(t *testing.T) {
	// a 200 login whose body carries no user record must not authenticate,
	// start polling, or panic while printing roles
	stub := &apiStub{}
	stubPasswords(t, "secret1")
	app, out := newTestApp(t, stub, "a@b.com\n")

	require.NoError(t, app.Login(context.Background()))
	require.Contains(t, out.String(), "Login failed:")
	require.Equal(t, session.StateAnonymous, app.session.State())

	app.pollMu.Lock()
	started := app.pollCancel != nil
	app.pollMu.Unlock()
	require.False(t, started)
}

func TestAppLogout_StopsPolling(t *testing.T) {
	stub := &apiStub{user: speaker()}
	stubPasswords(t, "secret1")
	app, _ := newTestApp(t, stub, "a@b.com\n")

	require.NoError(t, app.Login(context.Background()))
	require.NoError(t, app.Logout(context.Background()))
	require.Equal(t, session.StateAnonymous, app.session.State())

	app.pollMu.Lock()
	stopped := app.pollCancel == nil
	app.pollMu.Unlock()
	require.True(t, stopped)
}

func TestAppRegister_PasswordMismatchBlocksSubmission(t *testing.T) {
	stub := &apiStub{}
	stubPasswords(t, "secret1", "different")
	app, out := newTestApp(t, stub, "a@b.com\n")

	require.ErrorIs(t, app.Register(context.Background()), api.ErrValidation)
	require.Contains(t, out.String(), "Passwords do not match")
	require.Zero(t, stub.registerCalls)
}

func TestAppRegister_SubmitsProfileFields(t *testing.T) {
	stub := &apiStub{registerMsg: "Check your inbox"}
	stubPasswords(t, "secret1")
	app, out := newTestApp(t, stub, "a@b.com\nJane\nDoe\nAcme\n\n\n")

	require.NoError(t, app.Register(context.Background()))
	require.Contains(t, out.String(), "Check your inbox")
	require.Equal(t, 1, stub.registerCalls)
	require.Equal(t, "a@b.com", stub.lastReg.Email)
	require.Equal(t, "Jane", stub.lastReg.FirstName)
	require.Equal(t, "Doe", stub.lastReg.LastName)
	require.Equal(t, "Acme", stub.lastReg.Organization)
	require.Empty(t, stub.lastReg.Phone)
}

func TestAppInbox_ListsAndCounts(t *testing.T) {
	stub := &apiStub{items: []models.Notification{
		{ID: 1, Type: models.NotificationSessionStatus, Title: "Approved", Priority: models.PriorityUrgent},
		{ID: 2, Type: models.NotificationScheduleUpdate, Title: "Moved", IsRead: true},
	}}
	app, out := newTestApp(t, stub, "")

	require.NoError(t, app.Inbox(context.Background(), nil))
	require.Contains(t, out.String(), "Approved")
	require.Contains(t, out.String(), "[urgent]")
	require.Contains(t, out.String(), "1 unread")
}

func TestAppInbox_UnreadOnly(t *testing.T) {
	stub := &apiStub{items: []models.Notification{
		{ID: 1, Title: "Approved"},
		{ID: 2, Title: "Moved", IsRead: true},
	}}
	app, out := newTestApp(t, stub, "")

	require.NoError(t, app.Inbox(context.Background(), []string{"unread"}))
	require.Contains(t, out.String(), "Approved")
	require.NotContains(t, out.String(), "Moved")
}

func TestAppMarkRead_BadArgs(t *testing.T) {
	app, out := newTestApp(t, &apiStub{}, "")

	require.Error(t, app.MarkRead(context.Background(), nil))
	require.Contains(t, out.String(), "Usage: read <id>")

	require.Error(t, app.MarkRead(context.Background(), []string{"abc"}))
}

func TestAppWhoami_Anonymous(t *testing.T) {
	app, out := newTestApp(t, &apiStub{}, "")

	require.NoError(t, app.Whoami(context.Background()))
	require.Contains(t, out.String(), "Not logged in")
}

func TestAppPrefs_SetFlag(t *testing.T) {
	stub := &apiStub{prefs: models.Preferences{EmailEnabled: true}}
	app, _ := newTestApp(t, stub, "")

	require.NoError(t, app.Prefs(context.Background(), []string{"set", "sessions", "on"}))
	require.NotNil(t, stub.lastPrefs)
	require.True(t, stub.lastPrefs.EmailEnabled)
	require.True(t, stub.lastPrefs.EmailSessionUpdates)
}

func TestAppPrefs_Show(t *testing.T) {
	stub := &apiStub{prefs: models.Preferences{EmailEnabled: true}}
	app, out := newTestApp(t, stub, "")

	require.NoError(t, app.Prefs(context.Background(), nil))
	require.Contains(t, out.String(), "email: on")
	require.Contains(t, out.String(), "sessions: off")
}
