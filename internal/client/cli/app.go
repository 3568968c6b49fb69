// Package cli is the interactive REPL front end of the portal client. It is
// display glue only: every operation below delegates to the session manager
// or the notification reconciler.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/dsavelev/speakerportal/internal/client/api"
	"github.com/dsavelev/speakerportal/internal/client/config"
	"github.com/dsavelev/speakerportal/internal/client/notifications"
	"github.com/dsavelev/speakerportal/internal/client/session"
	"github.com/dsavelev/speakerportal/internal/client/storage"
	"github.com/dsavelev/speakerportal/internal/logging"
)

// App wires the client components together and carries the REPL's I/O.
type App struct {
	config   *config.Config
	session  *session.Manager
	notifier *notifications.Reconciler
	db       *sql.DB

	reader *bufio.Reader
	out    io.Writer

	pollMu     sync.Mutex
	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

// NewApp opens the local database, builds the REST client with the persisted
// token pair, and wires the session manager and notification reconciler.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.NewTextLogger(os.Stderr, slog.LevelWarn)

	repos, db, err := storage.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	client, err := api.NewRESTClient(ctx, c.APIBaseURL, c.RequestTimeout, repos.Tokens, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	mgr := session.NewManager(client, log)
	client.SetHooks(mgr)

	return &App{
		config:   c,
		session:  mgr,
		notifier: notifications.NewReconciler(client, log),
		db:       db,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}, nil
}

// Run restores any persisted session, then hands control to the REPL.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	if a.session.Restore(ctx) {
		printlnFn("Welcome back,", a.session.User().Email)
		a.startPolling(ctx)
	}

	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
}

// Close stops the poller and releases the database.
func (a *App) Close() {
	a.stopPolling()
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.State() != session.StateAnonymous
}

func (a *App) status() string {
	u := a.session.User()
	if u == nil {
		return ""
	}
	s := u.Email
	if n := a.notifier.UnreadCount(); n > 0 {
		s += " ✉"
	}
	return "(" + s + ")"
}

// startPolling launches the notification poller for the current session.
// At most one poller runs at a time; a second call is a no-op until
// stopPolling has been seen.
func (a *App) startPolling(ctx context.Context) {
	a.pollMu.Lock()
	defer a.pollMu.Unlock()
	if a.pollCancel != nil {
		return
	}

	pollCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.pollCancel = cancel
	a.pollDone = done

	go func() {
		defer close(done)
		a.notifier.Run(pollCtx, a.config.PollInterval)
	}()
}

// stopPolling cancels the poller and waits for it to exit, so no refresh can
// land after the session it belonged to is gone.
func (a *App) stopPolling() {
	a.pollMu.Lock()
	cancel, done := a.pollCancel, a.pollDone
	a.pollCancel, a.pollDone = nil, nil
	a.pollMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
