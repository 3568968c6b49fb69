package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dsavelev/speakerportal/internal/client/models"
	"github.com/dsavelev/speakerportal/internal/client/repositories/tokens"
	"github.com/dsavelev/speakerportal/internal/logging"
)

// RESTClient is the concrete Client. Token writes are serialized through mu;
// concurrent 401s share one refresh call through the singleflight group, and
// every waiter retries with its result.
type RESTClient struct {
	baseURL string
	http    *http.Client
	store   tokens.Repository
	log     logging.Logger
	hooks   SessionHooks

	mu   sync.RWMutex
	pair models.TokenPair

	refresh singleflight.Group
}

// NewRESTClient builds a client for the backend at baseURL and restores a
// previously persisted token pair from the store. timeout applies to every
// outbound request.
func NewRESTClient(ctx context.Context, baseURL string, timeout time.Duration, store tokens.Repository, log logging.Logger) (*RESTClient, error) {
	pair, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading stored tokens: %w", err)
	}

	return &RESTClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		store:   store,
		log:     log.With("component", "api"),
		pair:    pair,
	}, nil
}

// SetHooks registers a refresh-lifecycle observer. Must be called before the
// client is shared between goroutines.
func (c *RESTClient) SetHooks(h SessionHooks) {
	c.hooks = h
}

func (c *RESTClient) HasSession() bool {
	return c.AccessToken() != ""
}

func (c *RESTClient) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pair.AccessToken
}

func (c *RESTClient) setTokens(ctx context.Context, pair models.TokenPair) error {
	c.mu.Lock()
	c.pair = pair
	c.mu.Unlock()
	if err := c.store.Save(ctx, pair); err != nil {
		return fmt.Errorf("persisting tokens: %w", err)
	}
	return nil
}

func (c *RESTClient) ClearTokens(ctx context.Context) error {
	c.mu.Lock()
	c.pair = models.TokenPair{}
	c.mu.Unlock()
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing tokens: %w", err)
	}
	return nil
}

// send issues a single HTTP request. Transport failures are mapped onto the
// package sentinels so callers can errors.Is them.
func (c *RESTClient) send(ctx context.Context, method, path string, payload []byte, bearer string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%s %s: %w", method, path, ErrTimeout)
		}
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrUnavailable)
	}
	return resp, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// decode consumes the response. Non-2xx bodies are parsed for a structured
// error message; 401 maps onto ErrUnauthorized.
func (c *RESTClient) decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", ErrUnavailable)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if msg := errorMessage(data); msg != "" {
			// carry the message structurally so callers can surface it
			// verbatim, without the sentinel's text glued on
			return fmt.Errorf("%w: %w", &ServerError{Status: resp.StatusCode, Message: msg}, ErrUnauthorized)
		}
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{Status: resp.StatusCode, Message: errorMessage(data)}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func errorMessage(data []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(data, &body)
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}

// do runs an API call. For authenticated calls that come back 401 while a
// token was attached, it refreshes the token pair and retries the original
// request once. A second 401 is returned as-is; the refresh path has already
// cleared the session when it failed.
func (c *RESTClient) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	var bearer string
	if authed {
		bearer = c.AccessToken()
	}

	resp, err := c.send(ctx, method, path, payload, bearer)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && authed && bearer != "" {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		if !c.refreshAccessToken(ctx) {
			return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
		}
		if resp, err = c.send(ctx, method, path, payload, c.AccessToken()); err != nil {
			return err
		}
	}

	return c.decode(resp, out)
}

// refreshAccessToken exchanges the refresh token for a new access token.
// Concurrent callers are coalesced: one exchange happens, everyone gets its
// outcome. Any failure is terminal and clears the stored pair.
func (c *RESTClient) refreshAccessToken(ctx context.Context) bool {
	ok, _, _ := c.refresh.Do("refresh", func() (any, error) {
		return c.exchangeRefreshToken(ctx), nil
	})
	return ok.(bool)
}

func (c *RESTClient) exchangeRefreshToken(ctx context.Context) (ok bool) {
	if c.hooks != nil {
		c.hooks.RefreshStarted()
		defer func() { c.hooks.RefreshFinished(ok) }()
	}

	c.mu.RLock()
	refreshToken := c.pair.RefreshToken
	c.mu.RUnlock()

	if refreshToken == "" {
		_ = c.ClearTokens(ctx)
		return false
	}

	resp, err := c.send(ctx, http.MethodPost, "/auth/refresh", nil, refreshToken)
	if err != nil {
		c.log.Warn(ctx, "token refresh failed", "err", err)
		_ = c.ClearTokens(ctx)
		return false
	}

	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.decode(resp, &body); err != nil || body.AccessToken == "" {
		c.log.Warn(ctx, "token refresh rejected", "err", err)
		_ = c.ClearTokens(ctx)
		return false
	}

	// the backend may or may not rotate the refresh token
	if body.RefreshToken == "" {
		body.RefreshToken = refreshToken
	}
	if err := c.setTokens(ctx, models.TokenPair{AccessToken: body.AccessToken, RefreshToken: body.RefreshToken}); err != nil {
		c.log.Error(ctx, "persisting refreshed tokens", "err", err)
	}
	c.log.Debug(ctx, "access token refreshed")
	return true
}

func (c *RESTClient) Login(ctx context.Context, email, password, mfaCode string) (*LoginResult, error) {
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		MFACode  string `json:"mfa_code,omitempty"`
	}{Email: email, Password: password, MFACode: mfaCode}

	var resp struct {
		MFARequired  bool         `json:"mfa_required"`
		AccessToken  string       `json:"access_token"`
		RefreshToken string       `json:"refresh_token"`
		User         *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &resp, false); err != nil {
		return nil, err
	}

	if resp.MFARequired {
		// no tokens were issued; the caller re-invokes with a code
		return &LoginResult{MFARequired: true}, nil
	}

	if err := c.setTokens(ctx, models.TokenPair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}); err != nil {
		return nil, err
	}
	return &LoginResult{User: resp.User}, nil
}

func (c *RESTClient) Register(ctx context.Context, reg models.Registration) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/register", reg, &resp, false); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Logout tells the server to revoke the session, then drops the local pair.
// The server call is best effort: local state is cleared no matter what.
func (c *RESTClient) Logout(ctx context.Context) error {
	if c.HasSession() {
		if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, true); err != nil {
			c.log.Warn(ctx, "server-side logout failed", "err", err)
		}
	}
	return c.ClearTokens(ctx)
}

func (c *RESTClient) Profile(ctx context.Context) (*models.User, error) {
	var resp struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.User, nil
}

func (c *RESTClient) Notifications(ctx context.Context, unreadOnly bool) ([]models.Notification, int, error) {
	path := "/notifications"
	if unreadOnly {
		path += "?unread_only=true"
	}

	var resp struct {
		Notifications []models.Notification `json:"notifications"`
		UnreadCount   int                   `json:"unread_count"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, true); err != nil {
		return nil, 0, err
	}
	return resp.Notifications, resp.UnreadCount, nil
}

func (c *RESTClient) MarkNotificationRead(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodPost, "/notifications/"+strconv.Itoa(id)+"/read", nil, nil, true)
}

func (c *RESTClient) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/notifications/mark-all-read", nil, nil, true)
}

func (c *RESTClient) DeleteNotification(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/notifications/"+strconv.Itoa(id), nil, nil, true)
}

func (c *RESTClient) Preferences(ctx context.Context) (*models.Preferences, error) {
	var resp struct {
		Preferences *models.Preferences `json:"preferences"`
	}
	if err := c.do(ctx, http.MethodGet, "/notifications/preferences", nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Preferences, nil
}

func (c *RESTClient) UpdatePreferences(ctx context.Context, prefs models.Preferences) error {
	req := struct {
		Preferences models.Preferences `json:"preferences"`
	}{Preferences: prefs}
	return c.do(ctx, http.MethodPut, "/notifications/preferences", req, nil, true)
}
