// Package notifications keeps a local projection of the user's server-side
// notifications fresh and applies optimistic local edits. Mutations update
// the local state before the server call resolves so the UI never waits on
// the network; a failed call reverts the optimistic change, so the local
// state only ever diverges from the server between polls, never because of a
// known-failed mutation.
package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/dsavelev/speakerportal/internal/client/api"
	"github.com/dsavelev/speakerportal/internal/client/models"
	"github.com/dsavelev/speakerportal/internal/logging"
)

// Reconciler owns the local notification list and its unread counter.
// The counter always equals the number of locally known unread items: every
// mutation adjusts both under the same lock.
type Reconciler struct {
	client api.Client
	log    logging.Logger

	mu     sync.Mutex
	items  []models.Notification
	unread int
}

func NewReconciler(client api.Client, log logging.Logger) *Reconciler {
	return &Reconciler{
		client: client,
		log:    log.With("component", "notifications"),
	}
}

// Snapshot returns a copy of the current projection and the unread count.
func (r *Reconciler) Snapshot() ([]models.Notification, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]models.Notification, len(r.items))
	copy(items, r.items)
	return items, r.unread
}

func (r *Reconciler) UnreadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unread
}

func countUnread(items []models.Notification) int {
	n := 0
	for _, it := range items {
		if !it.IsRead {
			n++
		}
	}
	return n
}

// Refresh replaces the projection wholesale with the server's snapshot.
// The unread counter is recomputed from the list rather than trusted from
// the response, so the invariant holds even against a miscounting backend.
func (r *Reconciler) Refresh(ctx context.Context) error {
	items, reported, err := r.client.Notifications(ctx, false)
	if err != nil {
		return err
	}

	unread := countUnread(items)
	if reported != unread {
		r.log.Debug(ctx, "server unread_count disagrees with list", "reported", reported, "counted", unread)
	}

	r.mu.Lock()
	r.items = items
	r.unread = unread
	r.mu.Unlock()

	r.log.Debug(ctx, "notifications reconciled", "count", len(items), "unread", unread)
	return nil
}

func (r *Reconciler) indexOf(id int) int {
	for i := range r.items {
		if r.items[i].ID == id {
			return i
		}
	}
	return -1
}

// MarkRead flags the notification read, decrementing the unread counter only
// if it was previously unread, then confirms with the server. On server
// failure the optimistic edit is reverted and the error returned. The revert
// only applies while the edit is still visible: a poll that reconciled in
// between already restored server truth, and reverting on top of it would
// double-count.
func (r *Reconciler) MarkRead(ctx context.Context, id int) error {
	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		return nil
	}
	wasUnread := !r.items[i].IsRead
	r.items[i].IsRead = true
	if wasUnread && r.unread > 0 {
		r.unread--
	}
	r.mu.Unlock()

	if err := r.client.MarkNotificationRead(ctx, id); err != nil {
		r.mu.Lock()
		if j := r.indexOf(id); j >= 0 && wasUnread && r.items[j].IsRead {
			r.items[j].IsRead = false
			r.unread++
		}
		r.mu.Unlock()
		r.log.Warn(ctx, "mark-read failed, reverted", "id", id, "err", err)
		return err
	}
	return nil
}

// MarkAllRead flags everything read and zeroes the counter, then confirms
// with the server. On failure the previous read flags are restored for items
// still present and the counter recomputed.
func (r *Reconciler) MarkAllRead(ctx context.Context) error {
	r.mu.Lock()
	before := make(map[int]bool, len(r.items))
	for i := range r.items {
		before[r.items[i].ID] = r.items[i].IsRead
		r.items[i].IsRead = true
	}
	r.unread = 0
	r.mu.Unlock()

	if err := r.client.MarkAllNotificationsRead(ctx); err != nil {
		r.mu.Lock()
		for i := range r.items {
			if wasRead, ok := before[r.items[i].ID]; ok {
				r.items[i].IsRead = wasRead
			}
		}
		r.unread = countUnread(r.items)
		r.mu.Unlock()
		r.log.Warn(ctx, "mark-all-read failed, reverted", "err", err)
		return err
	}
	return nil
}

// Delete removes the notification locally, adjusting the counter if it was
// unread, then confirms with the server. Deleting an unknown id is a no-op
// and makes no server call. On failure the item is restored at its old
// position.
func (r *Reconciler) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		return nil
	}
	removed := r.items[i]
	r.items = append(r.items[:i], r.items[i+1:]...)
	if !removed.IsRead && r.unread > 0 {
		r.unread--
	}
	r.mu.Unlock()

	if err := r.client.DeleteNotification(ctx, id); err != nil {
		r.mu.Lock()
		if r.indexOf(id) < 0 {
			at := i
			if at > len(r.items) {
				at = len(r.items)
			}
			r.items = append(r.items[:at], append([]models.Notification{removed}, r.items[at:]...)...)
			if !removed.IsRead {
				r.unread++
			}
		}
		r.mu.Unlock()
		r.log.Warn(ctx, "delete failed, restored", "id", id, "err", err)
		return err
	}
	return nil
}

// FetchUnread returns the server's unread-only view. It is a display-only
// query and does not touch the local projection.
func (r *Reconciler) FetchUnread(ctx context.Context) ([]models.Notification, error) {
	items, _, err := r.client.Notifications(ctx, true)
	return items, err
}

// Preferences fetches the user's notification preference flags.
func (r *Reconciler) Preferences(ctx context.Context) (*models.Preferences, error) {
	return r.client.Preferences(ctx)
}

// UpdatePreferences replaces the user's notification preference flags.
func (r *Reconciler) UpdatePreferences(ctx context.Context, prefs models.Preferences) error {
	return r.client.UpdatePreferences(ctx, prefs)
}

// Run polls the server at the given interval until ctx is cancelled. An
// initial refresh happens immediately. Fetches run inline in the loop, so a
// fetch slower than the interval skips ticks instead of overlapping itself.
// Poll failures are logged and leave the projection unchanged; they never
// surface to the user. Each Run owns exactly one ticker and stops it on
// return, so repeated start/stop cannot leak timers.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	if err := r.Refresh(ctx); err != nil {
		r.log.Warn(ctx, "notification poll failed", "err", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				r.log.Warn(ctx, "notification poll failed", "err", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
