package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dsavelev/speakerportal/internal/client/models"
)

func notificationLine(n models.Notification) string {
	mark := " "
	if !n.IsRead {
		mark = "*"
	}
	line := fmt.Sprintf("%s %4d  %-20s %s", mark, n.ID, n.Type, n.Title)
	if n.Priority == models.PriorityUrgent {
		line += "  [urgent]"
	}
	return line
}

// Inbox refreshes and lists notifications. "inbox unread" asks the server
// for the unread-only view instead.
func (a *App) Inbox(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] == "unread" {
		items, err := a.notifier.FetchUnread(ctx)
		if err != nil {
			fmt.Fprintln(a.out, "error:", err)
			return err
		}
		if len(items) == 0 {
			fmt.Fprintln(a.out, "No unread notifications")
			return nil
		}
		for _, n := range items {
			fmt.Fprintln(a.out, notificationLine(n))
		}
		return nil
	}

	if err := a.notifier.Refresh(ctx); err != nil {
		fmt.Fprintln(a.out, "error:", err)
		return err
	}

	items, unread := a.notifier.Snapshot()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No notifications")
		return nil
	}
	for _, n := range items {
		fmt.Fprintln(a.out, notificationLine(n))
	}
	fmt.Fprintf(a.out, "%d unread\n", unread)
	return nil
}

func parseID(args []string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("missing id")
	}
	return strconv.Atoi(args[0])
}

// MarkRead flags one notification read.
func (a *App) MarkRead(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		fmt.Fprintln(a.out, "Usage: read <id>")
		return err
	}
	if err := a.notifier.MarkRead(ctx, id); err != nil {
		fmt.Fprintln(a.out, "error:", err)
		return err
	}
	fmt.Fprintf(a.out, "%d unread\n", a.notifier.UnreadCount())
	return nil
}

// MarkAllRead flags everything read.
func (a *App) MarkAllRead(ctx context.Context) error {
	if err := a.notifier.MarkAllRead(ctx); err != nil {
		fmt.Fprintln(a.out, "error:", err)
		return err
	}
	fmt.Fprintln(a.out, "All notifications marked read")
	return nil
}

// Delete removes one notification.
func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		fmt.Fprintln(a.out, "Usage: delete <id>")
		return err
	}
	if err := a.notifier.Delete(ctx, id); err != nil {
		fmt.Fprintln(a.out, "error:", err)
		return err
	}
	fmt.Fprintln(a.out, "Deleted")
	return nil
}

var prefFlags = map[string]func(*models.Preferences, bool){
	"email":         func(p *models.Preferences, v bool) { p.EmailEnabled = v },
	"sessions":      func(p *models.Preferences, v bool) { p.EmailSessionUpdates = v },
	"questions":     func(p *models.Preferences, v bool) { p.EmailQuestionResponses = v },
	"schedule":      func(p *models.Preferences, v bool) { p.EmailScheduleChanges = v },
	"announcements": func(p *models.Preferences, v bool) { p.EmailSystemAnnouncements = v },
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// Prefs shows the notification preferences, or with "set <flag> on|off"
// updates one of them.
func (a *App) Prefs(ctx context.Context, args []string) error {
	prefs, err := a.notifier.Preferences(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "error:", err)
		return err
	}
	if prefs == nil {
		prefs = &models.Preferences{}
	}

	if len(args) == 3 && args[0] == "set" {
		set, ok := prefFlags[args[1]]
		if !ok || (args[2] != "on" && args[2] != "off") {
			fmt.Fprintln(a.out, "Usage: prefs set <email|sessions|questions|schedule|announcements> <on|off>")
			return fmt.Errorf("bad prefs arguments")
		}
		set(prefs, args[2] == "on")
		if err := a.notifier.UpdatePreferences(ctx, *prefs); err != nil {
			fmt.Fprintln(a.out, "error:", err)
			return err
		}
		fmt.Fprintln(a.out, "Preferences updated")
		return nil
	}

	fmt.Fprintln(a.out, "  email:", onOff(prefs.EmailEnabled))
	fmt.Fprintln(a.out, "  sessions:", onOff(prefs.EmailSessionUpdates))
	fmt.Fprintln(a.out, "  questions:", onOff(prefs.EmailQuestionResponses))
	fmt.Fprintln(a.out, "  schedule:", onOff(prefs.EmailScheduleChanges))
	fmt.Fprintln(a.out, "  announcements:", onOff(prefs.EmailSystemAnnouncements))
	return nil
}
