// Package logging defines the structured-logging interface used across the
// portal client. The session manager and the notification reconciler log
// through it; background polling failures stop at this interface and never
// reach the user (the CLI only prints errors from commands it ran itself).
package logging

import "context"

// Logger is a context-aware, structured logger. The variadic args are
// key-value pairs:
//
//	log.Info(ctx, "notifications fetched", "count", n, "unread", unread)
type Logger interface {
	// Debug logs fine-grained detail useful when diagnosing request flow.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs unusual but non-fatal conditions, e.g. a failed poll.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}
