// Package logging is the structured logger used by the server packages.
package logging

import "context"

// Logger takes a context first and key/value pairs after the message:
//
//	log.Info(ctx, "recipe created", "recipe_id", id, "user_id", uid)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that adds args to every record.
	With(args ...any) Logger
}
