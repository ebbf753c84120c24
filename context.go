/*
Package custody defines the interfaces shared by all custody packages:
storage, identities and the context values passed between the transaction
executor and the extensions.

We pass context through context.Context between the executor and the
extensions. There should exist two functions for every XYZ of type T that
we want to support in Context:

	WithXYZ(Context, T) Context
	GetXYZ(Context) (val T, ok bool)
*/
package custody

import (
	"context"
	"time"

	"github.com/tendermint/tendermint/libs/log"
)

type contextKey int // local to the custody module

const (
	contextKeyLogger contextKey = iota
	contextKeyNow
)

// DefaultLogger is used for all context that have not
// set anything themselves
var DefaultLogger = log.NewNopLogger()

// WithLogger sets the logger for this context.
func WithLogger(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// WithLogInfo accepts keyvalue pairs, and returns another
// context like this, after passing all the keyvals to the
// Logger
func WithLogInfo(ctx context.Context, keyvals ...interface{}) context.Context {
	logger := GetLogger(ctx).With(keyvals...)
	return WithLogger(ctx, logger)
}

// GetLogger returns the currently set logger, or
// DefaultLogger if none was set
func GetLogger(ctx context.Context) log.Logger {
	val, ok := ctx.Value(contextKeyLogger).(log.Logger)
	if !ok {
		return DefaultLogger
	}
	return val
}

// WithNow fixes the time returned by Now for this context. Tests and the
// command line use it to get reproducible timestamps.
func WithNow(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, contextKeyNow, now)
}

// Now returns the time set by WithNow, or the wall clock time.
func Now(ctx context.Context) time.Time {
	if now, ok := ctx.Value(contextKeyNow).(time.Time); ok {
		return now
	}
	return time.Now()
}
