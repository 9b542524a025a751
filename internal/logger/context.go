package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context for a single client session.
type LogContext struct {
	SessionID string    // session identifier assigned at accept time
	Username  string    // bound username, empty before authentication completes
	RemoteIP  string    // client IP address (without port)
	Command   string    // current command being serviced: UPLOAD, DOWNLOAD, LIST, ...
	Priority  string    // priority class of the in-flight task, if any
	StartTime time.Time // for duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a freshly accepted connection.
func NewLogContext(sessionID, remoteIP string) *LogContext {
	return &LogContext{
		SessionID: sessionID,
		RemoteIP:  remoteIP,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		SessionID: lc.SessionID,
		Username:  lc.Username,
		RemoteIP:  lc.RemoteIP,
		Command:   lc.Command,
		Priority:  lc.Priority,
		StartTime: lc.StartTime,
	}
}

// WithUsername returns a copy with the bound username set, after authentication.
func (lc *LogContext) WithUsername(username string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Username = username
	}
	return clone
}

// WithCommand returns a copy with the in-flight command and priority set.
func (lc *LogContext) WithCommand(command, priority string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Command = command
		clone.Priority = priority
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
