package observability

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Attribute keys shared by log records and metric tags.
const (
	CorrelationIDKey = "correlation_id"
	RequestIDKey     = "request_id"
	CommandKey       = "command"
	DurationKey      = "duration_ms"
	ErrorKey         = "error"
)

// trace is the set of ids a dispatch carries through its context. Each With
// function stores a modified copy, leaving the parent context untouched.
type trace struct {
	correlationID string
	requestID     string
	command       string
}

type traceKey struct{}

func traceFrom(ctx context.Context) trace {
	if ctx == nil {
		return trace{}
	}
	t, _ := ctx.Value(traceKey{}).(trace)
	return t
}

func withTrace(ctx context.Context, update func(*trace)) context.Context {
	t := traceFrom(ctx)
	update(&t)
	return context.WithValue(ctx, traceKey{}, t)
}

func orNewID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

// WithCorrelationID tags ctx with the id of one host run, such as a CLI
// invocation or an MCP session. An empty id generates one.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return withTrace(ctx, func(t *trace) { t.correlationID = orNewID(id) })
}

// WithRequestID tags ctx with the id of one command invocation. An empty id
// generates one.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withTrace(ctx, func(t *trace) { t.requestID = orNewID(id) })
}

// WithCommand tags ctx with the name of the command being dispatched.
func WithCommand(ctx context.Context, name string) context.Context {
	return withTrace(ctx, func(t *trace) { t.command = name })
}

func CorrelationIDFromContext(ctx context.Context) string { return traceFrom(ctx).correlationID }
func RequestIDFromContext(ctx context.Context) string     { return traceFrom(ctx).requestID }
func CommandFromContext(ctx context.Context) string       { return traceFrom(ctx).command }

// attrs returns the non-empty ids as log attributes.
func (t trace) attrs() []slog.Attr {
	var out []slog.Attr
	for _, kv := range [...][2]string{
		{CorrelationIDKey, t.correlationID},
		{RequestIDKey, t.requestID},
		{CommandKey, t.command},
	} {
		if kv[1] != "" {
			out = append(out, slog.String(kv[0], kv[1]))
		}
	}
	return out
}
