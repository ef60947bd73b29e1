// Package observability provides structured logging, metrics and health
// checks for canvasbridge hosts.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ServiceName is attached to every log record unless overridden.
const ServiceName = "canvasbridge"

// LogConfig configures NewLogger.
type LogConfig struct {
	Level slog.Level
	JSON  bool

	// LevelVar, when set, receives Level and controls the logger instead of
	// it, so the level can be raised or lowered after construction.
	LevelVar *slog.LevelVar

	// Output defaults to os.Stderr. Stdout carries command results.
	Output    io.Writer
	AddSource bool

	Service string
	Version string
}

// NewLogConfig resolves LOG_LEVEL and LOG_FORMAT style settings. Production
// defaults to JSON with source locations; an explicit format wins. Unknown
// levels fall back to info.
func NewLogConfig(env, level, format, version string) LogConfig {
	cfg := LogConfig{
		Level:     slog.LevelInfo,
		JSON:      env == "production",
		AddSource: env == "production",
		Service:   ServiceName,
		Version:   "dev",
	}
	if level != "" {
		if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
			cfg.Level = slog.LevelInfo
		}
	}
	switch strings.ToLower(format) {
	case "json":
		cfg.JSON = true
	case "text":
		cfg.JSON = false
	}
	if version != "" {
		cfg.Version = version
	}
	return cfg
}

// NewLogger builds a logger from cfg. Records logged with a context carry the
// correlation id, request id and command name stored in it.
func NewLogger(cfg LogConfig) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}
	if cfg.LevelVar != nil {
		cfg.LevelVar.Set(cfg.Level)
		opts.Level = cfg.LevelVar
	}

	var h slog.Handler = slog.NewTextHandler(out, opts)
	if cfg.JSON {
		h = slog.NewJSONHandler(out, opts)
	}

	var static []slog.Attr
	if cfg.Service != "" {
		static = append(static, slog.String("service", cfg.Service))
	}
	if cfg.Version != "" {
		static = append(static, slog.String("version", cfg.Version))
	}
	if len(static) > 0 {
		h = h.WithAttrs(static)
	}
	return slog.New(traceHandler{h})
}

// traceHandler appends the context ids to each record.
type traceHandler struct {
	slog.Handler
}

func (h traceHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(traceFrom(ctx).attrs()...)
	return h.Handler.Handle(ctx, r)
}

func (h traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceHandler{h.Handler.WithAttrs(attrs)}
}

func (h traceHandler) WithGroup(name string) slog.Handler {
	return traceHandler{h.Handler.WithGroup(name)}
}
