// Package mcp serves the canvas session to MCP clients over streamable HTTP.
package mcp

import (
	"context"
	"errors"
	"log/slog"

	mcpgo "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/middleware"

	"github.com/felixgeelhaar/canvasbridge/adapter/cli"
	mcplocal "github.com/felixgeelhaar/canvasbridge/adapter/mcp"
	"github.com/felixgeelhaar/canvasbridge/pkg/config"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "canvas-mcp"

// Serve exposes the CLI application's canvas session over MCP and blocks
// until ctx is canceled. Tools, resources and the CLI share one session, so
// the undo stack is the same whichever surface edits the document.
func Serve(ctx context.Context, cfg *config.Config, cliApp *cli.App, version string, logger *slog.Logger) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if cliApp == nil || cliApp.Container == nil {
		return errors.New("CLI app is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	srv, err := NewServer(cliApp, version, logger)
	if err != nil {
		return err
	}
	if cfg.MCPAuthToken == "" {
		logger.Warn("MCP auth token not set; requests will be unauthenticated")
	}

	logger.Info("mcp server listening",
		"addr", cfg.MCPAddr,
		"commands", cliApp.Container.Registry.Len(),
		"context_id", cliApp.Container.Engine.ContextID(),
	)
	return mcpgo.ServeHTTPWithMiddleware(ctx, srv, cfg.MCPAddr, nil,
		mcpgo.WithMiddleware(Middleware(cfg.MCPAuthToken, logger)...))
}

// NewServer registers the canvas tools, resources and prompts. Only tool
// registration failures are fatal.
func NewServer(cliApp *cli.App, version string, logger *slog.Logger) (*mcpgo.Server, error) {
	srv := mcpgo.NewServer(mcpgo.ServerInfo{
		Name:    ServerName,
		Version: version,
		Capabilities: mcpgo.Capabilities{
			Tools:     true,
			Resources: true,
			Prompts:   true,
		},
	})
	deps := mcplocal.ToolDependencies{App: cliApp}
	if err := mcplocal.RegisterCLITools(srv, deps); err != nil {
		return nil, err
	}
	if err := mcplocal.RegisterResources(srv, deps); err != nil {
		logger.Warn("failed to register MCP resources", "error", err)
	}
	if err := mcplocal.RegisterPrompts(srv, deps); err != nil {
		logger.Warn("failed to register MCP prompts", "error", err)
	}
	return srv, nil
}

// Middleware returns the request pipeline. A non-empty token puts bearer
// authentication in front of the default stack.
func Middleware(token string, logger *slog.Logger) []middleware.Middleware {
	log := slogAdapter{logger}
	stack := middleware.DefaultStack(log)
	if token == "" {
		return stack
	}
	auth := middleware.BearerTokenAuthenticator(middleware.StaticTokens(map[string]*middleware.Identity{
		token: {ID: "mcp", Name: "mcp"},
	}))
	return append([]middleware.Middleware{middleware.Auth(auth, middleware.WithAuthLogger(log))}, stack...)
}

// slogAdapter routes middleware logging into slog.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) emit(level slog.Level, msg string, fields []middleware.Field) {
	attrs := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		attrs = append(attrs, f.Key, f.Value)
	}
	a.logger.Log(context.Background(), level, msg, attrs...)
}

func (a slogAdapter) Debug(msg string, fields ...middleware.Field) { a.emit(slog.LevelDebug, msg, fields) }
func (a slogAdapter) Info(msg string, fields ...middleware.Field)  { a.emit(slog.LevelInfo, msg, fields) }
func (a slogAdapter) Warn(msg string, fields ...middleware.Field)  { a.emit(slog.LevelWarn, msg, fields) }
func (a slogAdapter) Error(msg string, fields ...middleware.Field) { a.emit(slog.LevelError, msg, fields) }
