// Command canvas-mcp serves a canvas session to MCP clients over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/canvasbridge/adapter/cli"
	"github.com/felixgeelhaar/canvasbridge/internal/app"
	mcpinternal "github.com/felixgeelhaar/canvasbridge/internal/mcp"
	"github.com/felixgeelhaar/canvasbridge/pkg/config"
	"github.com/felixgeelhaar/canvasbridge/pkg/observability"
)

func main() {
	if err := serve(); err != nil {
		slog.Error("canvas-mcp stopped", "error", err)
		os.Exit(1)
	}
}

func serve() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.NewLogger(observability.NewLogConfig(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat, cli.Version))
	slog.SetDefault(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer container.Close()

	err = mcpinternal.Serve(ctx, cfg, cli.NewApp(container), cli.Version, logger)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
