// Command canvas edits dataflow graph documents through the canvas command set.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/canvasbridge/adapter/cli"
	"github.com/felixgeelhaar/canvasbridge/adapter/cli/mcp"
	"github.com/felixgeelhaar/canvasbridge/internal/app"
	"github.com/felixgeelhaar/canvasbridge/pkg/config"
	"github.com/felixgeelhaar/canvasbridge/pkg/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	level := new(slog.LevelVar)
	logCfg := observability.NewLogConfig(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat, cli.Version)
	logCfg.LevelVar = level
	logger := observability.NewLogger(logCfg)
	slog.SetDefault(logger)
	cli.SetLogger(logger, level)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		return 1
	}
	defer container.Close()

	cli.SetApp(cli.NewApp(container))
	cli.AddCommand(mcp.Cmd)
	return cli.Execute(ctx)
}
