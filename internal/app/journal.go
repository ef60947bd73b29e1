package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/canvasbridge/pkg/config"

	// Both journal backends register themselves with database.NewConnection.
	_ "github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/database/postgres"
	_ "github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/database/sqlite"
)

// openJournalConnection connects to the configured journal database and
// migrates it. The journal and outbox repositories share the connection.
func openJournalConnection(ctx context.Context, cfg *config.Config, logger *slog.Logger) (database.Connection, error) {
	driver, err := database.ParseDriver(cfg.DatabaseDriver)
	if err != nil {
		return nil, err
	}
	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     driver,
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("running journal migrations", "driver", conn.Driver())
	if err := migrations.Run(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return conn, nil
}
