// Package app wires configuration into a ready-to-use canvas session.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/felixgeelhaar/canvasbridge/internal/canvas"
	"github.com/felixgeelhaar/canvasbridge/internal/command"
	"github.com/felixgeelhaar/canvasbridge/internal/graph"
	"github.com/felixgeelhaar/canvasbridge/internal/host"
	"github.com/felixgeelhaar/canvasbridge/internal/journal"
	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/canvasbridge/pkg/config"
	"github.com/felixgeelhaar/canvasbridge/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Document and commands
	Engine   *graph.Engine
	Registry *command.Registry
	History  *host.History
	Reporter *host.ConsoleReporter
	Session  *host.Session

	// Journal
	DBConn   database.Connection
	DBDriver database.Driver
	Journal  journal.Repository

	// Events
	EventPublisher    eventbus.Publisher
	Breaker           *eventbus.BreakerPublisher
	InProcessEventBus *eventbus.InProcessEventBus
	OutboxProcessor   *outbox.Processor

	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry
}

type options struct {
	errOut io.Writer
}

// Option configures NewContainer.
type Option func(*options)

// WithErrorOutput sets where the console reporter prints command errors.
func WithErrorOutput(w io.Writer) Option {
	return func(o *options) { o.errOut = w }
}

// NewContainer builds the command registry, the document engine and a
// session around them. The journal and the event publisher are attached
// when enabled in cfg. The registry is process-wide, so only one container
// may be open at a time.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	o := options{errOut: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Engine:  graph.NewEngine(logger),
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	var catalogueOpts []canvas.Option
	if cfg.FileRoot != "" {
		catalogueOpts = append(catalogueOpts, canvas.WithFileRoot(cfg.FileRoot))
	}
	registry, err := command.Init(logger, func(r *command.Registry) error {
		return canvas.Register(r, c.Engine, catalogueOpts...)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize command registry: %w", err)
	}
	c.Registry = registry

	if cfg.JournalEnabled {
		if err := c.initJournal(ctx); err != nil {
			c.Close()
			return nil, err
		}
	} else {
		c.Journal = journal.NewMemoryRepository()
	}

	c.initEvents()
	c.initOutbox(ctx)

	c.History = host.NewHistory(cfg.HistoryLimit, logger)
	c.Reporter = host.NewConsoleReporter(o.errOut, logger)
	c.Session = host.NewSession(c.Registry, c.History,
		host.WithReporter(c.Reporter),
		host.WithJournal(c.Journal),
		host.WithPublisher(c.EventPublisher),
		host.WithMetrics(c.Metrics),
		host.WithContextID(c.Engine.ContextID()),
		host.WithLogger(logger),
	)

	logger.Debug("canvas session ready",
		"commands", c.Registry.Len(),
		"context_id", c.Engine.ContextID(),
		"journal", c.DBDriver,
		"history_limit", cfg.HistoryLimit,
	)
	return c, nil
}

func (c *Container) initJournal(ctx context.Context) error {
	conn, err := openJournalConnection(ctx, c.Config, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	c.DBConn = conn
	c.DBDriver = conn.Driver()

	c.Journal = journal.NewSQLRepository(conn)
	c.Health.Register("journal", observability.DatabaseHealthChecker(conn.Ping))
	return nil
}

// initEvents picks the publisher. Without a broker, events stay in process.
// A broker that cannot be reached is fatal only outside development.
func (c *Container) initEvents() {
	c.InProcessEventBus = eventbus.NewInProcessEventBus(c.Logger)
	if !c.Config.EventsEnabled {
		c.EventPublisher = c.InProcessEventBus
		return
	}

	rabbit, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
	if err != nil {
		c.Logger.Warn("RabbitMQ not available, using in-process event bus", "error", err)
		c.EventPublisher = c.InProcessEventBus
		return
	}

	c.Breaker = eventbus.NewBreakerPublisher(rabbit, eventbus.BreakerConfig{
		FailureThreshold: uint32(c.Config.BreakerThreshold),
		Timeout:          c.Config.BreakerTimeout,
		MaxRequests:      1,
	}, c.Logger)
	c.EventPublisher = c.Breaker
	c.Health.Register("events", observability.BreakerHealthChecker(c.Breaker.State))
}

// initOutbox routes events through the journal database when configured.
// The processor relays them to the broker publisher initEvents chose.
func (c *Container) initOutbox(ctx context.Context) {
	if !c.Config.OutboxEnabled || c.DBConn == nil {
		return
	}
	if c.Breaker == nil {
		c.Logger.Warn("outbox enabled without a broker, events stay in process")
		return
	}

	repo := outbox.NewSQLRepository(c.DBConn)
	cfg := outbox.DefaultProcessorConfig()
	cfg.PollInterval = c.Config.OutboxPollInterval
	cfg.MaxRetries = c.Config.OutboxMaxRetries
	cfg.Retention = c.Config.OutboxRetention

	c.OutboxProcessor = outbox.NewProcessor(repo, c.Breaker, cfg, c.Logger)
	c.EventPublisher = outbox.NewPublisher(repo)
	// Start only fails when already running.
	_ = c.OutboxProcessor.Start(ctx)
	c.Health.Register("outbox", outboxHealthChecker(c.OutboxProcessor))
}

func outboxHealthChecker(p *outbox.Processor) observability.HealthChecker {
	return func(ctx context.Context) observability.HealthCheckResult {
		stats := p.GetStats()
		result := observability.HealthCheckResult{
			Status:    observability.HealthStatusHealthy,
			Timestamp: time.Now(),
			Details: map[string]any{
				"published":   stats.PublishedCount,
				"failed":      stats.FailedCount,
				"dead":        stats.DeadCount,
				"lag_seconds": stats.LagSeconds,
			},
		}
		switch {
		case !stats.IsRunning:
			result.Status = observability.HealthStatusUnhealthy
			result.Message = "outbox processor stopped"
		case stats.LagSeconds > 60:
			result.Status = observability.HealthStatusDegraded
			result.Message = "outbox is lagging"
		}
		return result
	}
}

// Close cleans up all resources and tears down the process-wide registry.
// Outbox messages still due are flushed once before the broker closes.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := c.OutboxProcessor.ProcessOnce(ctx); err != nil {
			c.Logger.Warn("failed to flush outbox", "error", err)
		}
		cancel()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}
	if c.Breaker != nil && c.EventPublisher != eventbus.Publisher(c.Breaker) {
		if err := c.Breaker.Close(); err != nil {
			c.Logger.Warn("error closing event broker", "error", err)
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing journal connection", "error", err)
		} else {
			c.Logger.Info("journal connection closed", "driver", c.DBDriver)
		}
	}

	if c.Registry != nil {
		command.Teardown()
		c.Registry = nil
	}
}
