package outbox

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/eventbus"
)

// ProcessorConfig tunes the relay loop.
type ProcessorConfig struct {
	PollInterval time.Duration
	BatchSize    int

	// MaxRetries is the number of failed publishes after which a message is
	// dead-lettered. Zero or less dead-letters on the first failure.
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration

	// Retention is how long published messages are kept. Zero keeps them.
	Retention       time.Duration
	CleanupInterval time.Duration
}

// DefaultProcessorConfig matches the CANVAS_OUTBOX_* defaults.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     100 * time.Millisecond,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
		Retention:        7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

// Backoff returns the delay before retry number attempt (1-based): base
// doubled per earlier attempt, capped at ceiling.
func Backoff(base, ceiling time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	if ceiling <= 0 {
		ceiling = time.Minute
	}
	d := base << min(max(attempt-1, 0), 30)
	if d <= 0 || d > ceiling {
		return ceiling
	}
	return d
}

// Processor relays due outbox messages to the broker publisher.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	config    ProcessorConfig
	logger    *slog.Logger
	stats     stats

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewProcessor creates a stopped processor.
func NewProcessor(repo Repository, publisher eventbus.Publisher, config ProcessorConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{repo: repo, publisher: publisher, config: config, logger: logger}
}

// Start runs the relay loop in the background until Stop or until ctx ends.
// Starting a running processor does nothing.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return nil
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go p.loop(ctx, p.done)

	p.logger.Info("outbox processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
	)
	return nil
}

// Stop ends the loop and waits for the batch in flight.
func (p *Processor) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.logger.Info("outbox processor stopped")
}

// IsRunning reports whether the loop is active.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// ProcessOnce relays one batch synchronously. Close uses it to flush what
// is still due before the process exits.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	batch, err := p.repo.GetUnpublished(ctx, p.config.BatchSize)
	if err != nil {
		p.stats.errored(err)
		return err
	}
	p.stats.observe(batch)
	for _, msg := range batch {
		p.relay(ctx, msg)
	}
	return nil
}

// GetStats returns a snapshot of the relay counters.
func (p *Processor) GetStats() Stats {
	return p.stats.snapshot(p.IsRunning())
}

func (p *Processor) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	poll := time.NewTicker(p.config.PollInterval)
	defer poll.Stop()

	var cleanup <-chan time.Time
	if p.config.Retention > 0 && p.config.CleanupInterval > 0 {
		t := time.NewTicker(p.config.CleanupInterval)
		defer t.Stop()
		cleanup = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			if err := p.ProcessOnce(ctx); err != nil && ctx.Err() == nil {
				p.logger.Error("failed to read outbox", "error", err)
			}
		case <-cleanup:
			p.purge(ctx)
		}
	}
}

// relay publishes msg and records the outcome. A message that has used up
// its retries is dead-lettered; otherwise it is rescheduled with backoff.
func (p *Processor) relay(ctx context.Context, msg *Message) {
	err := p.publisher.Publish(ctx, msg.RoutingKey, msg.Payload)
	if err == nil {
		if markErr := p.repo.MarkPublished(ctx, msg.ID); markErr != nil {
			p.logger.Error("failed to mark outbox message published", "id", msg.ID, "error", markErr)
			return
		}
		p.stats.published()
		return
	}

	event := msg.event()
	log := p.logger.With(
		"id", msg.ID,
		"routing_key", msg.RoutingKey,
		"invocation_id", event.InvocationID,
		"context_id", event.ContextID,
		"command", event.Command,
		"attempt", msg.RetryCount+1,
	)

	attempt := msg.RetryCount + 1
	if attempt >= p.config.MaxRetries {
		p.stats.failed(err, true)
		log.Error("dead-lettering command event", "error", err)
		if markErr := p.repo.MarkDead(ctx, msg.ID, err.Error()); markErr != nil {
			log.Error("failed to dead-letter outbox message", "error", markErr)
		}
		return
	}

	p.stats.failed(err, false)
	retryAt := time.Now().Add(Backoff(p.config.RetryBackoffBase, p.config.RetryBackoffMax, attempt))
	log.Warn("command event not relayed, will retry", "retry_at", retryAt, "error", err)
	if markErr := p.repo.MarkFailed(ctx, msg.ID, err.Error(), retryAt); markErr != nil {
		log.Error("failed to reschedule outbox message", "error", markErr)
	}
}

func (p *Processor) purge(ctx context.Context) {
	n, err := p.repo.DeleteOld(ctx, p.config.Retention)
	if err != nil {
		p.stats.errored(err)
		p.logger.Error("failed to purge published outbox messages", "error", err)
		return
	}
	if n > 0 {
		p.logger.Debug("purged published outbox messages", "count", n)
	}
}
