package observability

import (
	"context"
	"log/slog"
	"time"
)

// Timer measures one dispatch of a command. Finish it with Done or Fail.
type Timer struct {
	command string
	start   time.Time
	logger  *slog.Logger
	metrics Metrics
}

// StartTimer starts timing command. A nil logger or metrics sink skips that
// output.
func StartTimer(command string, logger *slog.Logger, metrics Metrics) *Timer {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Timer{command: command, start: time.Now(), logger: logger, metrics: metrics}
}

// Done records a successful dispatch and bumps counter when it is set.
func (t *Timer) Done(ctx context.Context, counter string) time.Duration {
	d := t.observe()
	if counter != "" {
		t.metrics.Counter(counter, 1, T(CommandKey, t.command))
	}
	if t.logger != nil {
		t.logger.DebugContext(ctx, "command completed", "counter", counter, DurationKey, d.Milliseconds())
	}
	return d
}

// Fail records a failed dispatch under MetricCommandFailed tagged with kind.
func (t *Timer) Fail(ctx context.Context, kind string, err error) time.Duration {
	d := t.observe()
	t.metrics.Counter(MetricCommandFailed, 1, T(CommandKey, t.command), T("kind", kind))
	if t.logger != nil {
		t.logger.ErrorContext(ctx, "command failed", "kind", kind, DurationKey, d.Milliseconds(), ErrorKey, err)
	}
	return d
}

func (t *Timer) observe() time.Duration {
	d := time.Since(t.start)
	t.metrics.Timing(MetricCommandDuration, d, T(CommandKey, t.command))
	return d
}
