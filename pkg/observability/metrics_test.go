package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeriesKey(t *testing.T) {
	assert.Equal(t, "c", SeriesKey("c"))
	assert.Equal(t, "c{a=1,b=2}", SeriesKey("c", T("a", "1"), T("b", "2")))
}

func TestInMemoryMetrics(t *testing.T) {
	t.Run("counters are per series", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Counter(MetricCommandExecuted, 1, T(CommandKey, "dfgAddVar"))
		m.Counter(MetricCommandExecuted, 1, T(CommandKey, "dfgAddVar"))
		m.Counter(MetricCommandExecuted, 1, T(CommandKey, "dfgConnect"))

		assert.Equal(t, int64(2), m.GetCounter(MetricCommandExecuted, T(CommandKey, "dfgAddVar")))
		assert.Zero(t, m.GetCounter(MetricCommandExecuted))
		assert.Equal(t, []string{
			"canvas.command.executed{command=dfgAddVar}",
			"canvas.command.executed{command=dfgConnect}",
		}, m.CounterKeys())
	})

	t.Run("gauge keeps last value", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Gauge(MetricHistoryDepth, 3)
		m.Gauge(MetricHistoryDepth, 2)
		assert.Equal(t, 2.0, m.GetGauge(MetricHistoryDepth))
	})

	t.Run("snapshots are copies", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Counter(MetricJournalErrors, 1)
		m.Timing(MetricCommandDuration, time.Millisecond)

		counters := m.Counters()
		counters[MetricJournalErrors] = 99
		timings := m.GetTimings(MetricCommandDuration)
		timings[0] = time.Hour

		assert.Equal(t, int64(1), m.GetCounter(MetricJournalErrors))
		assert.Equal(t, []time.Duration{time.Millisecond}, m.GetTimings(MetricCommandDuration))
	})

	t.Run("noop satisfies the interface", func(t *testing.T) {
		var m Metrics = NoopMetrics{}
		m.Counter(MetricCommandExecuted, 1)
		m.Gauge(MetricHistoryDepth, 1)
		m.Timing(MetricCommandDuration, time.Second)
	})
}

func TestTimer(t *testing.T) {
	t.Run("done counts under the given counter", func(t *testing.T) {
		m := NewInMemoryMetrics()
		StartTimer("dfgAddVar", nil, m).Done(context.Background(), MetricCommandUndone)

		assert.Equal(t, int64(1), m.GetCounter(MetricCommandUndone, T(CommandKey, "dfgAddVar")))
		assert.Len(t, m.GetTimings(MetricCommandDuration, T(CommandKey, "dfgAddVar")), 1)
	})

	t.Run("done without counter only times", func(t *testing.T) {
		m := NewInMemoryMetrics()
		StartTimer("dfgAddVar", nil, m).Done(context.Background(), "")
		assert.Empty(t, m.Counters())
		assert.Len(t, m.GetTimings(MetricCommandDuration, T(CommandKey, "dfgAddVar")), 1)
	})

	t.Run("fail counts by kind and logs", func(t *testing.T) {
		m := NewInMemoryMetrics()
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		StartTimer("dfgConnect", logger, m).Fail(context.Background(), "engine", errors.New("already connected"))

		assert.Equal(t, int64(1), m.GetCounter(MetricCommandFailed, T(CommandKey, "dfgConnect"), T("kind", "engine")))
		assert.Contains(t, buf.String(), "command failed")
		assert.Contains(t, buf.String(), "already connected")
	})

	t.Run("nil sinks", func(t *testing.T) {
		d := StartTimer("dfgConnect", nil, nil).Fail(context.Background(), "engine", errors.New("x"))
		assert.GreaterOrEqual(t, d, time.Duration(0))
	})
}
