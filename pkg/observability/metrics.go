package observability

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// Metric names.
const (
	MetricCommandExecuted = "canvas.command.executed"
	MetricCommandFailed   = "canvas.command.failed"
	MetricCommandUndone   = "canvas.command.undone"
	MetricCommandRedone   = "canvas.command.redone"
	MetricCommandDuration = "canvas.command.duration"

	MetricHistoryDepth = "canvas.history.depth"

	MetricEventsPublished = "canvas.events.published"
	MetricEventsDropped   = "canvas.events.dropped"
	MetricJournalErrors   = "canvas.journal.errors"
)

// Metrics is the sink sessions and the event bus report to.
type Metrics interface {
	Counter(name string, delta int64, tags ...Tag)
	Gauge(name string, value float64, tags ...Tag)
	Timing(name string, d time.Duration, tags ...Tag)
}

// Tag labels a metric series.
type Tag struct {
	Key, Value string
}

// T is shorthand for Tag{key, value}.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// SeriesKey names one series: name{k=v,...}, tags in the order given.
func SeriesKey(name string, tags ...Tag) string {
	if len(tags) == 0 {
		return name
	}
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = t.Key + "=" + t.Value
	}
	return name + "{" + strings.Join(parts, ",") + "}"
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(string, int64, ...Tag)        {}
func (NoopMetrics) Gauge(string, float64, ...Tag)        {}
func (NoopMetrics) Timing(string, time.Duration, ...Tag) {}

// InMemoryMetrics keeps every series in memory. The stats command and the
// MCP stats resource read it back; tests assert on it.
type InMemoryMetrics struct {
	mu       sync.RWMutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string][]time.Duration
}

func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters: map[string]int64{},
		gauges:   map[string]float64{},
		timings:  map[string][]time.Duration{},
	}
}

func (m *InMemoryMetrics) Counter(name string, delta int64, tags ...Tag) {
	m.mu.Lock()
	m.counters[SeriesKey(name, tags...)] += delta
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...Tag) {
	m.mu.Lock()
	m.gauges[SeriesKey(name, tags...)] = value
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Timing(name string, d time.Duration, tags ...Tag) {
	key := SeriesKey(name, tags...)
	m.mu.Lock()
	m.timings[key] = append(m.timings[key], d)
	m.mu.Unlock()
}

func (m *InMemoryMetrics) GetCounter(name string, tags ...Tag) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[SeriesKey(name, tags...)]
}

func (m *InMemoryMetrics) GetGauge(name string, tags ...Tag) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gauges[SeriesKey(name, tags...)]
}

// GetTimings returns a copy of the durations recorded for one series.
func (m *InMemoryMetrics) GetTimings(name string, tags ...Tag) []time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.timings[SeriesKey(name, tags...)])
}

// Counters returns a copy of every counter keyed by SeriesKey.
func (m *InMemoryMetrics) Counters() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.counters)
}

// CounterKeys returns the counter series keys, sorted.
func (m *InMemoryMetrics) CounterKeys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.counters))
}
