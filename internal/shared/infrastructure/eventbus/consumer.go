package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
)

// EventConsumer handles the events whose routing keys match its patterns.
type EventConsumer interface {
	// EventTypes returns topic patterns such as RoutingFailed or
	// "canvas.command.*".
	EventTypes() []string

	Handle(ctx context.Context, event *CommandEvent) error
}

// ConsumerFunc adapts a function to EventConsumer.
type ConsumerFunc struct {
	Types []string
	Fn    func(ctx context.Context, event *CommandEvent) error
}

// EventTypes implements EventConsumer.
func (c ConsumerFunc) EventTypes() []string {
	return c.Types
}

// Handle implements EventConsumer.
func (c ConsumerFunc) Handle(ctx context.Context, event *CommandEvent) error {
	return c.Fn(ctx, event)
}

type route struct {
	pattern  string
	id       int
	consumer EventConsumer
}

// ConsumerRegistry routes events to consumers in registration order. A
// consumer whose patterns overlap still sees each event once.
type ConsumerRegistry struct {
	mu     sync.RWMutex
	routes []route
	next   int
	logger *slog.Logger
}

// NewConsumerRegistry creates an empty registry.
func NewConsumerRegistry(logger *slog.Logger) *ConsumerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsumerRegistry{logger: logger}
}

// Register adds consumer under each of its patterns.
func (r *ConsumerRegistry) Register(consumer EventConsumer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	for _, p := range consumer.EventTypes() {
		r.routes = append(r.routes, route{pattern: p, id: r.next, consumer: consumer})
		r.logger.Debug("event consumer registered", "pattern", p)
	}
}

// Patterns returns the distinct registered patterns, first registration first.
func (r *ConsumerRegistry) Patterns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, rt := range r.routes {
		if !slices.Contains(out, rt.pattern) {
			out = append(out, rt.pattern)
		}
	}
	return out
}

// Len returns the number of registered consumers.
func (r *ConsumerRegistry) Len() int {
	return len(r.match(""))
}

// Match returns the consumers interested in routingKey.
func (r *ConsumerRegistry) Match(routingKey string) []EventConsumer {
	return r.match(routingKey)
}

// match with an empty key returns every consumer. Consumers are told apart
// by registration, since ConsumerFunc values are not comparable.
func (r *ConsumerRegistry) match(routingKey string) []EventConsumer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		out  []EventConsumer
		seen []int
	)
	for _, rt := range r.routes {
		if routingKey != "" && !MatchRoutingKey(rt.pattern, routingKey) {
			continue
		}
		if !slices.Contains(seen, rt.id) {
			seen = append(seen, rt.id)
			out = append(out, rt.consumer)
		}
	}
	return out
}

// Dispatch hands event to every matching consumer. All consumers run even
// when one fails; their errors are joined.
func (r *ConsumerRegistry) Dispatch(ctx context.Context, event *CommandEvent) error {
	var errs []error
	for _, c := range r.Match(event.RoutingKey) {
		if err := c.Handle(ctx, event); err != nil {
			r.logger.ErrorContext(ctx, "event consumer failed",
				"routing_key", event.RoutingKey,
				"event_id", event.EventID,
				"command", event.Command,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
