package host

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/canvasbridge/internal/command"
	"github.com/felixgeelhaar/canvasbridge/internal/journal"
	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/canvasbridge/pkg/observability"
)

// Result describes a completed dispatch.
type Result struct {
	InvocationID string        `json:"invocation_id"`
	Command      string        `json:"command"`
	Description  string        `json:"description,omitempty"`
	Result       string        `json:"result,omitempty"`
	Undoable     bool          `json:"undoable"`
	Duration     time.Duration `json:"duration_ns"`
}

// Session is the host side of command dispatch. It resolves a command name,
// runs one adapter per invocation and binds it to the undo history. Every
// entry point holds the session lock, so commands never interleave.
type Session struct {
	mu sync.Mutex

	registry  *command.Registry
	history   *History
	binding   *command.HistoryBinding
	reporter  command.Reporter
	journal   journal.Repository
	publisher eventbus.Publisher
	metrics   observability.Metrics
	contextID string
	logger    *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithReporter sets where command errors are reported.
func WithReporter(r command.Reporter) SessionOption {
	return func(s *Session) { s.reporter = r }
}

// WithJournal records every dispatch in repo.
func WithJournal(repo journal.Repository) SessionOption {
	return func(s *Session) { s.journal = repo }
}

// WithPublisher publishes a lifecycle event for every dispatch.
func WithPublisher(p eventbus.Publisher) SessionOption {
	return func(s *Session) { s.publisher = p }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m observability.Metrics) SessionOption {
	return func(s *Session) { s.metrics = m }
}

// WithContextID tags journal entries and events with the engine context id.
func WithContextID(id string) SessionOption {
	return func(s *Session) { s.contextID = id }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// NewSession creates a session dispatching commands from registry and
// recording undoable invocations in history.
func NewSession(registry *command.Registry, history *History, opts ...SessionOption) *Session {
	s := &Session{registry: registry, history: history}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.history == nil {
		s.history = NewHistory(DefaultHistoryLimit, s.logger)
	}
	if s.reporter == nil {
		s.reporter = NewConsoleReporter(nil, s.logger)
	}
	if s.metrics == nil {
		s.metrics = observability.NoopMetrics{}
	}
	s.binding = command.NewHistoryBinding(s.history, s.logger)
	return s
}

// Invoke runs the named command with raw host arguments. When the command
// executed but the history refused it, both the result and the HistoryError
// are returned: the edit stays applied.
func (s *Session) Invoke(ctx context.Context, name string, args []string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = observability.WithCommand(observability.WithRequestID(ctx, ""), name)
	timer := observability.StartTimer(name, s.logger, s.metrics)
	res := &Result{InvocationID: observability.RequestIDFromContext(ctx), Command: name}

	a, err := s.registry.NewAdapter(name, command.WithReporter(s.reporter), command.WithLogger(s.logger))
	if err != nil {
		s.reporter.ReportError(name, command.Detail(err))
		s.record(ctx, res, journal.ActionFailed, args, timer.Fail(ctx, string(command.KindOf(err)), err), err)
		return nil, err
	}
	res.Undoable = a.IsUndoable()

	if err := a.DoIt(ctx, args); err != nil {
		s.record(ctx, res, journal.ActionFailed, args, timer.Fail(ctx, string(command.KindOf(err)), err), err)
		return nil, err
	}
	res.Description, res.Result = a.Description(), a.Result()

	if a.Descriptor().InvalidatesHistory {
		s.binding.Reset()
		s.history.Clear()
		s.logger.InfoContext(ctx, "history cleared", "reason", "document replaced")
	}

	if err := s.binding.Register(ctx, a); err != nil {
		// The binding already released its entries; drop them from the
		// stack too so nothing stale is offered for undo or redo.
		s.history.Clear()
		s.logger.WarnContext(ctx, "history cleared", "reason", "command not recorded")
		res.Duration = timer.Fail(ctx, string(command.KindOf(err)), err)
		s.record(ctx, res, journal.ActionFailed, args, res.Duration, err)
		return res, err
	}

	res.Duration = timer.Done(ctx, observability.MetricCommandExecuted)
	s.metrics.Gauge(observability.MetricHistoryDepth, float64(s.history.Depth()))
	s.record(ctx, res, journal.ActionExecuted, args, res.Duration, nil)
	return res, nil
}

// Undo reverts the most recent applied invocation.
func (s *Session) Undo(ctx context.Context) (*Result, error) {
	return s.replay(ctx, journal.ActionUndone)
}

// Redo reapplies the most recently undone invocation.
func (s *Session) Redo(ctx context.Context) (*Result, error) {
	return s.replay(ctx, journal.ActionRedone)
}

func (s *Session) replay(ctx context.Context, action journal.Action) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	step, counter := s.history.Undo, observability.MetricCommandUndone
	if action == journal.ActionRedone {
		step, counter = s.history.Redo, observability.MetricCommandRedone
	}

	ctx = observability.WithRequestID(ctx, "")
	start := time.Now()
	e, err := step(ctx)
	if e == nil {
		return nil, err
	}

	ctx = observability.WithCommand(ctx, e.Name())
	timer := observability.StartTimer(e.Name(), s.logger, s.metrics)
	res := &Result{
		InvocationID: observability.RequestIDFromContext(ctx),
		Command:      e.Name(),
		Description:  e.Description(),
		Undoable:     true,
	}
	if err != nil {
		timer.Fail(ctx, string(command.KindOf(err)), err)
		s.record(ctx, res, journal.ActionFailed, nil, time.Since(start), err)
		return nil, err
	}
	timer.Done(ctx, counter)
	res.Duration = time.Since(start)
	s.metrics.Gauge(observability.MetricHistoryDepth, float64(s.history.Depth()))
	s.record(ctx, res, action, nil, res.Duration, nil)
	return res, nil
}

// History returns the entries of the undo stack, oldest first.
func (s *Session) History() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Entries()
}

// SetHistoryEnabled turns undo recording on or off.
func (s *Session) SetHistoryEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.SetEnabled(enabled)
}

// ClearHistory releases every recorded invocation.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.binding.Reset()
	s.history.Clear()
}

// Exclusive runs fn while no invocation, undo or redo is in progress.
func (s *Session) Exclusive(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// Registry returns the registry commands are resolved from.
func (s *Session) Registry() *command.Registry {
	return s.registry
}

// record journals and publishes one dispatch. Neither failure affects the
// dispatch outcome; both are logged and counted.
func (s *Session) record(ctx context.Context, res *Result, action journal.Action, args []string, d time.Duration, cause error) {
	entry := journal.NewEntry(res.Command, action)
	entry.InvocationID = res.InvocationID
	entry.ContextID = s.contextID
	entry.Args = args
	entry.Description = res.Description
	entry.Result = res.Result
	entry.Duration = d

	event := eventbus.NewCommandEvent(routingKey(action), res.Command)
	event.InvocationID = res.InvocationID
	event.ContextID = s.contextID
	event.Args = args
	event.Description = res.Description
	event.Result = res.Result

	if cause != nil {
		entry.ErrorKind = string(command.KindOf(cause))
		entry.Error = cause.Error()
		event.ErrorKind, event.Error = entry.ErrorKind, entry.Error
	}

	if s.journal != nil {
		if err := s.journal.Append(ctx, entry); err != nil {
			s.metrics.Counter(observability.MetricJournalErrors, 1)
			s.logger.ErrorContext(ctx, "failed to journal command", "action", action, "error", err)
		}
	}

	if s.publisher != nil {
		if err := eventbus.PublishEvent(ctx, s.publisher, event); err != nil {
			s.metrics.Counter(observability.MetricEventsDropped, 1)
			level := slog.LevelError
			if errors.Is(err, eventbus.ErrPublisherUnavailable) {
				level = slog.LevelWarn
			}
			s.logger.Log(ctx, level, "failed to publish command event", "routing_key", event.RoutingKey, "error", err)
			return
		}
		s.metrics.Counter(observability.MetricEventsPublished, 1)
	}
}

func routingKey(action journal.Action) string {
	switch action {
	case journal.ActionFailed:
		return eventbus.RoutingFailed
	case journal.ActionUndone:
		return eventbus.RoutingUndone
	case journal.ActionRedone:
		return eventbus.RoutingRedone
	}
	return eventbus.RoutingExecuted
}
