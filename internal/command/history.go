package command

import (
	"context"
	"errors"
	"log/slog"
	"slices"
)

// ErrOutOfOrder is carried by ContractError when the host replays history
// entries in an order other than strict LIFO.
var ErrOutOfOrder = errors.New("history replayed out of order")

// Entry is what the host history stores for one undoable invocation.
type Entry interface {
	Name() string
	Description() string
	UndoIt(ctx context.Context) error
	RedoIt(ctx context.Context) error
	Release()
}

// HostHistory is the host's undo stack.
type HostHistory interface {
	Push(entry Entry) error
}

// HistoryBinding registers executed adapters with the host history and
// enforces that the host undoes and redoes them in LIFO order.
type HistoryBinding struct {
	host    HostHistory
	applied []*Adapter
	undone  []*Adapter
	logger  *slog.Logger
}

// NewHistoryBinding binds adapters to host.
func NewHistoryBinding(host HostHistory, logger *slog.Logger) *HistoryBinding {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryBinding{host: host, logger: logger}
}

// Register records an executed adapter. Non-undoable adapters are ignored.
// Once the host accepts the entry, every undone entry is released, since the
// document no longer matches the state they would redo onto. When the host
// refuses the entry the mutation stays applied, every tracked entry is
// released because none of them can replay onto the changed document, and a
// HistoryError is returned.
func (b *HistoryBinding) Register(ctx context.Context, a *Adapter) error {
	if a == nil {
		return &ContractError{Call: "register", Err: errors.New("nil adapter")}
	}
	if !a.IsUndoable() {
		return nil
	}
	if a.State() != StateExecuted {
		return a.violation("register", nil)
	}

	if err := b.host.Push(&boundEntry{binding: b, adapter: a}); err != nil {
		b.Reset()
		b.logger.WarnContext(ctx, "history rejected command", "command", a.Name(), "error", err)
		return a.fail(&HistoryError{Command: a.Name(), Err: err})
	}

	for _, u := range b.undone {
		u.Release()
	}
	b.undone = nil
	b.applied = append(b.applied, a)
	return nil
}

// Applied returns the names of registered entries that are currently applied, oldest first.
func (b *HistoryBinding) Applied() []string {
	return adapterNames(b.applied)
}

// Undone returns the names of entries available for redo, most recently undone last.
func (b *HistoryBinding) Undone() []string {
	return adapterNames(b.undone)
}

// Reset releases every tracked adapter.
func (b *HistoryBinding) Reset() {
	for _, a := range b.applied {
		a.Release()
	}
	for _, a := range b.undone {
		a.Release()
	}
	b.applied, b.undone = nil, nil
}

func (b *HistoryBinding) undo(ctx context.Context, a *Adapter) error {
	if n := len(b.applied); n == 0 || b.applied[n-1] != a {
		return a.violation("undoIt", ErrOutOfOrder)
	}
	if err := a.UndoIt(ctx); err != nil {
		return err
	}
	b.applied = b.applied[:len(b.applied)-1]
	b.undone = append(b.undone, a)
	return nil
}

func (b *HistoryBinding) redo(ctx context.Context, a *Adapter) error {
	if n := len(b.undone); n == 0 || b.undone[n-1] != a {
		return a.violation("redoIt", ErrOutOfOrder)
	}
	if err := a.RedoIt(ctx); err != nil {
		return err
	}
	b.undone = b.undone[:len(b.undone)-1]
	b.applied = append(b.applied, a)
	return nil
}

func (b *HistoryBinding) release(a *Adapter) {
	b.applied = slices.DeleteFunc(b.applied, func(x *Adapter) bool { return x == a })
	b.undone = slices.DeleteFunc(b.undone, func(x *Adapter) bool { return x == a })
	a.Release()
}

func adapterNames(as []*Adapter) []string {
	names := make([]string, len(as))
	for i, a := range as {
		names[i] = a.Name()
	}
	return names
}

// boundEntry is the host-facing handle of one registered adapter.
type boundEntry struct {
	binding *HistoryBinding
	adapter *Adapter
}

func (e *boundEntry) Name() string {
	return e.adapter.Name()
}

func (e *boundEntry) Description() string {
	return e.adapter.Description()
}

func (e *boundEntry) UndoIt(ctx context.Context) error {
	return e.binding.undo(ctx, e.adapter)
}

func (e *boundEntry) RedoIt(ctx context.Context) error {
	return e.binding.redo(ctx, e.adapter)
}

func (e *boundEntry) Release() {
	e.binding.release(e.adapter)
}
