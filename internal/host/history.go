package host

import (
	"context"
	"errors"
	"log/slog"

	"github.com/felixgeelhaar/canvasbridge/internal/command"
)

// DefaultHistoryLimit is the undo depth used when none is configured.
const DefaultHistoryLimit = 100

var (
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrNothingToRedo   = errors.New("nothing to redo")
	ErrHistoryDisabled = errors.New("undo history is disabled")
)

// HistoryEntry describes one recorded invocation.
type HistoryEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Applied     bool   `json:"applied"`
}

// History is a linear undo stack. Entries below the cursor are applied;
// entries at or above it have been undone and can be redone.
type History struct {
	entries []command.Entry
	cursor  int
	limit   int
	enabled bool
	logger  *slog.Logger
}

// NewHistory creates a history holding at most limit entries. A limit of
// zero or less means DefaultHistoryLimit.
func NewHistory(limit int, logger *slog.Logger) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &History{limit: limit, enabled: true, logger: logger}
}

// Push implements command.HostHistory. It drops the redo tail and evicts the
// oldest entry once the limit is exceeded; dropped entries are released.
func (h *History) Push(e command.Entry) error {
	if !h.enabled {
		return ErrHistoryDisabled
	}
	for _, undone := range h.entries[h.cursor:] {
		undone.Release()
	}
	h.entries = append(h.entries[:h.cursor], e)
	h.cursor++

	if len(h.entries) > h.limit {
		oldest := h.entries[0]
		h.entries = h.entries[1:]
		h.cursor--
		oldest.Release()
		h.logger.Debug("history entry evicted", "command", oldest.Name(), "limit", h.limit)
	}
	return nil
}

// Undo reverts the most recently applied entry and returns it.
func (h *History) Undo(ctx context.Context) (command.Entry, error) {
	if h.cursor == 0 {
		return nil, ErrNothingToUndo
	}
	e := h.entries[h.cursor-1]
	if err := e.UndoIt(ctx); err != nil {
		return e, err
	}
	h.cursor--
	return e, nil
}

// Redo reapplies the most recently undone entry and returns it.
func (h *History) Redo(ctx context.Context) (command.Entry, error) {
	if h.cursor == len(h.entries) {
		return nil, ErrNothingToRedo
	}
	e := h.entries[h.cursor]
	if err := e.RedoIt(ctx); err != nil {
		return e, err
	}
	h.cursor++
	return e, nil
}

func (h *History) CanUndo() bool { return h.cursor > 0 }
func (h *History) CanRedo() bool { return h.cursor < len(h.entries) }

// Depth returns the number of applied entries.
func (h *History) Depth() int { return h.cursor }

// Entries lists every entry, oldest first.
func (h *History) Entries() []HistoryEntry {
	out := make([]HistoryEntry, len(h.entries))
	for i, e := range h.entries {
		out[i] = HistoryEntry{Name: e.Name(), Description: e.Description(), Applied: i < h.cursor}
	}
	return out
}

// Clear releases every entry.
func (h *History) Clear() {
	entries := h.entries
	h.entries, h.cursor = nil, 0
	for _, e := range entries {
		e.Release()
	}
}

// SetEnabled turns recording on or off. While disabled, Push refuses entries.
func (h *History) SetEnabled(enabled bool) {
	h.enabled = enabled
}

// Enabled reports whether Push accepts entries.
func (h *History) Enabled() bool {
	return h.enabled
}
