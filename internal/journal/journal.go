// Package journal keeps a durable record of every command invocation and
// replay: what ran, with which arguments, and how it ended.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Action is what happened to an invocation.
type Action string

const (
	ActionExecuted Action = "executed"
	ActionFailed   Action = "failed"
	ActionUndone   Action = "undone"
	ActionRedone   Action = "redone"
)

// ErrInvalidEntry is returned when an entry lacks a command or an action.
var ErrInvalidEntry = errors.New("invalid journal entry")

// Entry is one journal line.
type Entry struct {
	ID           uuid.UUID
	InvocationID string
	ContextID    string
	Command      string
	Action       Action
	Args         []string
	Description  string
	Result       string
	ErrorKind    string
	Error        string
	Duration     time.Duration
	OccurredAt   time.Time
}

// NewEntry creates an entry stamped with a fresh id and the current time.
func NewEntry(command string, action Action) *Entry {
	return &Entry{
		ID:         uuid.New(),
		Command:    command,
		Action:     action,
		OccurredAt: time.Now().UTC(),
	}
}

func (e *Entry) validate() error {
	if e.Command == "" || e.Action == "" {
		return ErrInvalidEntry
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	return nil
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Command      string
	Action       Action
	InvocationID string
	// Limit keeps the most recent entries; zero means no limit.
	Limit int
}

func (f Filter) match(e *Entry) bool {
	return (f.Command == "" || e.Command == f.Command) &&
		(f.Action == "" || e.Action == f.Action) &&
		(f.InvocationID == "" || e.InvocationID == f.InvocationID)
}

// Repository stores journal entries. List returns entries oldest first.
type Repository interface {
	Append(ctx context.Context, entries ...*Entry) error
	List(ctx context.Context, filter Filter) ([]*Entry, error)
}
