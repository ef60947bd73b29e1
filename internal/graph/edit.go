package graph

import "fmt"

type editState int

const (
	editPending editState = iota
	editApplied
	editUndone
	editFailed
)

// Edit is one reversible mutation of a binding. It is executed once, then
// alternates between undo and redo. Undo and redo restore whole-binding
// snapshots, so a strict LIFO history reproduces every intermediate state.
type Edit struct {
	kind    Kind
	engine  *Engine
	binding *Binding
	desc    string
	apply   func() (string, error)
	before  snapshot
	after   snapshot
	state   editState
	result  string
}

func (e *Engine) newEdit(kind Kind, b *Binding, desc string, apply func() (string, error)) *Edit {
	return &Edit{kind: kind, engine: e, binding: b, desc: desc, apply: apply}
}

// scopedEdit resolves the exec path when the edit executes.
func (e *Engine) scopedEdit(kind Kind, b *Binding, path, desc string, fn func(s *Scope) (string, error)) *Edit {
	return e.newEdit(kind, b, desc, func() (string, error) {
		s, err := b.Scope(path)
		if err != nil {
			return "", err
		}
		return fn(s)
	})
}

// graphEdit is a scopedEdit that only applies to graph execs.
func (e *Engine) graphEdit(kind Kind, b *Binding, path, desc string, fn func(s *Scope) (string, error)) *Edit {
	return e.scopedEdit(kind, b, path, desc, func(s *Scope) (string, error) {
		if s.Exec.Kind != ExecGraph {
			return "", fmt.Errorf("%w: %q", ErrNotGraph, path)
		}
		return fn(s)
	})
}

// Kind returns the edit kind.
func (ed *Edit) Kind() Kind {
	return ed.kind
}

// Describe returns a human-readable summary of the edit.
func (ed *Edit) Describe() string {
	return ed.desc
}

// Result returns the value produced by Execute, such as the name given to a
// created node. It is empty for edits that produce nothing.
func (ed *Edit) Result() string {
	return ed.result
}

// Execute applies the edit. On failure the binding is left exactly as it was.
func (ed *Edit) Execute() error {
	if ed.state != editPending {
		return fmt.Errorf("%w: %s executed twice", ErrOperationState, ed.kind)
	}
	ed.before = ed.engine.capture(ed.binding)
	result, err := ed.apply()
	if err != nil {
		ed.engine.restore(ed.binding, ed.before)
		ed.state = editFailed
		return err
	}
	ed.result = result
	ed.after = ed.engine.capture(ed.binding)
	ed.state = editApplied
	ed.engine.logger.Debug("edit applied", "kind", ed.kind, "binding_id", ed.binding.ID)
	return nil
}

// Undo restores the state captured before Execute.
func (ed *Edit) Undo() error {
	if ed.state != editApplied {
		return fmt.Errorf("%w: %s undone before it was applied", ErrOperationState, ed.kind)
	}
	ed.engine.restore(ed.binding, ed.before)
	ed.state = editUndone
	return nil
}

// Redo restores the state captured after Execute.
func (ed *Edit) Redo() error {
	if ed.state != editUndone {
		return fmt.Errorf("%w: %s redone before it was undone", ErrOperationState, ed.kind)
	}
	ed.engine.restore(ed.binding, ed.after)
	ed.state = editApplied
	return nil
}
