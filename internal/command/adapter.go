package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/felixgeelhaar/canvasbridge/pkg/observability"
)

// State is the lifecycle position of an adapter.
type State int

const (
	StateCreated State = iota
	StateValidating
	StateValidationFailed
	StateValidated
	StateExecuting
	StateExecutionFailed
	StateExecuted
	StateUndone
	StateReleased
)

var stateNames = [...]string{
	StateCreated:          "created",
	StateValidating:       "validating",
	StateValidationFailed: "validation-failed",
	StateValidated:        "validated",
	StateExecuting:        "executing",
	StateExecutionFailed:  "execution-failed",
	StateExecuted:         "executed",
	StateUndone:           "undone",
	StateReleased:         "released",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if int(s) >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Lifecycle errors carried by ContractError.
var (
	ErrAlreadyInvoked = errors.New("command already invoked")
	ErrNotUndoable    = errors.New("command is not undoable")
	ErrReleased       = errors.New("command released")
)

// Adapter is one invocation of a command. It validates arguments, builds and
// executes the operation, and then serves undo and redo for the host. An
// adapter is invoked exactly once; a failed invocation is terminal.
type Adapter struct {
	desc     Descriptor
	plan     plan
	state    State
	args     []string
	op       Operation
	snap     *metadataSnapshot
	result   string
	summary  string
	reporter Reporter
	logger   *slog.Logger
}

type metadataSnapshot struct {
	target   MetadataTarget
	key      string
	oldValue string
	newValue string
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithReporter sets where user-facing errors are reported.
func WithReporter(r Reporter) AdapterOption {
	return func(a *Adapter) {
		a.reporter = r
	}
}

// WithLogger sets the adapter logger.
func WithLogger(l *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		a.logger = l
	}
}

// NewAdapter returns an adapter for one invocation of the described command.
func NewAdapter(desc Descriptor, opts ...AdapterOption) *Adapter {
	a := &Adapter{desc: desc}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.reporter == nil {
		a.reporter = LogReporter{Logger: a.logger}
	}
	a.logger = a.logger.With("command", desc.Name)
	if desc.newPlan != nil {
		a.plan = desc.newPlan()
	}
	return a
}

// Name returns the command name.
func (a *Adapter) Name() string {
	return a.desc.Name
}

// Descriptor returns the command type of the adapter.
func (a *Adapter) Descriptor() Descriptor {
	return a.desc
}

// State returns the current lifecycle state.
func (a *Adapter) State() State {
	return a.state
}

// IsUndoable reports whether the host should record this invocation.
func (a *Adapter) IsUndoable() bool {
	return a.desc.Undoable()
}

// Args returns the raw arguments of the invocation.
func (a *Adapter) Args() []string {
	return slices.Clone(a.args)
}

// Result returns the value produced by the invocation, if any.
func (a *Adapter) Result() string {
	return a.result
}

// Description summarizes what the invocation did. It survives Release.
func (a *Adapter) Description() string {
	switch {
	case a.summary != "":
		return a.summary
	case a.op != nil:
		return a.op.Describe()
	case a.snap != nil:
		return fmt.Sprintf("set %s to %q", a.snap.key, a.snap.newValue)
	}
	return a.desc.Name
}

// DoIt validates raw, then builds and executes the command. Validation
// failures are ArgumentErrors, engine failures are EngineErrors; in both
// cases nothing was mutated and the adapter cannot be invoked again.
func (a *Adapter) DoIt(ctx context.Context, raw []string) error {
	if a.state != StateCreated {
		return a.violation("doIt", ErrAlreadyInvoked)
	}
	a.args = slices.Clone(raw)
	ctx = observability.WithCommand(ctx, a.desc.Name)

	a.state = StateValidating
	if err := a.validate(raw); err != nil {
		a.state = StateValidationFailed
		return a.fail(err)
	}
	a.state = StateValidated

	a.state = StateExecuting
	if err := a.execute(ctx); err != nil {
		a.state = StateExecutionFailed
		return a.fail(&EngineError{Command: a.desc.Name, Err: err})
	}
	a.state = StateExecuted
	a.logger.DebugContext(ctx, "command executed", "variant", a.desc.Variant, "result", a.result)
	return nil
}

func (a *Adapter) validate(raw []string) error {
	if a.plan.record == nil {
		return &ContractError{Command: a.desc.Name, Call: "doIt", State: a.state, Err: errors.New("descriptor has no record")}
	}
	args, err := ParseArgs(a.desc.Name, a.desc.syntax, raw)
	if err != nil {
		return err
	}
	if rest := args.Positionals(); len(rest) > 0 {
		return &ArgumentError{Command: a.desc.Name, Reason: ReasonUnknown, Err: fmt.Errorf("unexpected arguments %q", rest)}
	}
	if err := a.plan.record.Extract(args); err != nil {
		var argErr *ArgumentError
		var contractErr *ContractError
		if errors.As(err, &argErr) || errors.As(err, &contractErr) {
			return err
		}
		return &ArgumentError{Command: a.desc.Name, Reason: ReasonInvalid, Err: err}
	}
	return nil
}

func (a *Adapter) execute(ctx context.Context) error {
	switch a.desc.Variant {
	case VariantOperation:
		op, err := a.plan.build(ctx)
		if err != nil {
			return err
		}
		if op == nil {
			return errors.New("no operation built")
		}
		if err := op.Execute(); err != nil {
			return err
		}
		a.op = op
		if r, ok := op.(Resulter); ok {
			a.result = r.Result()
		}
	case VariantQuery:
		result, err := a.plan.query(ctx)
		if err != nil {
			return err
		}
		a.result = result
	case VariantSnapshot:
		target, key, value, err := a.plan.snapshot(ctx)
		if err != nil {
			return err
		}
		old := target.MetadataValue(key)
		if err := target.SetMetadataValue(key, value); err != nil {
			return err
		}
		a.snap = &metadataSnapshot{target: target, key: key, oldValue: old, newValue: value}
	default:
		return fmt.Errorf("unknown variant %d", a.desc.Variant)
	}
	return nil
}

// UndoIt reverts an executed invocation.
func (a *Adapter) UndoIt(ctx context.Context) error {
	if err := a.checkReplay("undoIt", StateExecuted); err != nil {
		return err
	}
	var err error
	if a.snap != nil {
		err = a.snap.target.SetMetadataValue(a.snap.key, a.snap.oldValue)
	} else {
		err = a.op.Undo()
	}
	if err != nil {
		return a.fail(&EngineError{Command: a.desc.Name, Err: err})
	}
	a.state = StateUndone
	a.logger.DebugContext(ctx, "command undone")
	return nil
}

// RedoIt reapplies an undone invocation.
func (a *Adapter) RedoIt(ctx context.Context) error {
	if err := a.checkReplay("redoIt", StateUndone); err != nil {
		return err
	}
	var err error
	if a.snap != nil {
		err = a.snap.target.SetMetadataValue(a.snap.key, a.snap.newValue)
	} else {
		err = a.op.Redo()
	}
	if err != nil {
		return a.fail(&EngineError{Command: a.desc.Name, Err: err})
	}
	a.state = StateExecuted
	a.logger.DebugContext(ctx, "command redone")
	return nil
}

func (a *Adapter) checkReplay(call string, want State) error {
	switch {
	case a.state == StateReleased:
		return a.violation(call, ErrReleased)
	case !a.IsUndoable():
		return a.violation(call, ErrNotUndoable)
	case a.state != want:
		return a.violation(call, nil)
	case a.op == nil && a.snap == nil:
		return a.violation(call, errors.New("nothing to replay"))
	}
	return nil
}

// Release drops the operation. It is called when the host evicts the
// invocation from history and is safe to call more than once.
func (a *Adapter) Release() {
	if a.state == StateReleased {
		return
	}
	a.summary = a.Description()
	a.op = nil
	a.snap = nil
	a.state = StateReleased
}

func (a *Adapter) violation(call string, err error) error {
	return a.fail(&ContractError{Command: a.desc.Name, Call: call, State: a.state, Err: err})
}

func (a *Adapter) fail(err error) error {
	a.reporter.ReportError(a.desc.Name, Detail(err))
	return err
}
