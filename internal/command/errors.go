package command

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying command failures. Every error returned by an
// adapter or a history binding wraps exactly one of them.
var (
	// ErrArgument marks failures of argument parsing, coercion or resolution.
	// Nothing was mutated.
	ErrArgument = errors.New("invalid argument")

	// ErrEngine marks failures reported by the graph engine while building or
	// executing an operation. Nothing was mutated.
	ErrEngine = errors.New("engine rejected command")

	// ErrHistory marks a command that executed but could not be recorded in
	// the host history. The mutation stays applied.
	ErrHistory = errors.New("history rejected command")

	// ErrContractViolation marks calls made in an order the command lifecycle
	// does not allow, such as undoing a command that never executed.
	ErrContractViolation = errors.New("command contract violation")
)

// Registry errors.
var (
	ErrNameRequired       = errors.New("command name is required")
	ErrAlreadyRegistered  = errors.New("command already registered")
	ErrUnknownCommand     = errors.New("unknown command")
	ErrNotInitialized     = errors.New("command registry not initialized")
	ErrAlreadyInitialized = errors.New("command registry already initialized")
)

// Reason tells why an argument was rejected.
type Reason string

const (
	ReasonMissing    Reason = "missing"
	ReasonInvalid    Reason = "invalid value"
	ReasonUnresolved Reason = "unresolved"
	ReasonUnknown    Reason = "unknown"
	ReasonMismatch   Reason = "mismatch"
)

// ArgumentError reports a flag that could not be turned into a typed value.
type ArgumentError struct {
	// Command is the name of the command being invoked.
	Command string

	// Flag is the long flag name, empty when the failure is not tied to one flag.
	Flag string

	Reason Reason

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return e.Command + ": " + e.Detail()
}

// Detail describes the failure without the command name.
func (e *ArgumentError) Detail() string {
	var msg string
	if e.Flag != "" {
		msg = fmt.Sprintf("flag -%s: %s", e.Flag, e.Reason)
	} else {
		msg = string(e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the classification sentinel and the underlying error.
func (e *ArgumentError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrArgument}
	}
	return []error{ErrArgument, e.Err}
}

// EngineError reports a failure raised by the graph engine.
type EngineError struct {
	Command string
	Err     error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return e.Command + ": " + e.Detail()
}

// Detail describes the failure without the command name.
func (e *EngineError) Detail() string {
	return e.Err.Error()
}

// Unwrap returns the classification sentinel and the underlying error.
func (e *EngineError) Unwrap() []error {
	return []error{ErrEngine, e.Err}
}

// HistoryError reports a command whose mutation succeeded but which the host
// history refused. The caller decides whether to keep the result.
type HistoryError struct {
	Command string
	Err     error
}

// Error implements the error interface.
func (e *HistoryError) Error() string {
	return e.Command + ": " + e.Detail()
}

// Detail describes the failure without the command name.
func (e *HistoryError) Detail() string {
	return "executed but not recorded in history: " + e.Err.Error()
}

// Unwrap returns the classification sentinel and the underlying error.
func (e *HistoryError) Unwrap() []error {
	return []error{ErrHistory, e.Err}
}

// ContractError reports a lifecycle call made out of order.
type ContractError struct {
	Command string

	// Call is the lifecycle call that was rejected, such as "undoIt".
	Call string

	// State is the adapter state at the time of the call.
	State State

	Err error
}

// Error implements the error interface.
func (e *ContractError) Error() string {
	return e.Command + ": " + e.Detail()
}

// Detail describes the failure without the command name.
func (e *ContractError) Detail() string {
	msg := fmt.Sprintf("%s not allowed in state %s", e.Call, e.State)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the classification sentinel and the underlying error.
func (e *ContractError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrContractViolation}
	}
	return []error{ErrContractViolation, e.Err}
}

// ErrorKind is the classification of a command failure.
type ErrorKind string

const (
	KindNone     ErrorKind = ""
	KindArgument ErrorKind = "argument"
	KindEngine   ErrorKind = "engine"
	KindHistory  ErrorKind = "history"
	KindContract ErrorKind = "contract"
	KindOther    ErrorKind = "other"
)

// KindOf classifies err by the sentinel it wraps.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrArgument):
		return KindArgument
	case errors.Is(err, ErrEngine):
		return KindEngine
	case errors.Is(err, ErrHistory):
		return KindHistory
	case errors.Is(err, ErrContractViolation):
		return KindContract
	}
	return KindOther
}

// detailer is implemented by every command error so that reporters can print
// the failure after the command name without repeating it.
type detailer interface {
	Detail() string
}

// Detail returns the description of err without its command prefix.
func Detail(err error) string {
	var d detailer
	if errors.As(err, &d) {
		return d.Detail()
	}
	return err.Error()
}

// Missing returns an ArgumentError for a required flag that was not given.
func Missing(command, flag string) *ArgumentError {
	return &ArgumentError{Command: command, Flag: flag, Reason: ReasonMissing}
}

// Invalid returns an ArgumentError for a flag value that is malformed or out of range.
func Invalid(command, flag string, err error) *ArgumentError {
	return &ArgumentError{Command: command, Flag: flag, Reason: ReasonInvalid, Err: err}
}

// Unresolved returns an ArgumentError for a flag naming an object that does not exist.
func Unresolved(command, flag string, err error) *ArgumentError {
	return &ArgumentError{Command: command, Flag: flag, Reason: ReasonUnresolved, Err: err}
}
