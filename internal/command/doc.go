// Package command dispatches named host commands onto reversible graph edits.
//
// A command type is described once by a Descriptor, which pairs an argument
// Record with the function that turns an extracted record into an engine
// Operation. Each invocation gets its own Adapter, which parses the raw
// command line against the descriptor's Syntax, executes the operation and
// later serves undo and redo. A HistoryBinding connects adapters to the host
// undo stack and rejects replays that are not strictly LIFO.
//
// Failures are classified by the sentinel they wrap: ErrArgument when the
// arguments were unusable, ErrEngine when the graph engine refused the edit,
// ErrHistory when the edit applied but could not be recorded, and
// ErrContractViolation when lifecycle calls arrive in an invalid order.
package command
