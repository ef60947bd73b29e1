package command

import "log/slog"

// Operation is a single reversible graph edit built by the engine. The
// adapter that created it is its only owner.
type Operation interface {
	Execute() error
	Undo() error
	Redo() error
	Describe() string
}

// Resulter is implemented by operations that hand a value back to the
// caller, such as the name actually given to a created node.
type Resulter interface {
	Result() string
}

// Record is an argument record. Each layer of a record chain declares its own
// flags after its parent's, and extracts its own fields after its parent has
// extracted successfully.
type Record interface {
	DeclareSyntax(s *Syntax)
	Extract(a *Args) error
}

// MetadataTarget is an object whose string metadata a snapshot command edits
// directly instead of through an engine operation.
type MetadataTarget interface {
	MetadataValue(key string) string
	SetMetadataValue(key, value string) error
}

// Reporter receives user-facing error messages.
type Reporter interface {
	ReportError(command, description string)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(command, description string)

// ReportError implements Reporter.
func (f ReporterFunc) ReportError(command, description string) {
	f(command, description)
}

// LogReporter reports errors to a structured logger.
type LogReporter struct {
	Logger *slog.Logger
}

// ReportError implements Reporter.
func (r LogReporter) ReportError(command, description string) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error(command+": "+description, "command", command)
}
