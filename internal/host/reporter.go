package host

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// ErrorPrefix starts every error line the host console prints.
const ErrorPrefix = "// Error: "

// ConsoleReporter prints command errors in the host console convention and
// logs them.
type ConsoleReporter struct {
	mu     sync.Mutex
	out    io.Writer
	logger *slog.Logger
	lines  []string
}

// NewConsoleReporter writes to out, defaulting to stderr.
func NewConsoleReporter(out io.Writer, logger *slog.Logger) *ConsoleReporter {
	if out == nil {
		out = os.Stderr
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleReporter{out: out, logger: logger}
}

// ReportError implements command.Reporter.
func (r *ConsoleReporter) ReportError(command, description string) {
	line := fmt.Sprintf("%s%s: %s", ErrorPrefix, command, description)

	r.mu.Lock()
	r.lines = append(r.lines, line)
	_, _ = fmt.Fprintln(r.out, line)
	r.mu.Unlock()

	r.logger.Warn("command error reported", "command", command, "description", description)
}

// Lines returns every line reported so far.
func (r *ConsoleReporter) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}
