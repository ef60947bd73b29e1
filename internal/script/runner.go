package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/felixgeelhaar/canvasbridge/internal/command"
	"github.com/felixgeelhaar/canvasbridge/internal/host"
)

// ErrUnexpectedSuccess is recorded when a step expected to fail succeeded.
var ErrUnexpectedSuccess = errors.New("step succeeded but an error was expected")

// Dispatcher is the part of a session a script drives.
type Dispatcher interface {
	Invoke(ctx context.Context, name string, args []string) (*host.Result, error)
	Undo(ctx context.Context) (*host.Result, error)
	Redo(ctx context.Context) (*host.Result, error)
	SetHistoryEnabled(enabled bool)
}

// StepResult is the outcome of one step. Undo and redo steps report the last
// entry they replayed.
type StepResult struct {
	Index   int    `json:"index"`
	Kind    string `json:"kind"`
	Command string `json:"command,omitempty"`
	Result  string `json:"result,omitempty"`
	// Warning is set when the command ran but was not recorded in history.
	Warning   string        `json:"warning,omitempty"`
	Error     string        `json:"error,omitempty"`
	ErrorKind string        `json:"error_kind,omitempty"`
	Duration  time.Duration `json:"duration_ns"`

	err error
}

// Err returns the error the step failed with.
func (r StepResult) Err() error {
	return r.err
}

// Failed reports whether the step failed.
func (r StepResult) Failed() bool {
	return r.Error != ""
}

// Report summarizes a script run.
type Report struct {
	Script string            `json:"script"`
	Steps  []StepResult      `json:"steps"`
	Vars   map[string]string `json:"vars,omitempty"`
	Failed int               `json:"failed"`
}

// Runner executes scripts against a dispatcher.
type Runner struct {
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewRunner creates a runner.
func NewRunner(d Dispatcher, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{dispatcher: d, logger: logger}
}

// Run executes every step in order. It stops at the first failed step unless
// the script continues on error; the returned error is that of the first
// failure. Recording is re-enabled when the run ends.
func (r *Runner) Run(ctx context.Context, s *Script) (*Report, error) {
	report := &Report{Script: s.Name, Vars: make(map[string]string)}
	defer r.dispatcher.SetHistoryEnabled(true)

	var firstErr error
	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := r.runStep(ctx, i+1, step, report.Vars)
		report.Steps = append(report.Steps, res)
		if !res.Failed() {
			continue
		}

		report.Failed++
		r.logger.WarnContext(ctx, "script step failed", "script", s.Name, "step", res.Index, "error", res.Error)
		if firstErr == nil {
			firstErr = fmt.Errorf("step %d (%s): %w", res.Index, step.Kind(), res.err)
		}
		if !s.ContinueOnError {
			break
		}
	}

	r.logger.InfoContext(ctx, "script finished",
		"script", s.Name,
		"steps", len(report.Steps),
		"failed", report.Failed,
	)
	return report, firstErr
}

func (r *Runner) runStep(ctx context.Context, index int, step Step, vars map[string]string) StepResult {
	res := StepResult{Index: index, Kind: step.Kind()}
	start := time.Now()

	switch res.Kind {
	case "command":
		res.Command = step.Command
		args := make([]string, len(step.Args))
		for i, arg := range step.Args {
			args[i] = os.Expand(arg, func(name string) string { return vars[name] })
		}
		out, err := r.dispatcher.Invoke(ctx, step.Command, args)
		if out != nil {
			res.Result = out.Result
			if step.As != "" {
				vars[step.As] = out.Result
			}
		}
		r.checkCommand(&res, step, err)

	case "undo", "redo":
		replay, n := r.dispatcher.Undo, step.Undo
		if res.Kind == "redo" {
			replay, n = r.dispatcher.Redo, step.Redo
		}
		for range n {
			out, err := replay(ctx)
			if err != nil {
				res.fail(err)
				break
			}
			res.Command = out.Command
		}

	case "history":
		r.dispatcher.SetHistoryEnabled(*step.History)
	}
	res.Duration = time.Since(start)
	return res
}

// checkCommand applies the step's error expectation. A history failure is a
// warning: the edit was applied and later steps can build on it.
func (r *Runner) checkCommand(res *StepResult, step Step, err error) {
	kind := command.KindOf(err)
	switch {
	case step.ExpectError != "" && err == nil:
		res.fail(ErrUnexpectedSuccess)
	case step.ExpectError != "" && string(kind) != step.ExpectError:
		res.fail(fmt.Errorf("expected %s error, got %s: %w", step.ExpectError, kind, err))
	case step.ExpectError != "":
		res.ErrorKind = string(kind)
	case kind == command.KindHistory:
		res.Warning = err.Error()
	case err != nil:
		res.fail(err)
	}
}

func (r *StepResult) fail(err error) {
	r.err = err
	r.Error = err.Error()
	r.ErrorKind = string(command.KindOf(err))
}
