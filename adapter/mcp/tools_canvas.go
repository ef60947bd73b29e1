package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/canvasbridge/internal/command"
	"github.com/felixgeelhaar/canvasbridge/internal/host"
	"github.com/felixgeelhaar/canvasbridge/pkg/observability"
)

type invokeInput struct {
	Command string   `json:"command" jsonschema:"required"`
	Args    []string `json:"args,omitempty"`
}

type invokeOutput struct {
	*host.Result
	// Warning is set when the command ran but could not be recorded for undo.
	Warning string `json:"warning,omitempty"`
}

type emptyInput struct{}

type historyOutput struct {
	Entries []host.HistoryEntry `json:"entries"`
	CanUndo bool                `json:"can_undo"`
	CanRedo bool                `json:"can_redo"`
}

type exportInput struct {
	Binding  string `json:"binding" jsonschema:"required"`
	ExecPath string `json:"exec_path,omitempty"`
}

type exportOutput struct {
	Binding string `json:"binding"`
	JSON    string `json:"json"`
}

func registerCanvasTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("canvas.invoke").
		Description("Run a canvas command with host-style flag arguments, e.g. command=dfgAddVar args=[\"-b\",\"1\",\"-n\",\"speed\",\"--type\",\"Float32\"]").
		Handler(func(ctx context.Context, input invokeInput) (*invokeOutput, error) {
			session, err := sessionOf(app)
			if err != nil {
				return nil, err
			}
			return invoke(ctx, session, input)
		})

	srv.Tool("canvas.undo").
		Description("Undo the most recent canvas command").
		Handler(func(ctx context.Context, _ emptyInput) (*host.Result, error) {
			session, err := sessionOf(app)
			if err != nil {
				return nil, err
			}
			return replayError(session.Undo(ctx))
		})

	srv.Tool("canvas.redo").
		Description("Redo the most recently undone canvas command").
		Handler(func(ctx context.Context, _ emptyInput) (*host.Result, error) {
			session, err := sessionOf(app)
			if err != nil {
				return nil, err
			}
			return replayError(session.Redo(ctx))
		})

	srv.Tool("canvas.history").
		Description("List the undo stack, oldest first").
		Handler(func(ctx context.Context, _ emptyInput) (*historyOutput, error) {
			session, err := sessionOf(app)
			if err != nil {
				return nil, err
			}
			return history(session), nil
		})

	srv.Tool("canvas.export").
		Description("Export a binding, or one exec inside it, as JSON").
		Handler(func(ctx context.Context, input exportInput) (*exportOutput, error) {
			session, err := sessionOf(app)
			if err != nil {
				return nil, err
			}
			return export(ctx, session, input)
		})

	srv.Tool("canvas.health").
		Description("Report journal and event transport health").
		Handler(func(ctx context.Context, _ emptyInput) (*observability.OverallHealth, error) {
			if app == nil || app.Container == nil {
				return nil, errors.New("application not initialized")
			}
			health := app.Container.Health.GetOverallHealth(ctx)
			return &health, nil
		})

	return nil
}

func invoke(ctx context.Context, session *host.Session, input invokeInput) (*invokeOutput, error) {
	if input.Command == "" {
		return nil, errors.New("command is required")
	}
	res, err := session.Invoke(ctx, input.Command, input.Args)
	if err != nil {
		if command.KindOf(err) == command.KindHistory && res != nil {
			return &invokeOutput{Result: res, Warning: command.Detail(err)}, nil
		}
		return nil, toolError(err)
	}
	return &invokeOutput{Result: res}, nil
}

func replayError(res *host.Result, err error) (*host.Result, error) {
	if err != nil {
		return nil, toolError(err)
	}
	return res, nil
}

func history(session *host.Session) *historyOutput {
	out := &historyOutput{Entries: session.History()}
	for _, e := range out.Entries {
		if e.Applied {
			out.CanUndo = true
		} else {
			out.CanRedo = true
		}
	}
	return out
}

func export(ctx context.Context, session *host.Session, input exportInput) (*exportOutput, error) {
	if input.Binding == "" {
		return nil, errors.New("binding is required")
	}
	args := []string{"--binding", input.Binding}
	if input.ExecPath != "" {
		args = append(args, "--execPath", input.ExecPath)
	}
	res, err := session.Invoke(ctx, "dfgExportJSON", args)
	if err != nil {
		return nil, toolError(err)
	}
	return &exportOutput{Binding: input.Binding, JSON: res.Result}, nil
}

// toolError prefixes the failure with its kind so clients can tell a bad
// argument from an engine refusal.
func toolError(err error) error {
	kind := command.KindOf(err)
	if kind == command.KindOther {
		return err
	}
	return fmt.Errorf("%s error: %s: %w", kind, command.Detail(err), err)
}
