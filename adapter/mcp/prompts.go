package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/canvasbridge/adapter/cli"
)

const buildGraphPrompt = `Help me build a dataflow graph. Please:

1. Read canvas://commands to see what is available
2. Use canvas.syntax before calling a command for the first time
3. Create a binding with canvas.invoke command=dfgCreateBinding
4. Add variables, nodes and connections with canvas.invoke, using the binding id it returned
5. Export the result with canvas.export

If a command fails with an argument error, fix the flags and retry.
If it fails with an engine error, the document was left unchanged.
Use canvas.undo to step back from anything I do not like.`

const reviewHistoryPrompt = `Read canvas://history and summarise each applied edit in one line.
List undone edits separately and say whether canvas.redo would bring them back.`

const explainCommandPrompt = `Explain the canvas command %s to me.

Its arguments:

%s
Say what the command changes in the document, whether canvas.undo can revert it,
and give one example canvas.invoke call with realistic flag values.`

func userPrompt(description, text string) *mcp.PromptResult {
	return &mcp.PromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{{
			Role:    string(mcp.RoleUser),
			Content: mcp.TextContent{Type: "text", Text: text},
		}},
	}
}

// RegisterPrompts registers prompts for common canvas workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}

	srv.Prompt("build_graph").
		Description("Walk through building a small dataflow graph with canvas commands.").
		Handler(func(context.Context, map[string]string) (*mcp.PromptResult, error) {
			return userPrompt("Build a graph", buildGraphPrompt), nil
		})

	srv.Prompt("review_history").
		Description("Summarise what the session changed, using the undo stack.").
		Handler(func(context.Context, map[string]string) (*mcp.PromptResult, error) {
			return userPrompt("Review history", reviewHistoryPrompt), nil
		})

	srv.Prompt("explain_command").
		Description("Explain one canvas command from its argument syntax.").
		Argument("command", "Name of the command, such as dfgConnect", true).
		Handler(func(_ context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return explainCommand(deps.App, args["command"])
		})

	return nil
}

func explainCommand(app *cli.App, name string) (*mcp.PromptResult, error) {
	session, err := sessionOf(app)
	if err != nil {
		return nil, err
	}
	syntax, err := session.Registry().Syntax(name)
	if err != nil {
		return nil, err
	}
	return userPrompt("Explain "+name, fmt.Sprintf(explainCommandPrompt, name, syntax.Usage(name))), nil
}
