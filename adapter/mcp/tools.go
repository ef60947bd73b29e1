// Package mcp maps the canvas session onto MCP tools, resources and prompts.
package mcp

import (
	"errors"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/canvasbridge/adapter/cli"
)

// ToolDependencies carries the application every handler dispatches into.
// Handlers resolve the session per call, so an App without a container
// registers fine and fails at call time.
type ToolDependencies struct {
	App *cli.App
}

// RegisterCLITools registers the dispatch tools (canvas.invoke, undo, redo,
// history, export, health) and the catalogue tools (commands, syntax).
func RegisterCLITools(srv *mcp.Server, deps ToolDependencies) error {
	switch {
	case srv == nil:
		return errors.New("server is required")
	case deps.App == nil:
		return errors.New("app is required")
	}
	for _, register := range []func(*mcp.Server, ToolDependencies) error{
		registerCanvasTools,
		registerCatalogueTools,
	} {
		if err := register(srv, deps); err != nil {
			return err
		}
	}
	return nil
}
