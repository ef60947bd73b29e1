// Package mcp holds the "canvas mcp" command group.
package mcp

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/canvasbridge/adapter/cli"
	mcpinternal "github.com/felixgeelhaar/canvasbridge/internal/mcp"
)

// Cmd groups the MCP subcommands under "canvas mcp".
var Cmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the canvas session over MCP",
}

var addr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start an MCP server over HTTP that exposes the canvas commands as tools.

The document given with --document is loaded first. Set MCP_AUTH_TOKEN to
require a bearer token.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.Container == nil {
			return errors.New("application not initialized")
		}
		if err := cli.LoadDocument(app); err != nil {
			return err
		}

		cfg := *app.Container.Config
		if addr != "" {
			cfg.MCPAddr = addr
		}

		err := mcpinternal.Serve(cmd.Context(), &cfg, app, cli.Version, app.Container.Logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	Cmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides MCP_ADDR")
}
