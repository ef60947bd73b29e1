package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/canvasbridge/internal/command"
)

var invokeCmd = &cobra.Command{
	Use:   "invoke <command> [command flags]",
	Short: "Run one canvas command",
	Long: `Run one canvas command against the document.

Everything after the command name is passed to the command, so canvas flags
such as --document must come first.

Examples:
  canvas invoke dfgCreateBinding --name main
  canvas -d doc.json invoke dfgAddVar -b 1 -n speed --type Float32 -x 40 -y 80
  canvas -d doc.json invoke dfgExportJSON -b 1`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireApp()
		if err != nil {
			return err
		}
		if err := a.loadDocument(); err != nil {
			return err
		}

		res, err := a.Container.Session.Invoke(cmd.Context(), args[0], args[1:])
		if err != nil && command.KindOf(err) != command.KindHistory {
			return &reportedError{err: err}
		}

		if jsonOutput {
			if perr := printJSON(out(cmd), res); perr != nil {
				return perr
			}
		} else if res.Result != "" {
			fmt.Fprintln(out(cmd), res.Result)
		}

		if serr := a.saveDocument(); serr != nil {
			return serr
		}
		if err != nil {
			return &reportedError{err: err}
		}
		return nil
	},
}

func init() {
	invokeCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(invokeCmd)
}
