package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/canvasbridge/internal/script"
)

var runCmd = &cobra.Command{
	Use:   "run <script.yaml>",
	Short: "Replay a YAML command script",
	Long: `Replay a YAML script of commands, undo and redo steps against the document.

The document is saved when every step passed, or when the script sets
continueOnError.

Examples:
  canvas run build.yaml -o doc.json
  canvas -d doc.json run tweak.yaml --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireApp()
		if err != nil {
			return err
		}
		s, err := script.Load(args[0])
		if err != nil {
			return err
		}
		if err := a.loadDocument(); err != nil {
			return err
		}

		runner := script.NewRunner(a.Container.Session, log())
		report, runErr := runner.Run(cmd.Context(), s)

		if jsonOutput {
			if err := printJSON(out(cmd), report); err != nil {
				return err
			}
		} else {
			printReport(cmd, report)
		}

		if runErr == nil || s.ContinueOnError {
			if err := a.saveDocument(); err != nil {
				return err
			}
		}
		if runErr != nil {
			return &reportedError{err: runErr}
		}
		return nil
	},
}

func printReport(cmd *cobra.Command, report *script.Report) {
	w := out(cmd)
	for _, step := range report.Steps {
		status := "ok"
		switch {
		case step.Failed():
			status = "FAILED"
		case step.ErrorKind != "":
			status = "failed as expected (" + step.ErrorKind + ")"
		case step.Warning != "":
			status = "not recorded"
		}
		fmt.Fprintf(w, "%3d  %-8s %-36s %s", step.Index, step.Kind, step.Command, status)
		if step.Result != "" {
			fmt.Fprintf(w, "  -> %s", step.Result)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "\n%s: %d steps, %d failed\n", report.Script, len(report.Steps), report.Failed)
}

func init() {
	rootCmd.AddCommand(runCmd)
}
