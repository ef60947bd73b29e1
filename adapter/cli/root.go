package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/canvasbridge/pkg/observability"
)

var (
	documentPath string
	savePath     string
	jsonOutput   bool
	verbose      bool

	logger   *slog.Logger
	logLevel *slog.LevelVar
	started  time.Time
)

var rootCmd = &cobra.Command{
	Use:   "canvas",
	Short: "canvas - scripted dataflow graph editing with undo",
	Long: `canvas drives a dataflow graph document through named commands.

Every command is validated before it touches the document, runs as one
edit, and can be undone and redone. Commands run one at a time with
"invoke" or as a YAML script with "run".`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose && logLevel != nil {
			logLevel.Set(slog.LevelDebug)
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		started = time.Now()
		cmd.SetContext(observability.WithCorrelationID(ctx, ""))
		log().DebugContext(cmd.Context(), "command start", "command", cmd.CommandPath())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log().DebugContext(cmd.Context(), "command end",
			"command", cmd.CommandPath(),
			observability.DurationKey, time.Since(started).Milliseconds(),
		)
	},
}

func log() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// reportedError marks a failure the console reporter already printed.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// Execute runs the root command under ctx and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&documentPath, "document", "d", "", "document file to load before and save after the command")
	rootCmd.PersistentFlags().StringVarP(&savePath, "save", "o", "", "save the document here instead of back to --document")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// SetLogger sets the CLI logger. When level is the LevelVar behind l,
// --verbose lowers it to debug.
func SetLogger(l *slog.Logger, level *slog.LevelVar) {
	logger, logLevel = l, level
}
