package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/canvasbridge/pkg/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health [check...]",
	Short: "Check journal and event transport health",
	Long: `Run the host's health checks. With no arguments every check runs and the
overall status is the worst of them; otherwise only the named checks run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireApp()
		if err != nil {
			return err
		}
		registry := a.Container.Health

		var health observability.OverallHealth
		if len(args) == 0 {
			health = registry.GetOverallHealth(cmd.Context())
			args = registry.Names()
		} else {
			health = observability.OverallHealth{
				Status: observability.HealthStatusHealthy,
				Checks: make(map[string]observability.HealthCheckResult, len(args)),
			}
			for _, name := range args {
				res, ok := registry.CheckOne(cmd.Context(), name)
				if !ok {
					return fmt.Errorf("unknown health check: %s", name)
				}
				health.Checks[name] = res
				health.Status = health.Status.Worse(res.Status)
				health.Timestamp = res.Timestamp
			}
		}

		if jsonOutput {
			return printJSON(out(cmd), health)
		}
		fmt.Fprintf(out(cmd), "status: %s\n", health.Status)
		for _, name := range args {
			check := health.Checks[name]
			fmt.Fprintf(out(cmd), "  %-10s %s", name, check.Status)
			if check.Message != "" {
				fmt.Fprintf(out(cmd), " (%s)", check.Message)
			}
			fmt.Fprintln(out(cmd))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
