package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type commandInfo struct {
	Name     string `json:"name"`
	Variant  string `json:"variant"`
	Undoable bool   `json:"undoable"`
	Summary  string `json:"summary,omitempty"`
}

var commandsCmd = &cobra.Command{
	Use:   "commands [name]",
	Short: "List canvas commands or show the flags of one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireApp()
		if err != nil {
			return err
		}
		registry := a.Container.Registry

		if len(args) == 1 {
			d, ok := registry.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown command: %s", args[0])
			}
			if d.Summary != "" {
				fmt.Fprintf(out(cmd), "%s\n\n", d.Summary)
			}
			fmt.Fprint(out(cmd), d.Syntax().Usage(d.Name))
			return nil
		}

		descriptors := registry.List()
		infos := make([]commandInfo, len(descriptors))
		for i, d := range descriptors {
			infos[i] = commandInfo{Name: d.Name, Variant: d.Variant.String(), Undoable: d.Undoable(), Summary: d.Summary}
		}
		if jsonOutput {
			return printJSON(out(cmd), infos)
		}
		for _, info := range infos {
			fmt.Fprintf(out(cmd), "%-36s %-10s %s\n", info.Name, info.Variant, info.Summary)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commandsCmd)
}
