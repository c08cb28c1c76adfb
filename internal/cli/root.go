// Package cli wires the histree subcommands.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command with all subcommands attached.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "histree",
		Short: "Playground for the histree undo/redo engine",
		Long: `histree demonstrates the undo/redo history engine on a text buffer.

Use "replay" to run a JSON edit script and print the resulting history
graph, or "demo" for an interactive terminal session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewReplayCommand())
	cmd.AddCommand(NewDemoCommand())

	return cmd
}
