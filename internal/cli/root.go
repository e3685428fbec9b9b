// Package cli wires the agent's commands: the long-running serve loop plus
// offline project and export tooling that works straight against the
// database.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/cutroom/cutroom-agent/internal/config"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command for the Cutroom Agent CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cutroom-agent",
		Short: "Cutroom Agent - local timeline editing and preview engine",
		Long: `The Cutroom Agent hosts a multi-track timeline with a synchronized
preview engine, served over a loopback HTTP API for the studio UI.

Run it with "serve"; the other commands work on the same database
without a running agent.`,
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewProjectsCommand(opts))

	return cmd
}
