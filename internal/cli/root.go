// Package cli implements the splitstay command: offline split planning and
// proposal pricing against the same planner and calculator the API uses.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo records build metadata for the version command.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// NewRootCmd builds the command tree. Each call returns fresh commands so
// tests can run them in isolation.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "splitstay",
		Short:         "Plan split stays and price travel proposals",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newPlanCmd())
	root.AddCommand(newPresetsCmd())
	root.AddCommand(newPriceCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the command tree and prints a failing command's error.
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		p := painterFor(root.ErrOrStderr())
		root.PrintErrln(p.Error("error: " + err.Error()))
	}
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "splitstay %s (commit: %s, built: %s)\n", appVersion, appCommit, appDate)
		},
	}
}
