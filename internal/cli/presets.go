package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkordes/tripproposal/internal/planner"
)

func newPresetsCmd() *cobra.Command {
	var nights int
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the named splits offered for a trip length",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			presets := planner.Presets(nights)
			if len(presets) == 0 {
				p := painterFor(out)
				_, err := fmt.Fprintln(out, p.Silent(fmt.Sprintf("no split stay for a %d-night trip", nights)))
				return err
			}
			for _, name := range presets {
				if _, err := fmt.Fprintln(out, name); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&nights, "nights", 0, "number of nights in the trip")
	_ = cmd.MarkFlagRequired("nights")
	return cmd
}
