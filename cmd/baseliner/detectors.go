package baseliner

import (
	"fmt"

	"github.com/redactyl/baseliner/pkg/core"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "detectors",
		Short: "List available detectors and filters",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Detectors:")
			for _, id := range core.DetectorIDs() {
				fmt.Fprintln(out, "  "+id)
			}
			fmt.Fprintln(out, "Filters:")
			for _, id := range core.FilterIDs() {
				fmt.Fprintln(out, "  "+id)
			}
		},
	}
	rootCmd.AddCommand(cmd)
}
