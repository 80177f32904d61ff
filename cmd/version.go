package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ekaya-inc/pcb-lookup/pkg/adapters/lookupsource"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and registered sources",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "pcb-lookup %s (%s)\n", version, runtime.Version())
		for _, s := range lookupsource.RegisteredSources() {
			kind := "scan"
			if s.Indexed {
				kind = "indexed"
			}
			fmt.Fprintf(out, "  %-12s %-8s %s\n", s.Type, kind, s.DisplayName)
		}
	},
}
