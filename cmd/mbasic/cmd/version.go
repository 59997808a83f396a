package cmd

import (
	"fmt"

	"github.com/msto63/mbasic/pkg/core/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, version.Info())
		for _, c := range []string{"language", "server", "rpc", "repl"} {
			fmt.Fprintf(out, "  %-9s %s\n", c+":", version.ComponentVersion(c))
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
