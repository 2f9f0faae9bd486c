package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/juanibiapina/ptree/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ptree version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ptree %s\n", version.Version)
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
