package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:               "status <root_pid> <pid>",
	Short:             "Report whether a process is defunct",
	ValidArgsFunction: completePIDs,
	Long: `Report whether <pid> is a zombie.

Example:
  ptree status 1 4242

Output:
  Process <pid> is Defunct
  Process <pid> is Not Defunct`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInTree(cmd, args, func(inv *invocation) error {
			rec, ok := inv.engine.Lookup(inv.pid)
			if !ok {
				return fmt.Errorf("failed to get status for process %d", inv.pid)
			}
			status := "Not Defunct"
			if rec.IsZombie() {
				status = "Defunct"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Process %d is %s\n", rec.PID, status)
			return nil
		})
	},
}

func init() {
	RootCmd.AddCommand(statusCmd)
}
