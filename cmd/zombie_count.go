package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var zombieCountCmd = &cobra.Command{
	Use:               "zombie-count <root_pid> <pid>",
	Short:             "Count defunct processes under a process",
	ValidArgsFunction: completePIDs,
	Long: `Count the zombie processes in the subtree of <pid>. <pid> itself is
counted when it is a zombie.

Example:
  ptree zombie-count 1 4242

Output:
  Number of defunct descendants: <n>`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInTree(cmd, args, func(inv *invocation) error {
			count, err := inv.engine.ZombieDescendantCount(inv.pid)
			if err != nil {
				return fmt.Errorf("failed to count defunct descendants: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Number of defunct descendants: %d\n", count)
			return nil
		})
	},
}

func init() {
	RootCmd.AddCommand(zombieCountCmd)
}
