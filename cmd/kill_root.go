package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var killRootCmd = &cobra.Command{
	Use:               "kill-root <root_pid> <pid>",
	Short:             "Kill the root process (SIGKILL)",
	ValidArgsFunction: completePIDs,
	Long: `Send SIGKILL to <root_pid> only. Its descendants are not signalled and
are adopted by init.

<pid> must still belong to the tree, like every other command.

Example:
  ptree kill-root 4242 4243

Output:
  Root process <root_pid> terminated successfully

Exit codes:
  0: Signal delivered (or <pid> not in the tree)
  1: Error (root not found, failed to send signal)`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInTree(cmd, args, func(inv *invocation) error {
			if err := inv.dispatcher.KillRoot(inv.root); err != nil {
				return fmt.Errorf("failed to kill root process %d: %w", inv.root, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Root process %d terminated successfully\n", inv.root)
			return nil
		})
	},
}

func init() {
	RootCmd.AddCommand(killRootCmd)
}
