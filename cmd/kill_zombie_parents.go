package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/juanibiapina/ptree/internal/dispatch"
)

var killZombieParentsCmd = dispatchCommand("kill-zombie-parents",
	"Kill the parent of every defunct descendant",
	`Send SIGKILL to the parent of every zombie in the tree of <pid>,
<pid> itself included.

Killing the parent lets init adopt and reap the zombie. Zombies sharing a
parent each trigger an attempt, so later attempts usually fail because the
parent is already gone.

Example:
  ptree kill-zombie-parents 1 4242

Output:
  Killed parent <ppid> of zombie process <pid>`,
	(*dispatch.Dispatcher).KillZombieParents,
	func(cmd *cobra.Command, inv *invocation, report *dispatch.Report) {
		if len(report.Outcomes) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No zombie processes found among descendants of %d\n", inv.pid)
			return
		}
		printReport(cmd, report, func(o dispatch.Outcome) (string, string) {
			return fmt.Sprintf("Killed parent %d of zombie process %d", o.PID, o.Zombie),
				fmt.Sprintf("Failed to kill parent %d of zombie %d", o.PID, o.Zombie)
		})
	},
)

func init() {
	RootCmd.AddCommand(killZombieParentsCmd)
}
