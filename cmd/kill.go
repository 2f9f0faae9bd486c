package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/juanibiapina/ptree/internal/dispatch"
)

var killCmd = dispatchCommand("kill",
	"Kill every descendant of a process (SIGKILL)",
	`Send SIGKILL to every descendant of <pid>, most recently discovered first.

After the first pass the tree is scanned once more and anything still in it
(for example a child forked while the first pass ran) is killed too.
<pid> itself is not signalled; see kill-root.

Example:
  ptree kill 1 4242

Output:
  Killed descendant <pid>
  Killed missed descendant <pid>`,
	(*dispatch.Dispatcher).Kill,
	func(cmd *cobra.Command, inv *invocation, report *dispatch.Report) {
		if report.Overflow {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: more than %d descendants; this may take a while\n", cfg.Kill.WarnThreshold)
		}
		printReport(cmd, report, func(o dispatch.Outcome) (string, string) {
			if o.Pass == dispatch.PassReconcile {
				return fmt.Sprintf("Killed missed descendant %d", o.PID),
					fmt.Sprintf("Failed to kill missed descendant %d", o.PID)
			}
			return fmt.Sprintf("Killed descendant %d", o.PID),
				fmt.Sprintf("Failed to kill descendant %d", o.PID)
		})
		if missed := report.Reconciled(); missed > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Note: %d descendants were missed in first pass and killed in second\n", missed)
		}
	},
)

func init() {
	RootCmd.AddCommand(killCmd)
}
