package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/juanibiapina/ptree/internal/dispatch"
)

var stopCmd = dispatchCommand("stop",
	"Pause every descendant of a process (SIGSTOP)",
	`Send SIGSTOP to every descendant of <pid>.

A process that cannot be signalled is reported on stderr and the rest of
the subtree is still stopped. <pid> itself is not signalled.

Example:
  ptree stop 1 4242

Output:
  Stopped descendant <pid>`,
	(*dispatch.Dispatcher).Stop,
	func(cmd *cobra.Command, inv *invocation, report *dispatch.Report) {
		printReport(cmd, report, func(o dispatch.Outcome) (string, string) {
			return fmt.Sprintf("Stopped descendant %d", o.PID),
				fmt.Sprintf("Failed to stop descendant %d", o.PID)
		})
	},
)

func init() {
	RootCmd.AddCommand(stopCmd)
}
