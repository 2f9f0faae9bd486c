package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/juanibiapina/ptree/internal/dispatch"
)

var continueCmd = dispatchCommand("continue",
	"Resume every stopped descendant of a process (SIGCONT)",
	`Send SIGCONT to every descendant of <pid> that is currently stopped.

Descendants in any other state are left alone.

Example:
  ptree continue 1 4242

Output:
  Continued descendant <pid>`,
	(*dispatch.Dispatcher).Continue,
	func(cmd *cobra.Command, inv *invocation, report *dispatch.Report) {
		printReport(cmd, report, func(o dispatch.Outcome) (string, string) {
			return fmt.Sprintf("Continued descendant %d", o.PID),
				fmt.Sprintf("Failed to continue descendant %d", o.PID)
		})
	},
)

func init() {
	RootCmd.AddCommand(continueCmd)
}
