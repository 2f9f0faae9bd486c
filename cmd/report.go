package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/juanibiapina/ptree/internal/dispatch"
	"github.com/juanibiapina/ptree/internal/telemetry"
)

// printReport writes one line per outcome. Successes go to stdout, failures
// to stderr. describe returns the success line and the failure prefix.
func printReport(cmd *cobra.Command, report *dispatch.Report, describe func(o dispatch.Outcome) (done, failed string)) {
	for _, o := range report.Outcomes {
		done, failed := describe(o)
		if o.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s: %v\n", failed, o.Err)
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), done)
	}
}

// dispatchCommand builds a command that runs op over the subtree of <pid>.
func dispatchCommand(use, short, long string, op func(d *dispatch.Dispatcher, pid int) (*dispatch.Report, error), render func(cmd *cobra.Command, inv *invocation, report *dispatch.Report)) *cobra.Command {
	return &cobra.Command{
		Use:               use + " <root_pid> <pid>",
		Short:             short,
		Long:              long,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completePIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInTree(cmd, args, func(inv *invocation) error {
				// A report comes back alongside a late error (Kill's rescan),
				// so whatever was signalled is printed first.
				report, err := op(inv.dispatcher, inv.pid)
				if report != nil {
					telemetry.DispatchRun(cmd.Name(), len(report.Signaled()), len(report.Failures()), report.Reconciled())
					render(cmd, inv, report)
				}
				return err
			})
		},
	}
}
