package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/juanibiapina/ptree/internal/config"
	"github.com/juanibiapina/ptree/internal/dispatch"
	"github.com/juanibiapina/ptree/internal/tree"
)

// invocation is a validated <root_pid> <pid> pair bound to a tree engine.
type invocation struct {
	root       int
	pid        int
	engine     *tree.Engine
	dispatcher *dispatch.Dispatcher
}

func newEngine() (*tree.Engine, error) {
	src, err := newSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open process table: %w", err)
	}
	return tree.New(src, tree.WithMaxHops(cfg.MaxHops)), nil
}

func newDispatcher(engine *tree.Engine) *dispatch.Dispatcher {
	return dispatch.New(engine, newSender(), dispatch.WithWarnThreshold(cfg.Kill.WarnThreshold))
}

// gate parses <root_pid> <pid> and checks that pid belongs to the tree
// rooted at root_pid. A target outside the tree is returned as
// tree.ErrNotInTree for the caller to report or ignore.
func gate(args []string) (*invocation, error) {
	root, rootErr := config.ParsePID(args[0])
	pid, pidErr := config.ParsePID(args[1])
	if rootErr != nil || pidErr != nil {
		return nil, fmt.Errorf("process IDs must be positive integers (got root_pid=%s, pid=%s)", args[0], args[1])
	}

	engine, err := newEngine()
	if err != nil {
		return nil, err
	}

	err = engine.Check(root, pid)
	switch {
	case errors.Is(err, tree.ErrRootNotFound):
		return nil, fmt.Errorf("root process %d does not exist or is inaccessible", root)
	case err != nil:
		return nil, err
	}

	return &invocation{
		root:       root,
		pid:        pid,
		engine:     engine,
		dispatcher: newDispatcher(engine),
	}, nil
}

// runInTree gates args and only then calls run.
//
// A missing root is an error. A target outside the tree prints a notice and
// succeeds without calling run. A process table that cannot be scanned is
// reported on stderr without failing the command.
func runInTree(cmd *cobra.Command, args []string, run func(inv *invocation) error) error {
	inv, err := gate(args)
	if err == nil {
		err = run(inv)
	}
	switch {
	case errors.Is(err, tree.ErrNotInTree):
		root, _ := config.ParsePID(args[0])
		pid, _ := config.ParsePID(args[1])
		fmt.Fprintf(cmd.OutOrStdout(), "Notice: Process %d does not belong to the tree rooted at %d\n", pid, root)
		return nil
	case errors.Is(err, tree.ErrScan):
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return nil
	}
	return err
}

// printPIDs writes one PID per line.
func printPIDs(w io.Writer, pids []int) {
	var b strings.Builder
	for _, pid := range pids {
		b.WriteString(strconv.Itoa(pid))
		b.WriteByte('\n')
	}
	io.WriteString(w, b.String())
}

// pidQueryCommand builds a command that prints the PIDs a tree query returns.
func pidQueryCommand(use, short, long string, query func(e *tree.Engine, pid int) ([]int, error)) *cobra.Command {
	return &cobra.Command{
		Use:               use + " <root_pid> <pid>",
		Short:             short,
		Long:              long,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completePIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInTree(cmd, args, func(inv *invocation) error {
				pids, err := query(inv.engine, inv.pid)
				if err != nil {
					return err
				}
				printPIDs(cmd.OutOrStdout(), pids)
				return nil
			})
		},
	}
}
