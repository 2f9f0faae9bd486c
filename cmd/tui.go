package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/juanibiapina/ptree/internal/config"
	"github.com/juanibiapina/ptree/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:               "tui <root_pid>",
	Short:             "Launch interactive TUI",
	ValidArgsFunction: completePIDs,
	Long: `Launch a live view of the process tree rooted at <root_pid>.

The tree is re-read from the process table every tui.refresh (default 1s).
Actions apply to the subtree of the selected process.

LAYOUT:
  ┌─ ptree · tree of 4242 ──────────────────────────┐
  │   PID   PPID  STATE     COMMAND                 │
  │  4242      1  sleeping  bash                    │
  │  4243   4242  running   └ make                  │
  └─────────────────────────────────────────────────┘

KEYBINDINGS:

  Navigation:
    ↑/k ↓/j   Move cursor
    pgup/pgdn Page
    g/G       First/last process

  Actions (on the selected subtree):
    s         Stop descendants (SIGSTOP)
    c         Continue stopped descendants (SIGCONT)
    K         Kill descendants (SIGKILL)
    x         Kill parents of zombie descendants
    y         Copy selected PID
    r         Refresh now

  Global:
    ?         Show help overlay
    q         Quit

Example:
  ptree tui 1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := config.ParsePID(args[0])
		if err != nil {
			return fmt.Errorf("process IDs must be positive integers (got root_pid=%s)", args[0])
		}
		engine, err := newEngine()
		if err != nil {
			return err
		}
		if _, ok := engine.Lookup(root); !ok {
			return fmt.Errorf("root process %d does not exist or is inaccessible", root)
		}
		return tui.Start(root, engine, newDispatcher(engine), cfg.TUI.Refresh)
	},
}

func init() {
	RootCmd.AddCommand(tuiCmd)
}
