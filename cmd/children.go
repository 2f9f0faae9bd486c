package cmd

import (
	"github.com/juanibiapina/ptree/internal/tree"
)

var childrenCmd = pidQueryCommand("children",
	"List direct children of a process",
	`List the processes whose parent is <pid>, one PID per line.

Example:
  ptree children 1 4242`,
	(*tree.Engine).DirectChildren,
)

func init() {
	RootCmd.AddCommand(childrenCmd)
}
