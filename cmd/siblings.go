package cmd

import (
	"github.com/juanibiapina/ptree/internal/tree"
)

var siblingsCmd = pidQueryCommand("siblings",
	"List siblings of a process",
	`List the processes that share <pid>'s parent, excluding <pid> itself.

Example:
  ptree siblings 1 4242`,
	(*tree.Engine).Siblings,
)

func init() {
	RootCmd.AddCommand(siblingsCmd)
}
