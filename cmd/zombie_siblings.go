package cmd

import (
	"github.com/juanibiapina/ptree/internal/tree"
)

var zombieSiblingsCmd = pidQueryCommand("zombie-siblings",
	"List defunct siblings of a process",
	`List the zombie processes that share <pid>'s parent.

Example:
  ptree zombie-siblings 1 4242`,
	(*tree.Engine).ZombieSiblings,
)

func init() {
	RootCmd.AddCommand(zombieSiblingsCmd)
}
