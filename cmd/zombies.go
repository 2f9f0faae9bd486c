package cmd

import (
	"github.com/juanibiapina/ptree/internal/tree"
)

var zombiesCmd = pidQueryCommand("zombies",
	"List defunct descendants of a process",
	`List the zombie processes among the descendants of <pid>.

Example:
  ptree zombies 1 4242`,
	(*tree.Engine).ZombieDescendants,
)

func init() {
	RootCmd.AddCommand(zombiesCmd)
}
