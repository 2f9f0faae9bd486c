package cmd

import (
	"github.com/juanibiapina/ptree/internal/tree"
)

var nonDirectCmd = pidQueryCommand("non-direct",
	"List descendants that are not direct children",
	`List the descendants of <pid> that are two or more levels below it.

Example:
  ptree non-direct 1 4242`,
	(*tree.Engine).NonDirectDescendants,
)

func init() {
	RootCmd.AddCommand(nonDirectCmd)
}
