package cmd

import (
	"github.com/juanibiapina/ptree/internal/tree"
)

var grandchildrenCmd = pidQueryCommand("grandchildren",
	"List grandchildren of a process",
	`List the children of <pid>'s children, from a single scan of the process table.

Example:
  ptree grandchildren 1 4242`,
	(*tree.Engine).Grandchildren,
)

func init() {
	RootCmd.AddCommand(grandchildrenCmd)
}
