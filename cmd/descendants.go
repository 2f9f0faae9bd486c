package cmd

import (
	"github.com/juanibiapina/ptree/internal/tree"
)

var descendantsCmd = pidQueryCommand("descendants",
	"List every descendant of a process",
	`List every process below <pid> in the tree, at any depth.

Example:
  ptree descendants 1 4242`,
	(*tree.Engine).Descendants,
)

func init() {
	RootCmd.AddCommand(descendantsCmd)
}
