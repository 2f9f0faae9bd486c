package cmd

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// completePIDs completes PIDs from the live process table. The first
// argument offers every process; the second offers the descendants of the
// root already typed.
func completePIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 1 || (cmd.Name() == "tui" && len(args) > 0) {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	if cfg == nil {
		return nil, cobra.ShellCompDirectiveError
	}
	engine, err := newEngine()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	snap, err := engine.Snapshot()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var candidates []int
	if len(args) == 0 {
		for _, rec := range snap.Records() {
			candidates = append(candidates, rec.PID)
		}
	} else {
		root, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		descendants, err := engine.Descendants(root)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		candidates = append([]int{root}, descendants...)
	}

	var completions []string
	for _, pid := range candidates {
		id := strconv.Itoa(pid)
		if !strings.HasPrefix(id, toComplete) {
			continue
		}
		// Format: pid\tname (tab-separated for description)
		if rec, ok := snap.Get(pid); ok && rec.Name != "" {
			id += "\t" + rec.Name
		}
		completions = append(completions, id)
	}

	return completions, cobra.ShellCompDirectiveNoFileComp
}
