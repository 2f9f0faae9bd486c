package cmd

import (
	"github.com/spf13/cobra"

	"github.com/juanibiapina/ptree/internal/mcp"
	"github.com/juanibiapina/ptree/internal/version"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server on stdio",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This allows AI agents to inspect and signal process trees through the MCP
protocol. Every tree command is available as a tool named ptree_<command>.

Example configuration for .mcp.json:
  {
    "mcpServers": {
      "ptree": {
        "command": "ptree",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine()
		if err != nil {
			return err
		}
		server := mcp.NewServer(version.Version, engine, newDispatcher(engine))
		return server.Serve()
	},
}

func init() {
	RootCmd.AddCommand(mcpCmd)
}
