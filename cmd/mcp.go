package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iannuttall/ralph/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server",
	Long: `Start an MCP (Model Context Protocol) server on stdio so an
assistant can pull GitHub issues into its context on demand.
Configure it in your MCP client with:

  {
    "mcpServers": {
      "ralph": { "command": "ralph", "args": ["mcp"] }
    }
  }

Available tools: ralph_gh_status, ralph_import_issues`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return newMCPServer().ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func newMCPServer() *mcp.Server {
	return mcp.NewServer(newRunner(), mcp.Defaults{
		State:   viper.GetString("github.state"),
		Limit:   viper.GetInt("github.limit"),
		Timeout: viper.GetDuration("github.timeout"),
	}, buildVersion)
}
