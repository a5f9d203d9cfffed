package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/digest-cli/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can digest
chapters and query stored analyses.

By default the server speaks JSON-RPC over stdio. Use --http to serve the
streamable HTTP transport instead, e.g. for the MCP Inspector.

Examples:
  # Stdio mode (for desktop assistants)
  digest mcp

  # HTTP mode
  digest mcp --http :8090

Assistant configuration:
  {
    "mcpServers": {
      "digest": {
        "command": "/path/to/digest",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().String("http", "", "Serve over HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	if err := requireChapters(); err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Chapters: chapterService,
		Jobs:     jobService,
	})
	if err != nil {
		return err
	}

	if addr, _ := cmd.Flags().GetString("http"); addr != "" {
		cmd.PrintErrf("MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}
	return server.Run(cmd.Context())
}
