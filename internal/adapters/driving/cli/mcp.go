package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policy-assistant/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ask
policy questions and read the document list.

By default, the server communicates over stdio using JSON-RPC.
Use --port to serve streamable HTTP instead.

Examples:
  # Stdio mode (default, for desktop assistants)
  policyqa mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  policyqa mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "policyqa": {
        "command": "/path/to/policyqa",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	if askService == nil || retrievalService == nil {
		return notConfigured("ask")
	}

	config := mcp.Config{Version: version}
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			config.DefaultTopK = settings.Retrieval.TopK
			config.Regions = settings.Retrieval.Regions
		}
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Ask:       askService,
		Retrieval: retrievalService,
		Document:  documentService,
	}, config)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
