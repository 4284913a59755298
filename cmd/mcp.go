package cmd

import (
	"github.com/kisekinoumi/mzzbscore-edit/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the mzzbscore MCP server",
	Long: `Launch an MCP server on stdio that allows AI agents to rank score workbooks.

Tools:
  rank_workbook      - run the full ranking pipeline and return the summary
  preview_rankings   - return the top titles without writing anything
  ranking_statistics - return the composite score statistics

Configuration (weights, styles, lock, history) comes from the usual flags,
environment variables and config file. Logs go to stderr.`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return mcpSetup()
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, historyStore, logger)
	},
}
