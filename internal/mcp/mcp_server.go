// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"
	"log/slog"

	"github.com/kisekinoumi/mzzbscore-edit/internal/contract"
	"github.com/kisekinoumi/mzzbscore-edit/internal/logging"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the mzzbscore MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, store contract.HistoryStore, logger *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"mzzbscore Ranking Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		store:   store,
		logger:  logging.OrDiscard(logger),
	}

	// --- 1. Tool: rank_workbook ---
	s.AddTool(mcp.NewTool("rank_workbook",
		mcp.WithDescription("Rank the anime in a workbook and write the ranked copy. Returns the run summary."),
		mcp.WithString("input_path", mcp.Description("Path to the source .xlsx workbook."), mcp.Required()),
		mcp.WithString("output_path", mcp.Description("Destination workbook. Defaults to the operation's default file name.")),
		mcp.WithString("operation", mcp.Description("Ranking operation. Defaults to 'monthly'."), mcp.Enum("monthly", "final")),
		mcp.WithBoolean("apply_styles", mcp.Description("Apply the background fill and fonts. Defaults to the server configuration.")),
	), h.handleRankWorkbook)

	// --- 2. Tool: preview_rankings ---
	s.AddTool(mcp.NewTool("preview_rankings",
		mcp.WithDescription("Rank a workbook without writing anything and return the top titles."),
		mcp.WithString("input_path", mcp.Description("Path to the source .xlsx workbook."), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Number of titles to return.")),
	), h.handlePreviewRankings)

	// --- 3. Tool: ranking_statistics ---
	s.AddTool(mcp.NewTool("ranking_statistics",
		mcp.WithDescription("Rank a workbook without writing anything and return counts, platform coverage and the composite score distribution."),
		mcp.WithString("input_path", mcp.Description("Path to the source .xlsx workbook."), mcp.Required()),
	), h.handleRankingStatistics)

	return s
}

// StartMCPServer serves the MCP tools over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, store contract.HistoryStore, logger *slog.Logger) error {
	s := NewMCPServer(baseCfg, store, logger)
	return server.ServeStdio(s)
}
