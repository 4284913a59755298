package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/kisekinoumi/mzzbscore-edit/core"
	"github.com/kisekinoumi/mzzbscore-edit/internal/contract"
	"github.com/kisekinoumi/mzzbscore-edit/internal/outwriter"
	"github.com/kisekinoumi/mzzbscore-edit/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	store   contract.HistoryStore
	logger  *slog.Logger
}

// jsonResult marshals v into a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleRankWorkbook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.InputFile = request.GetString("input_path", "")
	cfg.Operation = schema.OperationKind(request.GetString("operation", string(schema.MonthlyOperation)))
	cfg.ApplyStyles = request.GetBool("apply_styles", cfg.ApplyStyles)

	var defaultOutput string
	switch cfg.Operation {
	case schema.MonthlyOperation:
		defaultOutput = contract.DefaultMonthlyOutputFile
	case schema.FinalOperation:
		defaultOutput = contract.DefaultFinalOutputFile
	default:
		return mcp.NewToolResultError(fmt.Sprintf("invalid operation %q (expected monthly or final)", cfg.Operation)), nil
	}
	cfg.OutputFile = request.GetString("output_path", defaultOutput)

	if err := contract.ValidateInputFile(cfg.InputFile); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid input: %v", err)), nil
	}
	if err := contract.ValidateOutputFile(cfg.OutputFile); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid output: %v", err)), nil
	}

	result, err := core.NewPipeline(cfg, h.store, h.logger).Run(ctx, cfg.Operation, cfg.InputFile, cfg.OutputFile)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ranking failed: %v", err)), nil
	}
	return jsonResult(outwriter.NewRunReport(result, cfg.Operation, cfg.InputFile, cfg.OutputFile, 0))
}

func (h *toolHandler) handlePreviewRankings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input := request.GetString("input_path", "")
	limit := h.baseCfg.ResultLimit
	if l := request.GetInt("limit", 0); l > 0 {
		limit = min(l, contract.MaxResultLimit)
	}

	result, err := h.preview(ctx, input)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(outwriter.TopTitles(result, limit))
}

func (h *toolHandler) handleRankingStatistics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input := request.GetString("input_path", "")

	result, err := h.preview(ctx, input)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(outwriter.NewRunReport(result, schema.StatsOperation, input, "", 0))
}

// preview validates input and ranks it without writing or recording history.
func (h *toolHandler) preview(ctx context.Context, input string) (*schema.RankingResult, error) {
	if err := contract.ValidateInputFile(input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	result, err := core.NewPipeline(h.baseCfg, nil, h.logger).Preview(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("ranking failed: %w", err)
	}
	return result, nil
}
