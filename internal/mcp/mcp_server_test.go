package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kisekinoumi/mzzbscore-edit/internal/contract"
	"github.com/kisekinoumi/mzzbscore-edit/internal/history"
	mcp_internal "github.com/kisekinoumi/mzzbscore-edit/internal/mcp"
	"github.com/kisekinoumi/mzzbscore-edit/internal/outwriter"
	"github.com/kisekinoumi/mzzbscore-edit/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook saves three ranked titles and one excluded title into dir.
func writeWorkbook(t *testing.T, dir string) string {
	t.Helper()
	rows := [][]any{
		{"2025年10月新番"},
		{"原名", "译名", "Bangumi", "Bangumi_total", "Notes"},
		{"X", "艾克斯", 8.0, 500, nil},
		{"Y", "歪", 7.0, 400, nil},
		{"Z", "贼", 9.0, 600, nil},
		{"W", "达", 9.5, 10, "*数据不足"},
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(dir, "mzzb.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func baseConfig() *contract.Config {
	return &contract.Config{
		Weights:     schema.DefaultWeights(),
		ResultLimit: 10,
		Precision:   2,
	}
}

// call invokes a tool handler directly; tool failures come back as error results.
func call(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "tool %s should exist", name)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "handlers report failures as tool errors")
	require.NotNil(t, res)
	return res
}

func toolText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	return res.Content[0].(mcp.TextContent).Text
}

func TestRankWorkbook(t *testing.T) {
	dir := t.TempDir()
	input := writeWorkbook(t, dir)
	output := filepath.Join(dir, "out", "ranked.xlsx")

	store := &history.MockStore{}
	store.On("BeginRun", mock.AnythingOfType("time.Time"), schema.FinalOperation, input, mock.Anything).Return(int64(7), nil)
	store.On("RecordTitle", mock.AnythingOfType("schema.TitleRankRecord")).Return(nil)
	store.On("EndRun", int64(7), mock.AnythingOfType("time.Time"), output, mock.Anything).Return(nil)

	s := mcp_internal.NewMCPServer(baseConfig(), store, nil)
	res := call(t, s, "rank_workbook", map[string]any{
		"input_path":   input,
		"output_path":  output,
		"operation":    "final",
		"apply_styles": false,
	})
	require.False(t, res.IsError, toolText(t, res))

	var report outwriter.RunReport
	require.NoError(t, json.Unmarshal([]byte(toolText(t, res)), &report))
	assert.Equal(t, schema.FinalOperation, report.Operation)
	assert.Equal(t, output, report.OutputFile)
	assert.Equal(t, 4, report.TotalProcessed)
	assert.Equal(t, 3, report.TotalValid)
	assert.Equal(t, 1, report.TotalExcluded)

	_, err := os.Stat(output)
	require.NoError(t, err)
	store.AssertNumberOfCalls(t, "RecordTitle", 4)
	store.AssertExpectations(t)
}

func TestPreviewRankings(t *testing.T) {
	input := writeWorkbook(t, t.TempDir())
	store := &history.MockStore{}
	s := mcp_internal.NewMCPServer(baseConfig(), store, nil)

	res := call(t, s, "preview_rankings", map[string]any{"input_path": input, "limit": 2.0})
	require.False(t, res.IsError, toolText(t, res))

	var titles []schema.RankedTitle
	require.NoError(t, json.Unmarshal([]byte(toolText(t, res)), &titles))
	require.Len(t, titles, 2)
	assert.Equal(t, "Z", titles[0].Title)
	assert.Equal(t, "X", titles[1].Title)
	require.NotNil(t, titles[1].Rank)
	assert.Equal(t, int32(2), *titles[1].Rank)

	store.AssertNotCalled(t, "BeginRun", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRankingStatistics(t *testing.T) {
	input := writeWorkbook(t, t.TempDir())
	s := mcp_internal.NewMCPServer(baseConfig(), nil, nil)

	res := call(t, s, "ranking_statistics", map[string]any{"input_path": input})
	require.False(t, res.IsError, toolText(t, res))

	var report outwriter.RunReport
	require.NoError(t, json.Unmarshal([]byte(toolText(t, res)), &report))
	assert.Equal(t, schema.StatsOperation, report.Operation)
	require.NotNil(t, report.Stats.Composite)
	assert.Equal(t, 3, report.Stats.Composite.Count)
	assert.InDelta(t, 8.0, report.Stats.Composite.Mean, 1e-9)
	require.Len(t, report.Stats.Platforms, schema.PlatformCount)
	assert.Equal(t, 3, report.Stats.Platforms[0].Ranked)
}

func TestToolValidationErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeWorkbook(t, dir)
	s := mcp_internal.NewMCPServer(baseConfig(), nil, nil)

	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		wantMsg string
	}{
		{
			name:    "missing input",
			tool:    "preview_rankings",
			args:    map[string]any{"input_path": filepath.Join(dir, "missing.xlsx")},
			wantMsg: "invalid input",
		},
		{
			name:    "unsupported extension",
			tool:    "ranking_statistics",
			args:    map[string]any{"input_path": filepath.Join(dir, "mzzb.xls")},
			wantMsg: "unsupported file format",
		},
		{
			name:    "bad operation",
			tool:    "rank_workbook",
			args:    map[string]any{"input_path": input, "operation": "weekly"},
			wantMsg: "invalid operation",
		},
		{
			name:    "bad output extension",
			tool:    "rank_workbook",
			args:    map[string]any{"input_path": input, "output_path": filepath.Join(dir, "out.csv")},
			wantMsg: "invalid output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, s, tt.tool, tt.args)
			assert.True(t, res.IsError)
			assert.Contains(t, toolText(t, res), tt.wantMsg)
		})
	}
}

func TestRankWorkbookCancelled(t *testing.T) {
	dir := t.TempDir()
	input := writeWorkbook(t, dir)
	s := mcp_internal.NewMCPServer(baseConfig(), nil, nil)
	tool := s.GetTool("rank_workbook")
	require.NotNil(t, tool)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	res, err := tool.Handler(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: "rank_workbook", Arguments: map[string]any{
			"input_path":  input,
			"output_path": filepath.Join(dir, "ranked.xlsx"),
		}},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, toolText(t, res), "ranking failed")
}
