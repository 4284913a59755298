package core

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kisekinoumi/mzzbscore-edit/internal/contract"
	"github.com/kisekinoumi/mzzbscore-edit/internal/history"
	"github.com/kisekinoumi/mzzbscore-edit/internal/outwriter"
	"github.com/kisekinoumi/mzzbscore-edit/schema"
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

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	return rows
}

func testConfig() *contract.Config {
	return &contract.Config{
		Weights:     schema.DefaultWeights(),
		ApplyStyles: false,
		LockOutput:  true,
		ResultLimit: 10,
		Precision:   2,
		Output:      schema.JSONOut,
	}
}

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	input := writeWorkbook(t, dir)
	output := filepath.Join(dir, "monthly.xlsx")

	store := &history.MockStore{}
	store.On("BeginRun", mock.AnythingOfType("time.Time"), schema.MonthlyOperation, input,
		mock.MatchedBy(func(params map[string]any) bool {
			return params["apply_styles"] == false && params["lock_output"] == true
		})).Return(int64(3), nil)
	store.On("RecordTitle", mock.AnythingOfType("schema.TitleRankRecord")).Return(nil)
	store.On("EndRun", int64(3), mock.AnythingOfType("time.Time"), output,
		mock.MatchedBy(func(s schema.RankingSummary) bool {
			return s.TotalProcessed == 4 && s.TotalValid == 3 && s.TotalExcluded == 1
		})).Return(nil)

	result, err := NewPipeline(testConfig(), store, nil).Run(context.Background(), schema.MonthlyOperation, input, output)
	require.NoError(t, err)
	assert.Positive(t, result.ProcessingTime)
	store.AssertNumberOfCalls(t, "RecordTitle", 4)
	store.AssertExpectations(t)

	rows := readRows(t, output)
	require.GreaterOrEqual(t, len(rows), 8)
	assert.Equal(t, []string{"原名", "译名", "Bangumi", "Bangumi_total", "Bangumi_Rank", "Notes"}, rows[1][:6])

	tests := []struct {
		row  int
		key  string
		rank string
	}{
		{2, "X", "2"},
		{3, "Y", "3"},
		{4, "Z", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.key, rows[tt.row][0])
			assert.Equal(t, tt.rank, rows[tt.row][4])
		})
	}

	// the excluded title moves below the gap with its rank left blank
	assert.Empty(t, rows[5])
	assert.Equal(t, "W", rows[7][0])
	assert.Equal(t, "*数据不足", rows[7][5])
	assert.Empty(t, rows[7][4])
}

func TestPipelineStatsRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	input := writeWorkbook(t, dir)

	store := &history.MockStore{}
	store.On("BeginRun", mock.Anything, schema.StatsOperation, input, mock.Anything).Return(int64(1), nil)
	store.On("RecordTitle", mock.Anything).Return(nil)
	store.On("EndRun", int64(1), mock.Anything, "", mock.Anything).Return(nil)

	result, err := NewPipeline(testConfig(), store, nil).Run(context.Background(), schema.StatsOperation, input, "")
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalValid())
	store.AssertExpectations(t)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPipelineRunErrors(t *testing.T) {
	t.Run("missing input", func(t *testing.T) {
		dir := t.TempDir()
		input := filepath.Join(dir, "missing.xlsx")

		store := &history.MockStore{}
		store.On("BeginRun", mock.Anything, schema.MonthlyOperation, input, mock.Anything).Return(int64(2), nil)
		store.On("EndRun", int64(2), mock.Anything, "",
			mock.MatchedBy(func(s schema.RankingSummary) bool { return len(s.Errors) == 1 })).Return(nil)

		_, err := NewPipeline(testConfig(), store, nil).Run(context.Background(), schema.MonthlyOperation, input, filepath.Join(dir, "out.xlsx"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, contract.ErrFileOperation))
		store.AssertExpectations(t)
		store.AssertNotCalled(t, "RecordTitle", mock.Anything)
	})

	t.Run("cancelled", func(t *testing.T) {
		input := writeWorkbook(t, t.TempDir())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewPipeline(testConfig(), nil, nil).Run(ctx, schema.MonthlyOperation, input, "")
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("history failures are not fatal", func(t *testing.T) {
		input := writeWorkbook(t, t.TempDir())

		store := &history.MockStore{}
		store.On("BeginRun", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))

		result, err := NewPipeline(testConfig(), store, nil).Run(context.Background(), schema.StatsOperation, input, "")
		require.NoError(t, err)
		assert.Equal(t, 4, result.TotalProcessed())
		store.AssertNotCalled(t, "RecordTitle", mock.Anything)
		store.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPipelinePreview(t *testing.T) {
	input := writeWorkbook(t, t.TempDir())

	result, err := NewPipeline(testConfig(), nil, nil).Preview(context.Background(), input)
	require.NoError(t, err)

	top := outwriter.TopTitles(result, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "Z", top[0].Title)
	assert.Equal(t, "X", top[1].Title)
}

func TestExecuteRanking(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.Operation = schema.FinalOperation
	cfg.InputFile = writeWorkbook(t, dir)
	cfg.OutputFile = filepath.Join(dir, "final.xlsx")
	cfg.SummaryFile = filepath.Join(dir, "summary.json")

	require.NoError(t, ExecuteRanking(context.Background(), cfg, nil, nil))

	data, err := os.ReadFile(cfg.SummaryFile)
	require.NoError(t, err)
	var report outwriter.RunReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, schema.FinalOperation, report.Operation)
	assert.Equal(t, cfg.OutputFile, report.OutputFile)
	assert.Equal(t, 3, report.TotalValid)
	assert.FileExists(t, cfg.OutputFile)
}

func TestExecuteStats(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.Operation = schema.StatsOperation
	cfg.InputFile = writeWorkbook(t, dir)
	cfg.ResultLimit = 2
	cfg.SummaryFile = filepath.Join(dir, "stats.json")

	require.NoError(t, ExecuteStats(context.Background(), cfg, nil, nil))

	data, err := os.ReadFile(cfg.SummaryFile)
	require.NoError(t, err)
	var report outwriter.RunReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Empty(t, report.OutputFile)
	require.Len(t, report.Top, 2)
	assert.Equal(t, "Z", report.Top[0].Title)
	require.NotNil(t, report.Stats.Composite)
	assert.InDelta(t, 8.0, report.Stats.Composite.Mean, 1e-9)
}
