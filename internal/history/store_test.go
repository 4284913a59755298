package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/kisekinoumi/mzzbscore-edit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func newMemoryStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreNoneBackend(t *testing.T) {
	store, err := NewStore(schema.NoneBackend, "")
	require.NoError(t, err)

	runID, err := store.BeginRun(time.Now(), schema.MonthlyOperation, "mzzb.xlsx", map[string]any{"apply_styles": true})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), runID)

	assert.NoError(t, store.EndRun(1, time.Now(), "out.xlsx", schema.RankingSummary{}))
	assert.NoError(t, store.RecordTitle(schema.TitleRankRecord{RunID: 1, TitleKey: "A"}))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)

	runs, err := store.GetAllRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)

	assert.NoError(t, store.Close())
}

func TestStoreUnsupportedBackend(t *testing.T) {
	_, err := NewStore(schema.DatabaseBackend("oracle"), "")
	assert.ErrorContains(t, err, "unsupported backend")
}

func TestStoreRunLifecycle(t *testing.T) {
	store := newMemoryStore(t)

	start := time.Now().Add(-150 * time.Millisecond)
	runID, err := store.BeginRun(start, schema.MonthlyOperation, "mzzb.xlsx", map[string]any{"lock_output": false})
	require.NoError(t, err)
	assert.Positive(t, runID)

	summary := schema.RankingSummary{
		TotalProcessed: 4,
		TotalValid:     3,
		TotalExcluded:  1,
		Warnings:       []string{"w1", "w2"},
	}
	require.NoError(t, store.EndRun(runID, time.Now(), "monthly_anime_scores.xlsx", summary))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run := runs[0]
	assert.Equal(t, runID, run.RunID)
	assert.Equal(t, "monthly", run.Operation)
	assert.Equal(t, "mzzb.xlsx", run.InputFile)
	require.NotNil(t, run.OutputFile)
	assert.Equal(t, "monthly_anime_scores.xlsx", *run.OutputFile)
	assert.WithinDuration(t, start, run.StartTime, time.Millisecond)
	require.NotNil(t, run.EndTime)
	require.NotNil(t, run.RunDurationMs)
	assert.GreaterOrEqual(t, *run.RunDurationMs, int32(150))
	assert.Equal(t, int32(4), run.TotalProcessed)
	assert.Equal(t, int32(3), run.TotalValid)
	assert.Equal(t, int32(1), run.TotalExcluded)
	assert.Equal(t, int32(0), run.ErrorCount)
	assert.Equal(t, int32(2), run.WarningCount)
	require.NotNil(t, run.ConfigParams)
	assert.JSONEq(t, `{"lock_output":false}`, *run.ConfigParams)
}

func TestStoreEndRunWithoutOutput(t *testing.T) {
	store := newMemoryStore(t)

	runID, err := store.BeginRun(time.Now(), schema.StatsOperation, "mzzb.xlsx", nil)
	require.NoError(t, err)
	require.NoError(t, store.EndRun(runID, time.Now(), "", schema.RankingSummary{Errors: []string{"boom"}}))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Nil(t, runs[0].OutputFile)
	assert.Equal(t, int32(1), runs[0].ErrorCount)
}

func TestStoreEndRunUnknown(t *testing.T) {
	store := newMemoryStore(t)
	err := store.EndRun(42, time.Now(), "", schema.RankingSummary{})
	assert.ErrorContains(t, err, "failed to get start_time for run 42")
}

func TestStoreRecordTitle(t *testing.T) {
	store := newMemoryStore(t)

	runID, err := store.BeginRun(time.Now(), schema.FinalOperation, "mzzb.xlsx", nil)
	require.NoError(t, err)

	records := []schema.TitleRankRecord{
		{
			RunID:          runID,
			TitleKey:       "葬送のフリーレン",
			CompositeScore: ptr(8.91),
			CompositeRank:  ptr(int32(1)),
			BangumiRank:    ptr(int32(1)),
			AnilistRank:    ptr(int32(2)),
		},
		{RunID: runID, TitleKey: "薬屋のひとりごと", Excluded: true},
	}
	for _, rec := range records {
		require.NoError(t, store.RecordTitle(rec))
	}
	// a repeated key keeps the first record
	require.NoError(t, store.RecordTitle(schema.TitleRankRecord{RunID: runID, TitleKey: "葬送のフリーレン", CompositeRank: ptr(int32(9))}))

	got, err := store.GetAllTitleRanks()
	require.NoError(t, err)
	require.Len(t, got, 2)

	byKey := map[string]schema.TitleRankRecord{}
	for _, rec := range got {
		byKey[rec.TitleKey] = rec
	}
	assert.Equal(t, records[0], byKey["葬送のフリーレン"])
	assert.Equal(t, records[1], byKey["薬屋のひとりごと"])
}

func TestStoreGetStatus(t *testing.T) {
	store := newMemoryStore(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Zero(t, status.TotalRuns)
	assert.Equal(t, map[string]int64{runsTable: 0, titleRanksTable: 0}, status.TableSizes)

	first := time.Now().Add(-time.Hour)
	var lastID int64
	for i, key := range []string{"A", "B"} {
		runID, err := store.BeginRun(first.Add(time.Duration(i)*time.Minute), schema.MonthlyOperation, "mzzb.xlsx", nil)
		require.NoError(t, err)
		require.NoError(t, store.RecordTitle(schema.TitleRankRecord{RunID: runID, TitleKey: key}))
		require.NoError(t, store.RecordTitle(schema.TitleRankRecord{RunID: runID, TitleKey: "shared"}))
		lastID = runID
	}

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalRuns)
	assert.Equal(t, lastID, status.LastRunID)
	assert.Equal(t, 3, status.TotalTitles)
	assert.WithinDuration(t, first, status.OldestRunTime, time.Millisecond)
	assert.WithinDuration(t, first.Add(time.Minute), status.LastRunTime, time.Millisecond)
	assert.Equal(t, int64(4), status.TableSizes[titleRanksTable])
}

func TestStoreReopenFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	store, err := NewStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	_, err = store.BeginRun(time.Now(), schema.MonthlyOperation, "mzzb.xlsx", nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = NewStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?, ?, ?", placeholders(schema.SQLiteBackend, 1, 3))
	assert.Equal(t, "?", placeholders(schema.MySQLBackend, 1, 1))
	assert.Equal(t, "$2, $3", placeholders(schema.PostgreSQLBackend, 2, 2))
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`mzzbscore_runs`", quoteTableName(runsTable, schema.MySQLBackend))
	assert.Equal(t, `"mzzbscore_runs"`, quoteTableName(runsTable, schema.PostgreSQLBackend))
	assert.Equal(t, `"mzzbscore_runs"`, quoteTableName(runsTable, schema.SQLiteBackend))
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"mzzbscore_runs", false},
		{"_private", false},
		{"", true},
		{"1runs", true},
		{"runs; DROP TABLE x", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	ts := time.Date(2025, 10, 1, 9, 30, 0, 123, time.UTC)
	tests := []struct {
		name    string
		in      any
		wantErr bool
	}{
		{"native", ts, false},
		{"text", ts.Format(time.RFC3339Nano), false},
		{"bytes", []byte(ts.Format(time.RFC3339Nano)), false},
		{"garbage", "yesterday", true},
		{"int", int64(5), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTime(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, ts.Equal(got))
		})
	}
}
