package history

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kisekinoumi/mzzbscore-edit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClear(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		path    func(t *testing.T) string
		wantErr string
	}{
		{
			name:    "sqlite file",
			backend: schema.SQLiteBackend,
			path: func(t *testing.T) string {
				p := filepath.Join(t.TempDir(), "history.db")
				require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
				return p
			},
		},
		{
			name:    "sqlite missing file",
			backend: schema.SQLiteBackend,
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.db") },
		},
		{
			name:    "sqlite empty path",
			backend: schema.SQLiteBackend,
			path:    func(*testing.T) string { return "" },
			wantErr: "dbFilePath cannot be empty",
		},
		{
			name:    "none",
			backend: schema.NoneBackend,
			path:    func(*testing.T) string { return "" },
		},
		{
			name:    "unknown",
			backend: schema.DatabaseBackend("oracle"),
			path:    func(*testing.T) string { return "" },
			wantErr: "unsupported history backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.path(t)
			err := Clear(tt.backend, p, "")
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if p != "" {
				_, statErr := os.Stat(p)
				assert.True(t, os.IsNotExist(statErr))
			}
		})
	}
}

func TestExport(t *testing.T) {
	store := newMemoryStore(t)
	runID, err := store.BeginRun(time.Now(), schema.MonthlyOperation, "mzzb.xlsx", nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordTitle(schema.TitleRankRecord{RunID: runID, TitleKey: "A", CompositeRank: ptr(int32(1))}))
	require.NoError(t, store.EndRun(runID, time.Now(), "out.xlsx", schema.RankingSummary{TotalProcessed: 1, TotalValid: 1}))

	base := filepath.Join(t.TempDir(), "history")
	var out bytes.Buffer
	require.NoError(t, Export(&out, store, base))

	for _, suffix := range []string{".runs.parquet", ".title_ranks.parquet"} {
		info, err := os.Stat(base + suffix)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
	assert.Contains(t, out.String(), "Exported 1 runs")
	assert.Contains(t, out.String(), "Exported 1 title records")
}

func TestExportErrors(t *testing.T) {
	t.Run("missing output", func(t *testing.T) {
		err := Export(&bytes.Buffer{}, &MockStore{}, "")
		assert.ErrorContains(t, err, "--output-file is required")
	})

	t.Run("no runs", func(t *testing.T) {
		store := newMemoryStore(t)
		err := Export(&bytes.Buffer{}, store, filepath.Join(t.TempDir(), "x"))
		assert.ErrorIs(t, err, ErrNoHistory)
	})

	t.Run("status failure", func(t *testing.T) {
		m := &MockStore{}
		m.On("GetStatus").Return(schema.HistoryStatus{}, errors.New("down"))
		err := Export(&bytes.Buffer{}, m, "x")
		assert.ErrorContains(t, err, "down")
		m.AssertExpectations(t)
	})

	t.Run("runs failure", func(t *testing.T) {
		m := &MockStore{}
		m.On("GetStatus").Return(schema.HistoryStatus{Backend: "mysql", TotalRuns: 1}, nil)
		m.On("GetAllRuns").Return([]schema.RunRecord(nil), errors.New("query failed"))
		err := Export(&bytes.Buffer{}, m, "x")
		assert.ErrorContains(t, err, "failed to retrieve runs")
		m.AssertExpectations(t)
	})
}
