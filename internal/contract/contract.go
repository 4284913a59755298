// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/kisekinoumi/mzzbscore-edit/schema"
)

// HistoryStore defines the interface for tracking ranking runs and their results.
// This allows the history layer to be mocked for testing.
type HistoryStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(startTime time.Time, operation schema.OperationKind, inputFile string, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, outputFile string, summary schema.RankingSummary) error

	// RecordTitle stores the computed ranks of one title
	RecordTitle(record schema.TitleRankRecord) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every stored run, oldest first
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllTitleRanks returns every stored title rank, ordered by run
	GetAllTitleRanks() ([]schema.TitleRankRecord, error)

	// Close closes the underlying connection
	Close() error
}
