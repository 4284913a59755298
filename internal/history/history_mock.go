package history

import (
	"time"

	"github.com/kisekinoumi/mzzbscore-edit/internal/contract"
	"github.com/kisekinoumi/mzzbscore-edit/schema"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of HistoryStore for testing.
type MockStore struct {
	mock.Mock
}

var _ contract.HistoryStore = &MockStore{} // Compile-time check

// BeginRun implements the HistoryStore interface.
func (m *MockStore) BeginRun(startTime time.Time, operation schema.OperationKind, inputFile string, configParams map[string]any) (int64, error) {
	args := m.Called(startTime, operation, inputFile, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the HistoryStore interface.
func (m *MockStore) EndRun(runID int64, endTime time.Time, outputFile string, summary schema.RankingSummary) error {
	args := m.Called(runID, endTime, outputFile, summary)
	return args.Error(0)
}

// RecordTitle implements the HistoryStore interface.
func (m *MockStore) RecordTitle(record schema.TitleRankRecord) error {
	args := m.Called(record)
	return args.Error(0)
}

// GetStatus implements the HistoryStore interface.
func (m *MockStore) GetStatus() (schema.HistoryStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.HistoryStatus), args.Error(1)
}

// GetAllRuns implements the HistoryStore interface.
func (m *MockStore) GetAllRuns() ([]schema.RunRecord, error) {
	args := m.Called()
	return args.Get(0).([]schema.RunRecord), args.Error(1)
}

// GetAllTitleRanks implements the HistoryStore interface.
func (m *MockStore) GetAllTitleRanks() ([]schema.TitleRankRecord, error) {
	args := m.Called()
	return args.Get(0).([]schema.TitleRankRecord), args.Error(1)
}

// Close implements the HistoryStore interface.
func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
