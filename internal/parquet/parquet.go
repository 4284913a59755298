// Package parquet provides data structures and functions for exporting mzzbscore
// run history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/kisekinoumi/mzzbscore-edit/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single ranking run with its counts.
// This struct maps to the mzzbscore_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// Operation is monthly, final or stats
	Operation string `parquet:"operation,snappy"`

	InputFile  string  `parquet:"input_file,snappy"`
	OutputFile *string `parquet:"output_file,optional,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	TotalProcessed int32 `parquet:"total_processed,snappy"`
	TotalValid     int32 `parquet:"total_valid,snappy"`
	TotalExcluded  int32 `parquet:"total_excluded,snappy"`
	ErrorCount     int32 `parquet:"error_count,snappy"`
	WarningCount   int32 `parquet:"warning_count,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// TitleRank represents the computed ranks of one title in one run.
// This struct maps to the mzzbscore_title_ranks database table.
type TitleRank struct {
	// RunID references the parent run
	RunID int64 `parquet:"run_id,snappy"`

	// TitleKey is the original title (原名)
	TitleKey string `parquet:"title_key,snappy"`

	Excluded bool `parquet:"excluded,snappy"`

	CompositeScore *float64 `parquet:"composite_score,optional,snappy"`
	CompositeRank  *int32   `parquet:"composite_rank,optional,snappy"`

	BangumiRank     *int32 `parquet:"bangumi_rank,optional,snappy"`
	AnilistRank     *int32 `parquet:"anilist_rank,optional,snappy"`
	MyAnimeListRank *int32 `parquet:"myanimelist_rank,optional,snappy"`
	FilmarksRank    *int32 `parquet:"filmarks_rank,optional,snappy"`
}

// WriteRunsParquet writes a slice of Run structs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteTitleRanksParquet writes a slice of TitleRank structs to a Parquet file.
func WriteTitleRanksParquet(data []TitleRank, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows with a schema inferred from T's struct tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:          record.RunID,
			Operation:      record.Operation,
			InputFile:      record.InputFile,
			OutputFile:     record.OutputFile,
			StartTime:      record.StartTime,
			EndTime:        record.EndTime,
			RunDurationMs:  record.RunDurationMs,
			TotalProcessed: record.TotalProcessed,
			TotalValid:     record.TotalValid,
			TotalExcluded:  record.TotalExcluded,
			ErrorCount:     record.ErrorCount,
			WarningCount:   record.WarningCount,
			ConfigParams:   record.ConfigParams,
		}
	}
	return result
}

// ConvertTitleRankRecords converts schema.TitleRankRecord to TitleRank for Parquet export.
func ConvertTitleRankRecords(records []schema.TitleRankRecord) []TitleRank {
	result := make([]TitleRank, len(records))
	for i, record := range records {
		result[i] = TitleRank{
			RunID:           record.RunID,
			TitleKey:        record.TitleKey,
			Excluded:        record.Excluded,
			CompositeScore:  record.CompositeScore,
			CompositeRank:   record.CompositeRank,
			BangumiRank:     record.BangumiRank,
			AnilistRank:     record.AnilistRank,
			MyAnimeListRank: record.MyAnimeListRank,
			FilmarksRank:    record.FilmarksRank,
		}
	}
	return result
}
