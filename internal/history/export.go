package history

import (
	"errors"
	"fmt"
	"io"

	"github.com/kisekinoumi/mzzbscore-edit/internal/contract"
	"github.com/kisekinoumi/mzzbscore-edit/internal/parquet"
)

// ErrNoHistory is returned when an export finds no recorded runs.
var ErrNoHistory = errors.New("no run history found to export")

// Export writes the runs and title ranks held by store to two Parquet files
// named after outputFile, reporting progress to w.
func Export(w io.Writer, store contract.HistoryStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return ErrNoHistory
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total title records: %d\n", status.TableSizes[titleRanksTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	ranks, err := store.GetAllTitleRanks()
	if err != nil {
		return fmt.Errorf("failed to retrieve title ranks: %w", err)
	}

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), runsFile)

	ranksFile := outputFile + ".title_ranks.parquet"
	if err := parquet.WriteTitleRanksParquet(parquet.ConvertTitleRankRecords(ranks), ranksFile); err != nil {
		return fmt.Errorf("failed to write title ranks: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d title records to: %s\n", len(ranks), ranksFile)

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be read with DuckDB, Pandas (via pyarrow) or Apache Arrow.")
	return nil
}
