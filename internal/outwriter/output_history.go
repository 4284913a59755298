package outwriter

import (
	"fmt"
	"io"
	"sort"

	"github.com/kisekinoumi/mzzbscore-edit/internal/contract"
	"github.com/kisekinoumi/mzzbscore-edit/schema"
)

// PrintHistoryStatus prints run history status as JSON or text.
func PrintHistoryStatus(status schema.HistoryStatus, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		return writeWithFile(cfg.SummaryFile, func(w io.Writer) error {
			return writeJSON(w, status)
		}, "Wrote JSON")
	}
	return writeWithFile(cfg.SummaryFile, func(w io.Writer) error {
		return writeHistoryStatusText(w, status)
	}, "Wrote status")
}

func writeHistoryStatusText(w io.Writer, status schema.HistoryStatus) error {
	const layout = "2006-01-02 15:04:05"

	lines := []string{
		fmt.Sprintf("History Backend: %s", status.Backend),
		fmt.Sprintf("Connected: %t", status.Connected),
	}
	if status.Connected {
		lines = append(lines, fmt.Sprintf("Total Runs: %d", status.TotalRuns))
		if status.TotalRuns > 0 {
			lines = append(lines,
				fmt.Sprintf("Last Run ID: %d", status.LastRunID),
				fmt.Sprintf("Last Run: %s", status.LastRunTime.Format(layout)),
				fmt.Sprintf("Oldest Run: %s", status.OldestRunTime.Format(layout)),
				fmt.Sprintf("Distinct Titles: %d", status.TotalTitles),
			)
		}

		tables := make([]string, 0, len(status.TableSizes))
		for table := range status.TableSizes {
			tables = append(tables, table)
		}
		sort.Strings(tables)
		lines = append(lines, "Table Sizes:")
		for _, table := range tables {
			lines = append(lines, fmt.Sprintf("  %s: %d rows", table, status.TableSizes[table]))
		}
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
