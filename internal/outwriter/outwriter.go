// Package outwriter renders run summaries, statistics and history status.
package outwriter

import (
	"io"

	"github.com/kisekinoumi/mzzbscore-edit/core/algo"
	"github.com/kisekinoumi/mzzbscore-edit/internal/contract"
	"github.com/kisekinoumi/mzzbscore-edit/schema"
)

// maxShownErrors and maxShownWarnings cap the diagnostics listed in a text summary.
const (
	maxShownErrors   = 5
	maxShownWarnings = 3
)

// RunReport is the serialisable view of one run shown to the user.
type RunReport struct {
	Operation  schema.OperationKind `json:"operation"`
	InputFile  string               `json:"input_file"`
	OutputFile string               `json:"output_file,omitempty"`
	schema.RankingSummary
	Top []schema.RankedTitle `json:"top,omitempty"`
}

// NewRunReport builds the report for result. When limit is positive the report
// carries the top titles by composite rank.
func NewRunReport(result *schema.RankingResult, op schema.OperationKind, input, output string, limit int) RunReport {
	report := RunReport{
		Operation:      op,
		InputFile:      input,
		OutputFile:     output,
		RankingSummary: result.Summary(),
	}
	if limit > 0 {
		report.Top = TopTitles(result, limit)
	}
	return report
}

// TopTitles returns up to limit ranked titles, best first.
func TopTitles(result *schema.RankingResult, limit int) []schema.RankedTitle {
	top := algo.TopByRank(result.Valid, limit)
	titles := make([]schema.RankedTitle, len(top))
	for i, rec := range top {
		titles[i] = schema.NewRankedTitle(rec, false)
	}
	return titles
}

// PrintRankingSummary prints the outcome of a monthly or final run, dispatching
// on the configured output format.
func PrintRankingSummary(result *schema.RankingResult, cfg *contract.Config) error {
	report := NewRunReport(result, cfg.Operation, cfg.InputFile, cfg.OutputFile, 0)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.SummaryFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.SummaryFile, func(w io.Writer) error {
			return writeSummaryCSV(w, report, cfg)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.SummaryFile, func(w io.Writer) error {
			return writeSummaryText(w, report, cfg)
		}, "Wrote summary")
	}
}

// PrintStatistics prints the summary, coverage, composite distribution and the
// top titles of a stats run.
func PrintStatistics(result *schema.RankingResult, cfg *contract.Config) error {
	report := NewRunReport(result, schema.StatsOperation, cfg.InputFile, "", cfg.ResultLimit)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.SummaryFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.SummaryFile, func(w io.Writer) error {
			return writeTopCSV(w, report.Top, cfg)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.SummaryFile, func(w io.Writer) error {
			return writeStatisticsText(w, report, cfg)
		}, "Wrote statistics")
	}
}
