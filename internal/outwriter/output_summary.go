package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/kisekinoumi/mzzbscore-edit/internal/contract"
	"github.com/kisekinoumi/mzzbscore-edit/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

const separator = "=================================================="

// operationTitle is the heading of a summary.
func operationTitle(op schema.OperationKind) string {
	switch op {
	case schema.MonthlyOperation:
		return "Monthly ranking"
	case schema.FinalOperation:
		return "Final ranking"
	case schema.StatsOperation:
		return "Statistics"
	default:
		return string(op)
	}
}

// paint applies c when colours are enabled.
func paint(cfg *contract.Config, c *color.Color, s string) string {
	if !cfg.UseColors {
		return s
	}
	return c.Sprint(s)
}

// rateLabel formats a rate, coloured when enabled.
func rateLabel(cfg *contract.Config, rate float64) string {
	if cfg.UseColors {
		return contract.GetColorRateLabel(rate)
	}
	return contract.GetRateLabel(rate)
}

// writeSummaryText renders the run summary and platform coverage.
func writeSummaryText(w io.Writer, report RunReport, cfg *contract.Config) error {
	var b strings.Builder
	writeSummaryBody(&b, report, cfg)
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	if err := writeCoverageTable(w, report.Stats.Platforms, cfg); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, separator)
	return err
}

// writeSummaryBody writes totals and diagnostics. At most five errors and three
// warnings are listed; the rest are counted.
func writeSummaryBody(b *strings.Builder, report RunReport, cfg *contract.Config) {
	_, intFmt := createFormatters(cfg.Precision)
	count := func(n int) string { return paint(cfg, contract.InfoColor, fmt.Sprintf(intFmt, n)) }

	fmt.Fprintf(b, "\n%s complete!\n", paint(cfg, contract.SuccessColor, operationTitle(report.Operation)))
	fmt.Fprintln(b, separator)
	fmt.Fprintf(b, "Input: %s\n", report.InputFile)
	if report.OutputFile != "" {
		fmt.Fprintf(b, "Output: %s\n", report.OutputFile)
	}
	fmt.Fprintf(b, "Total processed: %s\n", count(report.TotalProcessed))
	fmt.Fprintf(b, "Valid: %s\n", count(report.TotalValid))
	fmt.Fprintf(b, "Excluded: %s\n", count(report.TotalExcluded))
	fmt.Fprintf(b, "Success rate: %s\n", rateLabel(cfg, report.SuccessRate))
	fmt.Fprintf(b, "Processing time: %.2fs\n", float64(report.ProcessingTimeMs)/1000)

	writeDiagnostics(b, paint(cfg, contract.ErrorColor, "Errors"), "errors", report.Errors, maxShownErrors)
	writeDiagnostics(b, paint(cfg, contract.WarnColor, "Warnings"), "warnings", report.Warnings, maxShownWarnings)
}

// writeDiagnostics lists the first limit messages and counts the remainder.
func writeDiagnostics(b *strings.Builder, heading, noun string, msgs []string, limit int) {
	if len(msgs) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s (%d):\n", heading, len(msgs))
	for i, msg := range msgs {
		if i == limit {
			fmt.Fprintf(b, "  ... and %d more %s\n", len(msgs)-limit, noun)
			break
		}
		fmt.Fprintf(b, "  - %s\n", msg)
	}
}

// writeCoverageTable renders ranked/total per platform.
func writeCoverageTable(w io.Writer, platforms []schema.PlatformCoverage, cfg *contract.Config) error {
	if len(platforms) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "\nPlatform coverage:"); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Platform", "Ranked", "Total", "Coverage"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	_, intFmt := createFormatters(cfg.Precision)
	data := make([][]string, 0, len(platforms))
	for _, p := range platforms {
		data = append(data, []string{
			p.Platform,
			fmt.Sprintf(intFmt, p.Ranked),
			fmt.Sprintf(intFmt, p.Total),
			rateLabel(cfg, p.Coverage),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeSummaryCSV writes the summary as metric/value rows.
func writeSummaryCSV(w io.Writer, report RunReport, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	return writeCSVWithHeader(w, []string{"metric", "value"}, func(cw *csv.Writer) error {
		rows := [][]string{
			{"operation", string(report.Operation)},
			{"input_file", report.InputFile},
			{"output_file", report.OutputFile},
			{"total_processed", strconv.Itoa(report.TotalProcessed)},
			{"total_valid", strconv.Itoa(report.TotalValid)},
			{"total_excluded", strconv.Itoa(report.TotalExcluded)},
			{"success_rate", fmtFloat(report.SuccessRate)},
			{"processing_time_ms", strconv.FormatInt(report.ProcessingTimeMs, 10)},
			{"error_count", strconv.Itoa(len(report.Errors))},
			{"warning_count", strconv.Itoa(len(report.Warnings))},
		}
		for _, p := range report.Stats.Platforms {
			key := strings.ToLower(p.Platform)
			rows = append(rows,
				[]string{key + "_ranked", strconv.Itoa(p.Ranked)},
				[]string{key + "_coverage", fmtFloat(p.Coverage)},
			)
		}
		return cw.WriteAll(rows)
	})
}
