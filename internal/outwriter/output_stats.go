package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kisekinoumi/mzzbscore-edit/internal/contract"
	"github.com/kisekinoumi/mzzbscore-edit/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// writeStatisticsText renders the summary, the composite distribution and the top titles.
func writeStatisticsText(w io.Writer, report RunReport, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	var b strings.Builder
	writeSummaryBody(&b, report, cfg)
	if c := report.Stats.Composite; c != nil {
		fmt.Fprintf(&b, "\nComposite scores: count %d, mean %s, median %s, min %s, max %s, std %s\n",
			c.Count, fmtFloat(c.Mean), fmtFloat(c.Median), fmtFloat(c.Min), fmtFloat(c.Max), fmtFloat(c.Std))
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	if err := writeCoverageTable(w, report.Stats.Platforms, cfg); err != nil {
		return err
	}
	if len(report.Top) > 0 {
		if _, err := fmt.Fprintf(w, "\nTop %d titles:\n", len(report.Top)); err != nil {
			return err
		}
		if err := writeTopTable(w, report.Top, cfg); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, separator)
	return err
}

// platformHeaders returns the platform names in column order.
func platformHeaders() []string {
	headers := make([]string, 0, schema.PlatformCount)
	for _, p := range schema.AllPlatforms {
		headers = append(headers, p.String())
	}
	return headers
}

// writeTopTable renders the ranked titles with their platform ranks.
func writeTopTable(w io.Writer, titles []schema.RankedTitle, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	maxWidth := getMaxTitleWidth(cfg)

	table := tablewriter.NewWriter(w)
	table.Header(append([]string{"Rank", "Title", "Score"}, platformHeaders()...))
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(titles))
	for _, t := range titles {
		row := []string{
			formatRank(t.Rank),
			contract.TruncateText(t.Title, maxWidth),
			formatScore(t.CompositeScore, fmtFloat),
		}
		for _, p := range schema.AllPlatforms {
			row = append(row, formatRank(t.PlatformRanks[p.String()]))
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeTopCSV writes the ranked titles; absent values are empty cells.
func writeTopCSV(w io.Writer, titles []schema.RankedTitle, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	header := []string{"rank", "title", "translated_name", "composite_score"}
	for _, p := range schema.AllPlatforms {
		header = append(header, p.Spec().Key+"_rank")
	}

	csvRank := func(r *int32) string {
		if r == nil {
			return ""
		}
		return strconv.Itoa(int(*r))
	}

	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, t := range titles {
			score := ""
			if t.CompositeScore != nil {
				score = fmtFloat(*t.CompositeScore)
			}
			rec := []string{csvRank(t.Rank), t.Title, t.TranslatedName, score}
			for _, p := range schema.AllPlatforms {
				rec = append(rec, csvRank(t.PlatformRanks[p.String()]))
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
