package cmd

import (
	"github.com/kisekinoumi/mzzbscore-edit/core"
	"github.com/kisekinoumi/mzzbscore-edit/internal/contract"
	"github.com/kisekinoumi/mzzbscore-edit/schema"
	"github.com/spf13/cobra"
)

// monthlyCmd ranks a workbook into the monthly output.
var monthlyCmd = &cobra.Command{
	Use:   "monthly [input]",
	Short: "Rank a score workbook and write the monthly ranking workbook",
	Long: `Read the score workbook, rank every title per platform and by weighted composite
score, and write a ranked copy of the workbook.

The copy keeps the original sheet and formatting:
- A rank column is inserted after each platform vote-count (X_total) column
- Valid titles keep their rows and gain their composite and platform ranks
- Excluded titles are appended after a two-row gap
- Hyperlinks follow their rows

The input is never modified. The destination is written through a temporary
file and replaced atomically.

Examples:
  # Rank the default workbook (mzzb.xlsx)
  mzzbscore monthly

  # Rank a specific workbook without styling
  mzzbscore monthly scores-2025-04.xlsx --styles no

  # Write the summary as JSON
  mzzbscore monthly --output json --summary-file summary.json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: setupFor(schema.MonthlyOperation),
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRanking(rootCtx, cfg, historyStore, logger); err != nil {
			contract.LogFatal("Cannot run monthly ranking", err)
		}
	},
}

// finalCmd ranks a workbook into the final output.
var finalCmd = &cobra.Command{
	Use:   "final [input]",
	Short: "Rank a score workbook and write the final ranking workbook",
	Long: `Run the same ranking as the monthly command but write the final ranking
workbook (final_anime_scores.xlsx by default).

Examples:
  # Rank the default workbook into the final output
  mzzbscore final

  # Choose an explicit destination
  mzzbscore final season.xlsx --output-file out/final.xlsx`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: setupFor(schema.FinalOperation),
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRanking(rootCtx, cfg, historyStore, logger); err != nil {
			contract.LogFatal("Cannot run final ranking", err)
		}
	},
}

// statsCmd ranks a workbook without writing anything.
var statsCmd = &cobra.Command{
	Use:   "stats [input]",
	Short: "Show ranking statistics and the top titles without writing a workbook",
	Long: `Read and rank the workbook, then print:
- Processed, valid and excluded counts
- Per-platform coverage
- The composite score distribution
- The top titles by composite rank

Nothing is written besides the optional summary file.

Examples:
  # Show the top 20 titles
  mzzbscore stats --limit 20

  # Export the top titles as CSV
  mzzbscore stats --output csv --summary-file top.csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: setupFor(schema.StatsOperation),
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteStats(rootCtx, cfg, historyStore, logger); err != nil {
			contract.LogFatal("Cannot compute statistics", err)
		}
	},
}
