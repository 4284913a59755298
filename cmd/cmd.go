// Package cmd defines the command-line interface for mzzbscore.
package cmd

import (
	"github.com/kisekinoumi/mzzbscore-edit/internal/contract"
	"github.com/kisekinoumi/mzzbscore-edit/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(monthlyCmd)
	rootCmd.AddCommand(finalCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("input", contract.DefaultInputFile, "Workbook to read when no positional argument is given")
	rootCmd.PersistentFlags().String("output-monthly", contract.DefaultMonthlyOutputFile, "Destination workbook of the monthly command")
	rootCmd.PersistentFlags().String("output-final", contract.DefaultFinalOutputFile, "Destination workbook of the final command")
	rootCmd.PersistentFlags().String("output-file", "", "Explicit destination; overrides the per-command default (history export prefix)")
	rootCmd.PersistentFlags().String("styles", "yes", "Apply header, border and link styles to the output (yes/no)")
	rootCmd.PersistentFlags().String("lock", "yes", "Hold an advisory lock on the destination while writing (yes/no)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Summary format: text or csv or json")
	rootCmd.PersistentFlags().String("summary-file", "", "Optional path to write the summary to")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of titles to display")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", contract.DefaultLogFormat, "Log format: console or json")
	rootCmd.PersistentFlags().String("history-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname?parseTime=true)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
