package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/kisekinoumi/mzzbscore-edit/internal/contract"
	"github.com/kisekinoumi/mzzbscore-edit/internal/history"
	"github.com/kisekinoumi/mzzbscore-edit/internal/logging"
	"github.com/kisekinoumi/mzzbscore-edit/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// historyStore is the run history opened by the setup functions.
var historyStore contract.HistoryStore

// logger is injected into the reader, engine and rewriter.
var logger = logging.Discard()

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "mzzbscore",
	Short: "Rank anime titles across rating platforms in a spreadsheet.",
	Long: `mzzbscore reads a workbook of per-platform anime scores, ranks every title on
each platform and on a weighted composite score, and writes a ranked copy of the workbook.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Check if a specific config file is provided
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".mzzbscore") // Name of config file (without extension)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix("MZZBSCORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("input", contract.DefaultInputFile)
	viper.SetDefault("output-monthly", contract.DefaultMonthlyOutputFile)
	viper.SetDefault("output-final", contract.DefaultFinalOutputFile)
	viper.SetDefault("styles", "yes")
	viper.SetDefault("lock", "yes")
	viper.SetDefault("limit", contract.DefaultResultLimit)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("color", "yes")
	viper.SetDefault("log-level", contract.DefaultLogLevel)
	viper.SetDefault("log-format", contract.DefaultLogFormat)
	viper.SetDefault("history-backend", "")
	viper.SetDefault("history-db-connect", "")
}

// readInput merges defaults, file, env, and flags into the raw input struct.
func readInput() error {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	return nil
}

// sharedSetup unmarshals config, runs validation and opens the run history.
func sharedSetup(_ context.Context, op schema.OperationKind, args []string) error {
	// 1. Read config file and unmarshal all resolved values.
	if err := readInput(); err != nil {
		return err
	}

	// 2. Handle positional arguments (which Viper doesn't do).
	if len(args) == 1 {
		input.InputArg = args[0]
	}

	// 3. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input, op); err != nil {
		return err
	}
	return finishSetup()
}

// mcpSetup is sharedSetup without the workbook paths.
func mcpSetup() error {
	if err := readInput(); err != nil {
		return err
	}
	if err := contract.ProcessSettings(cfg, input); err != nil {
		return err
	}
	return finishSetup()
}

// finishSetup builds the logger and opens the run history for a validated cfg.
func finishSetup() error {
	l, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return fmt.Errorf("%w: %w", contract.ErrConfiguration, err)
	}
	logger = l
	color.NoColor = !cfg.UseColors

	return openHistory(cfg.HistoryBackend, cfg.HistoryDBConnect)
}

// setupFor returns a PreRunE that prepares the config for op.
func setupFor(op schema.OperationKind) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		return sharedSetup(rootCtx, op, args)
	}
}

// openHistory opens the store for backend. Failures leave history disabled.
func openHistory(backend schema.DatabaseBackend, connStr string) error {
	store, err := history.NewStore(backend, connStr)
	if err != nil {
		contract.LogWarn("Run history disabled", err)
		store, err = history.NewStore(schema.NoneBackend, "")
		if err != nil {
			return fmt.Errorf("failed to initialize run history: %w", err)
		}
	}
	historyStore = store
	return nil
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".mzzbscore")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// CloseHistory releases the run history opened during setup.
func CloseHistory() error {
	if historyStore == nil {
		return nil
	}
	return historyStore.Close()
}
