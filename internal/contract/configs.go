package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kisekinoumi/mzzbscore-edit/schema"
)

// Default values for configuration.
const (
	DefaultInputFile         = "mzzb.xlsx"
	DefaultMonthlyOutputFile = "monthly_anime_scores.xlsx"
	DefaultFinalOutputFile   = "final_anime_scores.xlsx"
	DefaultResultLimit       = 10
	MaxResultLimit           = 1000
	DefaultPrecision         = 2
	DefaultLogLevel          = "warn"
	DefaultLogFormat         = "console"
)

// SupportedExtensions lists the workbook formats that can be read and rewritten.
var SupportedExtensions = map[string]struct{}{
	".xlsx": {},
	".xlsm": {},
}

// WeightsRawInput holds custom composite weights from the YAML config file.
// Use float64 pointers for optional fields.
type WeightsRawInput struct {
	Bangumi     *float64 `mapstructure:"bangumi"`
	Anilist     *float64 `mapstructure:"anilist"`
	MyAnimeList *float64 `mapstructure:"myanimelist"`
	Filmarks    *float64 `mapstructure:"filmarks"`
}

// Config holds the runtime configuration for a ranking run.
// This struct is the "final, validated" config.
type Config struct {
	Operation   schema.OperationKind
	InputFile   string
	OutputFile  string // destination workbook
	ApplyStyles bool
	LockOutput  bool
	Weights     schema.Weights

	Output      schema.OutputMode
	SummaryFile string // where the summary goes; stdout when empty
	ResultLimit int
	Precision   int
	Width       int // Terminal width override (0 = auto-detect)
	UseColors   bool

	LogLevel  string
	LogFormat string

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext
}

// Clone returns a copy of the config that tool handlers may modify per request.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputArg string

	// --- Fields from rootCmd.PersistentFlags() ---
	Input            string `mapstructure:"input"`
	OutputMonthly    string `mapstructure:"output-monthly"`
	OutputFinal      string `mapstructure:"output-final"`
	OutputFile       string `mapstructure:"output-file"`
	Styles           string `mapstructure:"styles"`
	Lock             string `mapstructure:"lock"`
	Output           string `mapstructure:"output"`
	SummaryFile      string `mapstructure:"summary-file"`
	Limit            int    `mapstructure:"limit"`
	Precision        int    `mapstructure:"precision"`
	Width            int    `mapstructure:"width"`
	Color            string `mapstructure:"color"`
	LogLevel         string `mapstructure:"log-level"`
	LogFormat        string `mapstructure:"log-format"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`

	// --- Custom weights from config file ---
	Weights WeightsRawInput `mapstructure:"weights"`
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput, op schema.OperationKind) error {
	cfg.Operation = op
	if err := ProcessSettings(cfg, input); err != nil {
		return err
	}
	return resolvePaths(cfg, input)
}

// ProcessSettings validates everything except the workbook paths. The MCP
// server uses it since its tools name their workbooks per call.
func ProcessSettings(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if err := processCustomWeights(cfg, input); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseDatabaseBackend resolves a backend name. An empty name means none.
func ParseDatabaseBackend(s string) (schema.DatabaseBackend, error) {
	if strings.TrimSpace(s) == "" {
		return schema.NoneBackend, nil
	}
	backend := schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", s)
	}
	return backend, nil
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.SummaryFile = input.SummaryFile
	cfg.Width = input.Width

	styles, err := ParseBoolString(defaultString(input.Styles, "yes"))
	if err != nil {
		return fmt.Errorf("invalid --styles value: %w", err)
	}
	cfg.ApplyStyles = styles

	lock, err := ParseBoolString(defaultString(input.Lock, "yes"))
	if err != nil {
		return fmt.Errorf("invalid --lock value: %w", err)
	}
	cfg.LockOutput = lock

	colors, err := ParseBoolString(defaultString(input.Color, "yes"))
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", input.Width)
	}

	cfg.Output = schema.OutputMode(strings.ToLower(defaultString(input.Output, string(schema.TextOut))))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Output)
	}

	cfg.LogLevel = defaultString(input.LogLevel, DefaultLogLevel)
	cfg.LogFormat = defaultString(input.LogFormat, DefaultLogFormat)

	backend, err := ParseDatabaseBackend(input.HistoryBackend)
	if err != nil {
		return err
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = input.HistoryDBConnect
	return ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect)
}

// ProcessWeightsRawInput merges custom weights over the defaults.
// If any weight is given, all weights must be non-negative and sum to 1.0.
func ProcessWeightsRawInput(raw WeightsRawInput) (schema.Weights, error) {
	weights := schema.DefaultWeights()

	overrides := map[schema.Platform]*float64{
		schema.Bangumi:     raw.Bangumi,
		schema.Anilist:     raw.Anilist,
		schema.MyAnimeList: raw.MyAnimeList,
		schema.Filmarks:    raw.Filmarks,
	}

	custom := false
	for p, v := range overrides {
		if v == nil {
			continue
		}
		if *v < 0 {
			return weights, fmt.Errorf("weight for %s cannot be negative (received %.3f)", p, *v)
		}
		weights[p] = *v
		custom = true
	}
	if !custom {
		return weights, nil
	}

	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum < 0.999 || sum > 1.001 {
		return weights, fmt.Errorf("custom weights must sum to 1.0, got %.3f", sum)
	}
	return weights, nil
}

// processCustomWeights converts the raw input into the final cfg.Weights.
func processCustomWeights(cfg *Config, input *ConfigRawInput) error {
	weights, err := ProcessWeightsRawInput(input.Weights)
	if err != nil {
		return err
	}
	cfg.Weights = weights
	return nil
}

// resolvePaths picks the input and destination workbooks and validates both.
// The positional argument wins over --input; --output-file wins over the per-operation default.
func resolvePaths(cfg *Config, input *ConfigRawInput) error {
	inputFile := input.InputArg
	if inputFile == "" {
		inputFile = defaultString(input.Input, DefaultInputFile)
	}
	if err := ValidateInputFile(inputFile); err != nil {
		return err
	}
	cfg.InputFile = inputFile

	if cfg.Operation == schema.StatsOperation {
		return nil
	}

	outputFile := input.OutputFile
	if outputFile == "" {
		switch cfg.Operation {
		case schema.FinalOperation:
			outputFile = defaultString(input.OutputFinal, DefaultFinalOutputFile)
		default:
			outputFile = defaultString(input.OutputMonthly, DefaultMonthlyOutputFile)
		}
	}
	if err := ValidateOutputFile(outputFile); err != nil {
		return err
	}
	cfg.OutputFile = outputFile
	return nil
}

// ValidateInputFile checks that the workbook exists, is a readable regular file
// and has a supported extension.
func ValidateInputFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: input file path is empty", ErrValidation)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := SupportedExtensions[ext]; !ok {
		return fmt.Errorf("%w: unsupported file format %q for %s (supported: .xlsx, .xlsm)", ErrValidation, ext, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: input file %s: %w", ErrFileOperation, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: input path %s is a directory", ErrFileOperation, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: input file %s is not readable: %w", ErrFileOperation, path, err)
	}
	return f.Close()
}

// ValidateOutputFile checks the destination extension and makes sure its directory
// exists (creating it if needed) and accepts new files.
func ValidateOutputFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: output file path is empty", ErrValidation)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := SupportedExtensions[ext]; !ok {
		return fmt.Errorf("%w: unsupported output format %q for %s (supported: .xlsx, .xlsm)", ErrValidation, ext, path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: cannot create output directory %s: %w", ErrFileOperation, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".mzzbscore-write-*")
	if err != nil {
		return fmt.Errorf("%w: output directory %s is not writable: %w", ErrFileOperation, dir, err)
	}
	name := tmp.Name()
	_ = tmp.Close()
	return os.Remove(name)
}

func defaultString(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
