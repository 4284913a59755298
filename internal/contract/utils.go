package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// Color variables for console output.
var (
	ErrorColor   = color.New(color.FgRed, color.Bold) // ErrorColor marks errors.
	WarnColor    = color.New(color.FgYellow)          // WarnColor marks warnings.
	SuccessColor = color.New(color.FgGreen, color.Bold)
	InfoColor    = color.New(color.FgCyan) // InfoColor marks neutral counts.
)

// GetRateLabel returns a plain label for a success or coverage rate in [0, 1].
func GetRateLabel(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}

// GetColorRateLabel colours a rate label: green from 80%, yellow from 50%, red below.
func GetColorRateLabel(rate float64) string {
	text := GetRateLabel(rate)
	switch {
	case rate >= 0.8:
		return SuccessColor.Sprint(text)
	case rate >= 0.5:
		return WarnColor.Sprint(text)
	default:
		return ErrorColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when the path is empty.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".mzzbscore_history.db"
	}
	return filepath.Join(homeDir, ".mzzbscore_history.db")
}

// TruncateText shortens s to maxWidth display columns, ending with an ellipsis.
// CJK titles take two columns per rune. Requires maxWidth > 3.
func TruncateText(s string, maxWidth int) string {
	if maxWidth <= 3 || runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
