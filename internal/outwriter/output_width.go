package outwriter

import (
	"os"

	"github.com/kisekinoumi/mzzbscore-edit/internal/contract"
	"golang.org/x/term"
)

// getTerminalWidth returns cfg.Width when set, else the detected width of stdout.
func getTerminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return detectedWidth
}

// getMaxTitleWidth calculates the display width left for titles in the ranking table.
func getMaxTitleWidth(cfg *contract.Config) int {
	// Rank + Score + four platform ranks, with borders and padding
	baseWidth := 8 + 10 + 4*12 + 10

	available := getTerminalWidth(cfg) - baseWidth
	if available < 12 {
		return 12
	}
	if available > 60 {
		return 60
	}
	return available
}
