// Package main provides a performance benchmarking tool for the mzzbscore CLI.
// It generates synthetic score workbooks of increasing size, runs each command
// several times with run history disabled and with the SQLite history, and
// writes a CSV with the averages for performance analysis and documentation.
//
// Prerequisites:
// - mzzbscore binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where the synthetic workbooks are generated
package main

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// BenchmarkResult holds the result of a benchmark run (no-history average, first
// recorded run and average of the following recorded runs).
type BenchmarkResult struct {
	Titles        int
	Command       string
	NoHistoryTime string
	FirstTime     string
	HistoryTime   string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir       string
	Timeout       time.Duration
	NoHistoryRuns int
	HistoryRuns   int
	Sizes         []int
	Commands      []string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:       os.Args[1],
		Timeout:       2 * time.Minute,
		NoHistoryRuns: 3,
		HistoryRuns:   4,
		Sizes:         []int{100, 1000, 10000},
		Commands:      []string{"monthly", "stats"},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Clearing run history...\n")
	clearCmd := exec.Command("mzzbscore", "history", "clear", "--history-backend", "sqlite")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear run history: %v\nOutput: %s\n", err, string(output))
	}

	results, err := runBenchmarks(config)
	if err != nil {
		fmt.Printf("Benchmark failed: %v\n", err)
		os.Exit(1)
	}

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results, config.Commands)
}

// checkPrerequisites verifies that the binary exists and the work directory is usable
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("mzzbscore"); err != nil {
		return fmt.Errorf("mzzbscore binary not found in PATH")
	}
	return os.MkdirAll(config.WorkDir, 0o755)
}

// generateWorkbook writes a season sheet with n titles. About one title in
// twenty is excluded and platforms are missing at random.
func generateWorkbook(path string, n int) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", []any{"benchmark season"}); err != nil {
		return err
	}
	header := []any{
		"原名", "译名",
		"Bangumi", "Bangumi_total", "Anilist", "Anilist_total",
		"MyAnimelist", "MyAnimelist_total", "Filmarks", "Filmarks_total",
		"Notes",
	}
	if err := sw.SetRow("A2", header); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(uint64(n), 42))
	score := func(scale float64) any {
		if rng.IntN(5) == 0 {
			return nil
		}
		return float64(int(rng.Float64()*scale*100)) / 100
	}
	for i := range n {
		var notes any
		if rng.IntN(20) == 0 {
			notes = "*数据不足"
		}
		row := []any{
			fmt.Sprintf("title-%05d", i), fmt.Sprintf("作品%05d", i),
			score(10), rng.IntN(5000), score(100), rng.IntN(20000),
			score(10), rng.IntN(50000), score(5), rng.IntN(3000),
			notes,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.SaveAs(path)
}

// runBenchmarks executes all commands against a workbook of every configured size
func runBenchmarks(config BenchmarkConfig) ([]BenchmarkResult, error) {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d sizes, %v timeout, no-history: %d runs, history: %d runs\n",
		len(config.Sizes), config.Timeout, config.NoHistoryRuns, config.HistoryRuns)

	for _, size := range config.Sizes {
		input := filepath.Join(config.WorkDir, fmt.Sprintf("bench_%d.xlsx", size))
		fmt.Printf("Generating %s\n", input)
		if err := generateWorkbook(input, size); err != nil {
			return nil, fmt.Errorf("generating %s: %w", input, err)
		}

		for _, command := range config.Commands {
			results = append(results, runBenchmarkSuite(config, size, input, command))
		}
	}
	return results, nil
}

// runBenchmarkSuite runs both no-history and history benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, size int, input, command string) BenchmarkResult {
	fmt.Printf("Running %s on %d titles\n", command, size)

	runPhase := func(backend string, numRuns int, phaseName string) (first float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		times := runBenchmark(config, input, command, backend, numRuns)
		if len(times) == 0 {
			return 0, "TIMEOUT"
		}
		first = times[0]
		if len(times) > 1 {
			times = times[1:]
		}
		var sum float64
		for _, t := range times {
			sum += t
		}
		return first, fmt.Sprintf("%.3fs", sum/float64(len(times)))
	}

	_, noHistoryAvg := runPhase("none", config.NoHistoryRuns, "No-history")
	firstTime, historyAvg := runPhase("sqlite", config.HistoryRuns, "History")

	firstTimeStr := "TIMEOUT"
	if firstTime > 0 {
		firstTimeStr = fmt.Sprintf("%.3fs", firstTime)
	}

	fmt.Printf("  No-history average: %s, First recorded: %s, History average: %s\n", noHistoryAvg, firstTimeStr, historyAvg)

	return BenchmarkResult{
		Titles:        size,
		Command:       command,
		NoHistoryTime: noHistoryAvg,
		FirstTime:     firstTimeStr,
		HistoryTime:   historyAvg,
	}
}

// runBenchmark executes a command numRuns times and returns the successful durations
func runBenchmark(config BenchmarkConfig, input, command, backend string, numRuns int) []float64 {
	args := []string{command, input, "--history-backend", backend, "--color", "no"}
	if command != "stats" {
		args = append(args, "--output-file", strings.TrimSuffix(input, ".xlsx")+"_out.xlsx")
	}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("mzzbscore", args...)
		cmd.Dir = config.WorkDir

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
			<-done
		}
	}
	return times
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	return strings.Contains(string(output), "complete!")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("mzzbscore_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"titles", "cmd", "no_history_avg", "first_recorded", "history_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		record := []string{fmt.Sprint(result.Titles), result.Command, result.NoHistoryTime, result.FirstTime, result.HistoryTime}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult, commands []string) {
	fmt.Printf("Benchmark complete\n")
	for _, command := range commands {
		fmt.Printf("%s:\n", command)
		for _, result := range results {
			if result.Command == command {
				fmt.Printf("  %6d titles: No-history: %s, First: %s, History: %s\n",
					result.Titles, result.NoHistoryTime, result.FirstTime, result.HistoryTime)
			}
		}
	}
}
