// Package core has the ranking engine and the pipelines built around it.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kisekinoumi/mzzbscore-edit/internal/contract"
	"github.com/kisekinoumi/mzzbscore-edit/internal/logging"
	"github.com/kisekinoumi/mzzbscore-edit/internal/outwriter"
	"github.com/kisekinoumi/mzzbscore-edit/internal/workbook"
	"github.com/kisekinoumi/mzzbscore-edit/schema"
)

// ExecutorFunc defines the function signature for executing the ranking commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, store contract.HistoryStore, logger *slog.Logger) error

// ExecuteRanking reads, ranks and rewrites the workbook, then prints the run summary.
// It serves as the entry point for the 'monthly' and 'final' commands.
func ExecuteRanking(ctx context.Context, cfg *contract.Config, store contract.HistoryStore, logger *slog.Logger) error {
	result, err := NewPipeline(cfg, store, logger).Run(ctx, cfg.Operation, cfg.InputFile, cfg.OutputFile)
	if err != nil {
		return err
	}
	return outwriter.PrintRankingSummary(result, cfg)
}

// ExecuteStats reads and ranks the workbook without writing it, then prints the
// statistics and the top titles.
func ExecuteStats(ctx context.Context, cfg *contract.Config, store contract.HistoryStore, logger *slog.Logger) error {
	result, err := NewPipeline(cfg, store, logger).Run(ctx, schema.StatsOperation, cfg.InputFile, "")
	if err != nil {
		return err
	}
	return outwriter.PrintStatistics(result, cfg)
}

// Pipeline wires the reader, the engine and the rewriter for one configuration.
type Pipeline struct {
	reader *workbook.Reader
	engine *Engine
	writer *workbook.Rewriter
	store  contract.HistoryStore
	params map[string]any
	logger *slog.Logger
}

// NewPipeline builds a pipeline. A nil store disables run history and a nil
// logger discards output.
func NewPipeline(cfg *contract.Config, store contract.HistoryStore, logger *slog.Logger) *Pipeline {
	logger = logging.OrDiscard(logger)
	weights := make(map[string]float64, schema.PlatformCount)
	for _, p := range schema.AllPlatforms {
		weights[p.Spec().Key] = cfg.Weights[p]
	}
	return &Pipeline{
		reader: workbook.NewReader(logger),
		engine: NewEngine(cfg.Weights, logger),
		writer: workbook.NewRewriter(workbook.RewriterOptions{
			ApplyStyles: cfg.ApplyStyles,
			LockOutput:  cfg.LockOutput,
		}, logger),
		store: store,
		params: map[string]any{
			"apply_styles": cfg.ApplyStyles,
			"lock_output":  cfg.LockOutput,
			"weights":      weights,
		},
		logger: logger,
	}
}

// Run reads input, ranks it and, when output is set, writes the ranked copy there.
// The context is checked between stages; a stage is never interrupted. The returned
// result's processing time covers the whole run.
func (p *Pipeline) Run(ctx context.Context, op schema.OperationKind, input, output string) (*schema.RankingResult, error) {
	start := time.Now()
	runID := p.beginRun(start, op, input)

	fail := func(err error) (*schema.RankingResult, error) {
		p.endRun(runID, "", schema.RankingSummary{Errors: []string{err.Error()}})
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	table, err := p.reader.Read(input)
	if err != nil {
		return fail(fmt.Errorf("reading %s: %w", input, err))
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	result := p.engine.Process(table)

	if output != "" {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		if err := p.writer.Write(output, input, result); err != nil {
			return fail(fmt.Errorf("writing %s: %w", output, err))
		}
	}
	result.ProcessingTime = time.Since(start)

	p.recordTitles(runID, result)
	p.endRun(runID, output, result.Summary())
	return result, nil
}

// Preview ranks input and returns it without writing or recording anything.
func (p *Pipeline) Preview(ctx context.Context, input string) (*schema.RankingResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	table, err := p.reader.Read(input)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", input, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.engine.Process(table), nil
}

// beginRun opens a history run. Zero means history is off or failed.
func (p *Pipeline) beginRun(start time.Time, op schema.OperationKind, input string) int64 {
	if p.store == nil {
		return 0
	}
	runID, err := p.store.BeginRun(start, op, input, p.params)
	if err != nil {
		p.logger.Warn("run history initialization failed", "error", err)
		return 0
	}
	return runID
}

func (p *Pipeline) endRun(runID int64, output string, summary schema.RankingSummary) {
	if p.store == nil || runID <= 0 {
		return
	}
	if err := p.store.EndRun(runID, time.Now(), output, summary); err != nil {
		p.logger.Warn("failed to finalize run history", "run_id", runID, "error", err)
	}
}

// recordTitles stores the ranks of every title once; a repeated key keeps its first record.
func (p *Pipeline) recordTitles(runID int64, result *schema.RankingResult) {
	if p.store == nil || runID <= 0 {
		return
	}
	seen := make(map[string]struct{}, result.TotalProcessed())
	record := func(rec *schema.Record, excluded bool) {
		if _, dup := seen[rec.Key]; dup {
			return
		}
		seen[rec.Key] = struct{}{}
		if err := p.store.RecordTitle(schema.NewTitleRankRecord(runID, rec, excluded)); err != nil {
			p.logger.Warn("run history tracking failed", "title", rec.Key, "error", err)
		}
	}
	for _, rec := range result.Valid {
		record(rec, false)
	}
	for _, rec := range result.Excluded {
		record(rec, true)
	}
}
