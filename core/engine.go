package core

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kisekinoumi/mzzbscore-edit/core/algo"
	"github.com/kisekinoumi/mzzbscore-edit/internal/logging"
	"github.com/kisekinoumi/mzzbscore-edit/schema"
)

// Engine turns a table into ranked records. It never fails: problems are
// recorded on the result and the best available data is returned.
type Engine struct {
	weights schema.Weights
	logger  *slog.Logger
}

// NewEngine creates an engine with the given composite weights.
// A nil logger discards output.
func NewEngine(weights schema.Weights, logger *slog.Logger) *Engine {
	return &Engine{weights: weights, logger: logging.OrDiscard(logger)}
}

// Process runs filter, composite score, composite rank, platform ranks and
// excluded-record normalisation, in that order.
func (e *Engine) Process(table schema.Table) (result *schema.RankingResult) {
	start := time.Now()
	result = &schema.RankingResult{}

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("ranking aborted: %v", r)
			e.logger.Error(msg)
			result.AddError(msg)
		}
		result.ProcessingTime = time.Since(start)
	}()

	records := make([]*schema.Record, 0, len(table.Rows))
	for _, row := range table.Rows {
		records = append(records, schema.NewRecord(row))
	}

	if !table.HasHeader(schema.KeyHeader) {
		msg := fmt.Sprintf("required column %q not found", schema.KeyHeader)
		e.logger.Error(msg)
		result.AddError(msg)
		result.Valid = records
		return result
	}

	valid, excluded := e.filter(table, records, result)
	e.scoreComposite(valid, result)
	e.rankComposite(valid)
	e.rankPlatforms(table, valid, result)

	for _, rec := range excluded {
		rec.ClearComputed()
	}
	e.warnDuplicates(valid, result)

	result.Valid = valid
	result.Excluded = excluded
	result.Stats = ComputeStatistics(valid)

	e.logger.Info("ranking complete",
		"valid", len(valid),
		"excluded", len(excluded),
		"warnings", len(result.Warnings),
		"errors", len(result.Errors))
	return result
}

// filter splits records on their notes. Without a notes column every record is valid.
func (e *Engine) filter(table schema.Table, records []*schema.Record, result *schema.RankingResult) (valid, excluded []*schema.Record) {
	if !table.HasHeader(schema.NotesHeader) {
		msg := fmt.Sprintf("column %q not found, no titles excluded", schema.NotesHeader)
		e.logger.Warn(msg)
		result.AddWarning(msg)
		return records, nil
	}

	valid = make([]*schema.Record, 0, len(records))
	for _, rec := range records {
		if rec.IsExcluded() {
			excluded = append(excluded, rec)
			continue
		}
		valid = append(valid, rec)
	}
	e.logger.Debug("filtered titles", "valid", len(valid), "excluded", len(excluded))
	return valid, excluded
}

// scoreComposite fills the weighted composite score of each valid record.
// A record with a non-numeric score has no composite.
func (e *Engine) scoreComposite(valid []*schema.Record, result *schema.RankingResult) {
	for _, rec := range valid {
		rec.Composite = schema.Number{}

		invalid := false
		for _, p := range schema.AllPlatforms {
			if rec.Scores[p].Invalid {
				invalid = true
				msg := fmt.Sprintf("title %q: %s score %q is not a number", rec.Key, p, rec.Scores[p].Source.String())
				e.logger.Warn(msg, "row", rec.Row)
				result.AddWarning(msg)
			}
		}
		if invalid {
			continue
		}

		if score, ok := algo.WeightedScore(rec.Scores, e.weights); ok {
			rec.Composite = schema.Float(score)
		}
	}
}

func (e *Engine) rankComposite(valid []*schema.Record) {
	composites := make([]schema.Number, len(valid))
	for i, rec := range valid {
		composites[i] = rec.Composite
	}
	for i, rank := range algo.CompetitionRanks(composites) {
		valid[i].CompositeRank = rank
	}
}

// rankPlatforms ranks each platform independently. Titles that have a composite
// score but nothing on the platform get the no-data marker.
func (e *Engine) rankPlatforms(table schema.Table, valid []*schema.Record, result *schema.RankingResult) {
	for _, p := range schema.AllPlatforms {
		spec := p.Spec()
		if !table.HasHeader(spec.ScoreHeader) {
			msg := fmt.Sprintf("column %q not found, %s ranks skipped", spec.ScoreHeader, p)
			e.logger.Warn(msg)
			result.AddWarning(msg)
			for _, rec := range valid {
				rec.Ranks[p] = schema.Rank{}
			}
			continue
		}

		values := make([]schema.Number, len(valid))
		for i, rec := range valid {
			values[i] = rec.Scores[p]
		}
		for i, rank := range algo.CompetitionRanks(values) {
			rec := valid[i]
			if !rank.IsAssigned() && rec.Composite.Valid {
				rank = schema.Rank{State: schema.RankNoData}
			}
			rec.Ranks[p] = rank
		}
	}
}

// warnDuplicates reports keys shared by more than one valid record. Only the first
// of them is written back.
func (e *Engine) warnDuplicates(valid []*schema.Record, result *schema.RankingResult) {
	seen := make(map[string]int, len(valid))
	for _, rec := range valid {
		seen[rec.Key]++
		if seen[rec.Key] == 2 {
			msg := fmt.Sprintf("duplicate title %q, only the first row is updated", rec.Key)
			e.logger.Warn(msg)
			result.AddWarning(msg)
		}
	}
}
