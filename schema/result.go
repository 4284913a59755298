package schema

import "time"

// RankingResult is the outcome of one ranking run. It is built by the engine,
// may gain diagnostics afterwards, and is consumed once by the rewriter.
type RankingResult struct {
	Valid          []*Record
	Excluded       []*Record
	Errors         []string
	Warnings       []string
	ProcessingTime time.Duration
	Stats          Statistics
}

// AddError appends an error message.
func (r *RankingResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// AddWarning appends a warning message.
func (r *RankingResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// TotalValid returns the number of ranked candidates.
func (r *RankingResult) TotalValid() int { return len(r.Valid) }

// TotalExcluded returns the number of excluded titles.
func (r *RankingResult) TotalExcluded() int { return len(r.Excluded) }

// TotalProcessed returns valid plus excluded.
func (r *RankingResult) TotalProcessed() int { return len(r.Valid) + len(r.Excluded) }

// SuccessRate is the share of processed titles that were ranked candidates.
func (r *RankingResult) SuccessRate() float64 {
	total := r.TotalProcessed()
	if total == 0 {
		return 0
	}
	return float64(len(r.Valid)) / float64(total)
}

// HasErrors reports whether any error was recorded.
func (r *RankingResult) HasErrors() bool { return len(r.Errors) > 0 }

// HasWarnings reports whether any warning was recorded.
func (r *RankingResult) HasWarnings() bool { return len(r.Warnings) > 0 }

// Summary builds the serialisable run summary.
func (r *RankingResult) Summary() RankingSummary {
	return RankingSummary{
		TotalProcessed:   r.TotalProcessed(),
		TotalValid:       r.TotalValid(),
		TotalExcluded:    r.TotalExcluded(),
		SuccessRate:      r.SuccessRate(),
		ProcessingTimeMs: r.ProcessingTime.Milliseconds(),
		Errors:           append([]string{}, r.Errors...),
		Warnings:         append([]string{}, r.Warnings...),
		Stats:            r.Stats,
	}
}

// RankingSummary is the serialisable summary of a ranking run.
type RankingSummary struct {
	TotalProcessed   int        `json:"total_processed"`
	TotalValid       int        `json:"total_valid"`
	TotalExcluded    int        `json:"total_excluded"`
	SuccessRate      float64    `json:"success_rate"`
	ProcessingTimeMs int64      `json:"processing_time_ms"`
	Errors           []string   `json:"errors"`
	Warnings         []string   `json:"warnings"`
	Stats            Statistics `json:"statistics"`
}

// PlatformCoverage describes how many titles a platform ranked.
type PlatformCoverage struct {
	Platform string  `json:"platform"`
	Ranked   int     `json:"ranked"`
	Total    int     `json:"total"`
	Coverage float64 `json:"coverage"`
}

// CompositeStats summarises the composite score distribution.
type CompositeStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Std    float64 `json:"std"`
}

// Statistics are the per-run aggregates shown after ranking.
type Statistics struct {
	Platforms []PlatformCoverage `json:"platforms"`
	Composite *CompositeStats    `json:"composite,omitempty"`
}

// RankedTitle is the flat view of one ranked record used by tables and tools.
type RankedTitle struct {
	Rank           *int32            `json:"rank"`
	Title          string            `json:"title"`
	TranslatedName string            `json:"translated_name,omitempty"`
	CompositeScore *float64          `json:"composite_score"`
	PlatformRanks  map[string]*int32 `json:"platform_ranks"`
	Excluded       bool              `json:"excluded,omitempty"`
}

// NewRankedTitle flattens a record.
func NewRankedTitle(rec *Record, excluded bool) RankedTitle {
	t := RankedTitle{
		Rank:           rec.CompositeRank.Ptr(),
		Title:          rec.Key,
		TranslatedName: rec.TranslatedName.String(),
		PlatformRanks:  make(map[string]*int32, PlatformCount),
		Excluded:       excluded,
	}
	if rec.Composite.Valid {
		v := rec.Composite.Value
		t.CompositeScore = &v
	}
	for _, p := range AllPlatforms {
		t.PlatformRanks[p.String()] = rec.Ranks[p].Ptr()
	}
	return t
}
