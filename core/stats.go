package core

import (
	"github.com/kisekinoumi/mzzbscore-edit/core/algo"
	"github.com/kisekinoumi/mzzbscore-edit/schema"
)

// ComputeStatistics aggregates platform coverage and the composite score distribution.
func ComputeStatistics(valid []*schema.Record) schema.Statistics {
	stats := schema.Statistics{Platforms: make([]schema.PlatformCoverage, 0, schema.PlatformCount)}

	for _, p := range schema.AllPlatforms {
		cov := schema.PlatformCoverage{Platform: p.String(), Total: len(valid)}
		for _, rec := range valid {
			if rec.Ranks[p].IsAssigned() {
				cov.Ranked++
			}
		}
		if cov.Total > 0 {
			cov.Coverage = float64(cov.Ranked) / float64(cov.Total)
		}
		stats.Platforms = append(stats.Platforms, cov)
	}

	composites := make([]float64, 0, len(valid))
	for _, rec := range valid {
		if rec.Composite.Valid {
			composites = append(composites, rec.Composite.Value)
		}
	}
	stats.Composite = algo.Describe(composites)
	return stats
}
