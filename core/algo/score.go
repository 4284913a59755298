package algo

import (
	"math"
	"sort"

	"github.com/kisekinoumi/mzzbscore-edit/schema"
)

// WeightedScore computes the composite of the positive scores, renormalising
// the weights over the platforms that have one. It returns false when no
// platform contributes.
func WeightedScore(scores [schema.PlatformCount]schema.Number, weights schema.Weights) (float64, bool) {
	var sum, weightSum float64
	for _, p := range schema.AllPlatforms {
		if !scores[p].Positive() || weights[p] <= 0 {
			continue
		}
		sum += scores[p].Value * weights[p]
		weightSum += weights[p]
	}
	if weightSum == 0 {
		return 0, false
	}
	return sum / weightSum, true
}

// Describe computes count, mean, median, min, max and the sample standard deviation.
// It returns nil for an empty input.
func Describe(values []float64) *schema.CompositeStats {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	n := len(sorted)
	mean := sum / float64(n)

	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	var std float64
	if n > 1 {
		var sq float64
		for _, v := range sorted {
			sq += (v - mean) * (v - mean)
		}
		std = math.Sqrt(sq / float64(n-1))
	}

	return &schema.CompositeStats{
		Count:  n,
		Mean:   mean,
		Median: median,
		Min:    sorted[0],
		Max:    sorted[n-1],
		Std:    std,
	}
}
