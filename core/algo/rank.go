package algo

import (
	"sort"

	"github.com/kisekinoumi/mzzbscore-edit/schema"
)

// CompetitionRanks assigns 1-based "min" ranks to scores in descending order.
// Tied scores share the lowest rank of the tie and the next rank skips ahead,
// so [9, 9, 8] ranks as [1, 1, 3]. Only positive valid scores participate;
// every other position stays absent.
func CompetitionRanks(scores []schema.Number) []schema.Rank {
	ranks := make([]schema.Rank, len(scores))

	idx := make([]int, 0, len(scores))
	for i, s := range scores {
		if s.Positive() {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return ranks
	}

	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]].Value > scores[idx[b]].Value
	})

	for pos, i := range idx {
		// the first element of a tie run carries the run's rank
		if pos > 0 && scores[idx[pos-1]].Value == scores[i].Value {
			ranks[i] = ranks[idx[pos-1]]
			continue
		}
		ranks[i] = schema.Assigned(pos + 1)
	}
	return ranks
}

// TopByRank returns up to limit records ordered by composite rank, then key.
// Records without a composite rank are left out.
func TopByRank(records []*schema.Record, limit int) []*schema.Record {
	ranked := make([]*schema.Record, 0, len(records))
	for _, r := range records {
		if r.CompositeRank.IsAssigned() {
			ranked = append(ranked, r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].CompositeRank.Value != ranked[j].CompositeRank.Value {
			return ranked[i].CompositeRank.Value < ranked[j].CompositeRank.Value
		}
		return ranked[i].Key < ranked[j].Key
	})
	if limit > 0 && len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}
