package algo

import (
	"testing"

	"github.com/kisekinoumi/mzzbscore-edit/schema"
	"github.com/stretchr/testify/assert"
)

func nums(values ...float64) []schema.Number {
	out := make([]schema.Number, len(values))
	for i, v := range values {
		out[i] = schema.Float(v)
	}
	return out
}

func rankValues(ranks []schema.Rank) []int {
	out := make([]int, len(ranks))
	for i, r := range ranks {
		if r.IsAssigned() {
			out[i] = r.Value
		}
	}
	return out
}

func TestCompetitionRanks(t *testing.T) {
	tests := []struct {
		name     string
		scores   []schema.Number
		expected []int // 0 means absent
	}{
		{name: "empty", scores: nil, expected: []int{}},
		{name: "tie at top", scores: nums(9, 9, 8), expected: []int{1, 1, 3}},
		{name: "tie in middle", scores: nums(7, 8, 8, 9, 6), expected: []int{4, 2, 2, 1, 5}},
		{name: "all equal", scores: nums(5, 5, 5), expected: []int{1, 1, 1}},
		{name: "ascending input", scores: nums(1, 2, 3), expected: []int{3, 2, 1}},
		{
			name:     "absent values are skipped",
			scores:   []schema.Number{schema.Float(8), {}, schema.Float(9)},
			expected: []int{2, 0, 1},
		},
		{
			name:     "zero and negative count as missing",
			scores:   []schema.Number{schema.Float(0), schema.Float(-1), schema.Float(3)},
			expected: []int{0, 0, 1},
		},
		{
			name:     "invalid values are skipped",
			scores:   []schema.Number{{Invalid: true, Source: schema.TextValue("N/A")}, schema.Float(3)},
			expected: []int{0, 1},
		},
		{
			name:     "no participants",
			scores:   []schema.Number{{}, schema.Float(0)},
			expected: []int{0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranks := CompetitionRanks(tt.scores)
			assert.Len(t, ranks, len(tt.scores))
			assert.Equal(t, tt.expected, rankValues(ranks))
		})
	}
}

func TestCompetitionRanksAbsentState(t *testing.T) {
	ranks := CompetitionRanks([]schema.Number{{}, schema.Float(1)})
	assert.Equal(t, schema.RankAbsent, ranks[0].State)
	assert.Equal(t, schema.RankAssigned, ranks[1].State)
}

func TestTopByRank(t *testing.T) {
	records := []*schema.Record{
		{Key: "c", CompositeRank: schema.Assigned(2)},
		{Key: "a", CompositeRank: schema.Assigned(1)},
		{Key: "skip"},
		{Key: "b", CompositeRank: schema.Assigned(2)},
	}

	top := TopByRank(records, 10)
	keys := make([]string, len(top))
	for i, r := range top {
		keys[i] = r.Key
	}
	assert.Equal(t, []string{"a", "b", "c"}, keys)

	assert.Len(t, TopByRank(records, 2), 2)
	assert.Len(t, TopByRank(records, 0), 3)
}
