package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name    string
		in      Value
		valid   bool
		invalid bool
		value   float64
	}{
		{"empty", Empty, false, false, 0},
		{"float", NumberValue(7.5), true, false, 7.5},
		{"int", IntValue(8), true, false, 8},
		{"numeric text", TextValue(" 6.25 "), true, false, 6.25},
		{"blank text", TextValue("   "), false, false, 0},
		{"NaN text is missing", TextValue("NaN"), false, false, 0},
		{"word", TextValue("n/a"), false, true, 0},
		{"infinity", TextValue("Inf"), false, true, 0},
		{"bool", BoolValue(true), false, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := ParseNumber(tt.in)
			assert.Equal(t, tt.valid, n.Valid)
			assert.Equal(t, tt.invalid, n.Invalid)
			assert.InDelta(t, tt.value, n.Value, 1e-9)
			assert.Equal(t, tt.in, n.Source)
		})
	}
}

func TestNumberPositive(t *testing.T) {
	assert.True(t, Float(0.1).Positive())
	assert.False(t, Float(0).Positive())
	assert.False(t, Float(-3).Positive())
	assert.False(t, Number{}.Positive())
}

func TestParseCellValue(t *testing.T) {
	tests := []struct {
		raw      string
		expected Value
	}{
		{"", Empty},
		{"42", IntValue(42)},
		{"7.8", NumberValue(7.8)},
		{"NaN", TextValue("NaN")},
		{"葬送的芙莉莲", TextValue("葬送的芙莉莲")},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCellValue(tt.raw))
		})
	}
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "7.5", NumberValue(7.5).String())
	assert.Equal(t, "3", IntValue(3).String())
	assert.Equal(t, "TRUE", BoolValue(true).String())
	assert.Equal(t, NoDataText, NoData.String())
	assert.Equal(t, "", Empty.String())

	data, err := json.Marshal([]Value{Empty, IntValue(2), TextValue("x")})
	require.NoError(t, err)
	assert.JSONEq(t, `[null, 2, "x"]`, string(data))
}

func TestValueIsEmpty(t *testing.T) {
	assert.True(t, Empty.IsEmpty())
	assert.True(t, TextValue("  ").IsEmpty())
	assert.False(t, TextValue("a").IsEmpty())
	assert.False(t, IntValue(0).IsEmpty())
	assert.False(t, Value{Kind: KindEmpty, Formula: "A1+1"}.IsEmpty())
}

func TestRankCellValue(t *testing.T) {
	assert.Equal(t, IntValue(3), Assigned(3).CellValue())
	assert.Equal(t, NoData, Rank{State: RankNoData}.CellValue())
	assert.Equal(t, Empty, Rank{}.CellValue())

	require.NotNil(t, Assigned(2).Ptr())
	assert.Equal(t, int32(2), *Assigned(2).Ptr())
	assert.Nil(t, Rank{State: RankNoData}.Ptr())
}

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		in       string
		expected Platform
		ok       bool
	}{
		{"bangumi", Bangumi, true},
		{" Anilist ", Anilist, true},
		{"MYANIMELIST", MyAnimeList, true},
		{"filmarks", Filmarks, true},
		{"imdb", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, ok := ParsePlatform(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, p)
			}
		})
	}
	assert.Equal(t, "unknown", Platform(9).String())
}

func TestDefaultWeights(t *testing.T) {
	sum := 0.0
	for _, w := range DefaultWeights() {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.InDelta(t, 0.5, DefaultWeights()[Bangumi], 1e-9)
}

func TestComputedHeaders(t *testing.T) {
	headers := ComputedHeaders()
	assert.Len(t, headers, 2+PlatformCount)
	for _, h := range headers {
		assert.True(t, IsComputedHeader(h), h)
	}
	assert.False(t, IsComputedHeader("Bangumi"))
	assert.False(t, IsComputedHeader(KeyHeader))
}

func TestNewRecord(t *testing.T) {
	row := Row{Number: 5, Values: map[string]Value{
		KeyHeader:            TextValue(" 孤独摇滚 "),
		TranslatedNameHeader: TextValue("Bocchi"),
		NotesHeader:          TextValue(" *时长不足 "),
		"Bangumi":            NumberValue(8.4),
		"Bangumi_total":      TextValue("1200"),
		"Bangumi_url":        TextValue("https://bgm.tv/subject/1"),
		"Bangumi_Rank":       IntValue(99),
	}}
	rec := NewRecord(row)

	assert.Equal(t, "孤独摇滚", rec.Key)
	assert.Equal(t, 5, rec.Row)
	assert.True(t, rec.IsExcluded())
	assert.InDelta(t, 8.4, rec.Scores[Bangumi].Value, 1e-9)
	assert.Equal(t, 1200, rec.VoteCount(Bangumi))
	assert.Equal(t, 0, rec.VoteCount(Anilist))
	assert.Contains(t, rec.Passthrough, "Bangumi_url")
	assert.NotContains(t, rec.Passthrough, "Bangumi_Rank")
}

func TestRecordFields(t *testing.T) {
	rec := NewRecord(Row{Number: 3, Values: map[string]Value{
		KeyHeader: TextValue("A"),
		"Bangumi": NumberValue(8),
	}})
	rec.Composite = Float(8)
	rec.CompositeRank = Assigned(1)
	rec.Ranks[Bangumi] = Assigned(1)
	rec.Ranks[Anilist] = Rank{State: RankNoData}

	fieldMap := func(ranked bool) map[string]Value {
		m := make(map[string]Value)
		for _, f := range rec.Fields(ranked) {
			m[f.Header] = f.Value
		}
		return m
	}

	ranked := fieldMap(true)
	assert.Equal(t, TextValue("A"), ranked[KeyHeader])
	assert.Equal(t, NumberValue(8), ranked[CompositeScoreHeader])
	assert.Equal(t, IntValue(1), ranked[CompositeRankHeader])
	assert.Equal(t, IntValue(1), ranked["Bangumi_Rank"])
	assert.Equal(t, NoData, ranked["Anilist_Rank"])

	unranked := fieldMap(false)
	assert.Equal(t, Empty, unranked[CompositeScoreHeader])
	assert.Equal(t, Empty, unranked["Bangumi_Rank"])
	assert.Equal(t, NumberValue(8), unranked["Bangumi"])
}

func TestRankingResultSummary(t *testing.T) {
	result := &RankingResult{
		Valid:    []*Record{{Key: "A"}, {Key: "B"}, {Key: "C"}},
		Excluded: []*Record{{Key: "D"}},
	}
	result.AddWarning("w")
	assert.InDelta(t, 0.75, result.SuccessRate(), 1e-9)
	assert.True(t, result.HasWarnings())
	assert.False(t, result.HasErrors())

	summary := result.Summary()
	assert.Equal(t, 4, summary.TotalProcessed)
	assert.Equal(t, []string{"w"}, summary.Warnings)
	assert.Equal(t, []string{}, summary.Errors)

	assert.Zero(t, (&RankingResult{}).SuccessRate())
}

func TestNewTitleRankRecord(t *testing.T) {
	rec := &Record{Key: "A", Composite: Float(7), CompositeRank: Assigned(2)}
	rec.Ranks[Filmarks] = Assigned(4)

	out := NewTitleRankRecord(9, rec, false)
	assert.Equal(t, int64(9), out.RunID)
	require.NotNil(t, out.CompositeScore)
	assert.InDelta(t, 7.0, *out.CompositeScore, 1e-9)
	assert.Equal(t, int32(2), *out.CompositeRank)
	assert.Equal(t, int32(4), *out.FilmarksRank)
	assert.Nil(t, out.BangumiRank)

	excluded := NewTitleRankRecord(9, &Record{Key: "B"}, true)
	assert.True(t, excluded.Excluded)
	assert.Nil(t, excluded.CompositeScore)
}
