package schema

import "time"

// RunRecord represents a row from the mzzbscore_runs table.
type RunRecord struct {
	RunID          int64
	Operation      string
	InputFile      string
	OutputFile     *string
	StartTime      time.Time
	EndTime        *time.Time
	RunDurationMs  *int32
	TotalProcessed int32
	TotalValid     int32
	TotalExcluded  int32
	ErrorCount     int32
	WarningCount   int32
	ConfigParams   *string
}

// TitleRankRecord represents a row from the mzzbscore_title_ranks table.
type TitleRankRecord struct {
	RunID           int64
	TitleKey        string
	Excluded        bool
	CompositeScore  *float64
	CompositeRank   *int32
	BangumiRank     *int32
	AnilistRank     *int32
	MyAnimeListRank *int32
	FilmarksRank    *int32
}

// NewTitleRankRecord flattens a ranked record for storage.
func NewTitleRankRecord(runID int64, rec *Record, excluded bool) TitleRankRecord {
	out := TitleRankRecord{
		RunID:           runID,
		TitleKey:        rec.Key,
		Excluded:        excluded,
		CompositeRank:   rec.CompositeRank.Ptr(),
		BangumiRank:     rec.Ranks[Bangumi].Ptr(),
		AnilistRank:     rec.Ranks[Anilist].Ptr(),
		MyAnimeListRank: rec.Ranks[MyAnimeList].Ptr(),
		FilmarksRank:    rec.Ranks[Filmarks].Ptr(),
	}
	if rec.Composite.Valid {
		v := rec.Composite.Value
		out.CompositeScore = &v
	}
	return out
}
