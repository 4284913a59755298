package schema

import (
	"slices"
	"strings"
)

// Platform identifies one external rating source.
type Platform int

// All platforms in column order.
const (
	Bangumi Platform = iota
	Anilist
	MyAnimeList
	Filmarks
)

// PlatformCount is the number of supported platforms.
const PlatformCount = 4

// AllPlatforms lists every platform in column order.
var AllPlatforms = []Platform{Bangumi, Anilist, MyAnimeList, Filmarks}

// PlatformSpec holds the headers and default weight of a platform.
type PlatformSpec struct {
	Name        string
	Key         string // config key, lower case
	ScoreHeader string
	TotalHeader string
	RankHeader  string
	Weight      float64
}

var platformSpecs = [PlatformCount]PlatformSpec{
	Bangumi:     {Name: "Bangumi", Key: "bangumi", ScoreHeader: "Bangumi", TotalHeader: "Bangumi_total", RankHeader: "Bangumi_Rank", Weight: 0.5},
	Anilist:     {Name: "Anilist", Key: "anilist", ScoreHeader: "Anilist", TotalHeader: "Anilist_total", RankHeader: "Anilist_Rank", Weight: 0.2},
	MyAnimeList: {Name: "MyAnimeList", Key: "myanimelist", ScoreHeader: "MyAnimelist", TotalHeader: "MyAnimelist_total", RankHeader: "Myanimelist_Rank", Weight: 0.1},
	Filmarks:    {Name: "Filmarks", Key: "filmarks", ScoreHeader: "Filmarks", TotalHeader: "Filmarks_total", RankHeader: "Filmarks_Rank", Weight: 0.2},
}

// Spec returns the static description of the platform.
func (p Platform) Spec() PlatformSpec {
	return platformSpecs[p]
}

func (p Platform) String() string {
	if p < 0 || int(p) >= PlatformCount {
		return "unknown"
	}
	return platformSpecs[p].Name
}

// Headers returns the score, total and rank headers in display order.
func (p Platform) Headers() []string {
	s := platformSpecs[p]
	return []string{s.ScoreHeader, s.TotalHeader, s.RankHeader}
}

// ParsePlatform resolves a platform from its name or config key, case-insensitively.
func ParsePlatform(s string) (Platform, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range AllPlatforms {
		spec := platformSpecs[p]
		if s == spec.Key || s == strings.ToLower(spec.Name) {
			return p, true
		}
	}
	return 0, false
}

// Weights maps each platform to its weight in the composite score.
type Weights [PlatformCount]float64

// DefaultWeights returns the built-in composite weights.
func DefaultWeights() Weights {
	var w Weights
	for _, p := range AllPlatforms {
		w[p] = platformSpecs[p].Weight
	}
	return w
}

// ComputedHeaders lists every column the ranking engine writes.
func ComputedHeaders() []string {
	headers := []string{CompositeScoreHeader, CompositeRankHeader}
	for _, p := range AllPlatforms {
		headers = append(headers, platformSpecs[p].RankHeader)
	}
	return headers
}

// IsComputedHeader reports whether the header holds an engine output.
func IsComputedHeader(header string) bool {
	return slices.Contains(ComputedHeaders(), header)
}
