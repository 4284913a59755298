// Package schema has the models, constants and result types shared by all parts of mzzbscore.
package schema

import (
	"strconv"
	"strings"
)

// Row is one data row of the sheet, keyed by header name.
type Row struct {
	Number int // 1-based sheet row
	Values map[string]Value
}

// Get returns the value under header, or Empty.
func (r Row) Get(header string) Value {
	if r.Values == nil {
		return Empty
	}
	return r.Values[header]
}

// Table is the in-memory form of the ranked sheet.
type Table struct {
	Sheet   string
	Headers []string // valid headers, left to right
	Rows    []Row
}

// HasHeader reports whether the table has the named column.
func (t Table) HasHeader(header string) bool {
	for _, h := range t.Headers {
		if h == header {
			return true
		}
	}
	return false
}

// Record is one title after ranking. The ranking engine owns the computed fields;
// everything else is carried from the sheet unchanged.
type Record struct {
	Key            string
	Row            int
	TranslatedName Value
	Notes          string

	Scores [PlatformCount]Number
	Totals [PlatformCount]Value
	Ranks  [PlatformCount]Rank

	Composite     Number
	CompositeRank Rank

	// Passthrough holds every other column (X, X_fan, links, unknown headers).
	Passthrough map[string]Value

	key   Value
	notes Value
}

// NewRecord builds a record from a sheet row.
func NewRecord(row Row) *Record {
	rec := &Record{
		Key:            strings.TrimSpace(row.Get(KeyHeader).String()),
		key:            row.Get(KeyHeader),
		Row:            row.Number,
		TranslatedName: row.Get(TranslatedNameHeader),
		notes:          row.Get(NotesHeader),
		Passthrough:    make(map[string]Value),
	}
	rec.Notes = strings.TrimSpace(rec.notes.String())

	known := map[string]struct{}{KeyHeader: {}, TranslatedNameHeader: {}, NotesHeader: {}}
	for _, p := range AllPlatforms {
		spec := p.Spec()
		rec.Scores[p] = ParseNumber(row.Get(spec.ScoreHeader))
		rec.Totals[p] = row.Get(spec.TotalHeader)
		known[spec.ScoreHeader] = struct{}{}
		known[spec.TotalHeader] = struct{}{}
	}
	for header, v := range row.Values {
		if _, ok := known[header]; ok || IsComputedHeader(header) {
			continue
		}
		rec.Passthrough[header] = v
	}
	return rec
}

// IsExcluded reports whether the record's note is one of the exclusion notes.
func (r *Record) IsExcluded() bool {
	_, ok := ExcludedNotes[r.Notes]
	return ok
}

// VoteCount returns the platform's vote total, or 0 when it is not a number.
func (r *Record) VoteCount(p Platform) int {
	v := r.Totals[p]
	switch v.Kind {
	case KindInt:
		return int(v.Int)
	case KindNumber:
		return int(v.Num)
	case KindText:
		n, err := strconv.Atoi(strings.TrimSpace(v.Text))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// ClearComputed resets every computed field to absent.
func (r *Record) ClearComputed() {
	r.Composite = Number{}
	r.CompositeRank = Rank{}
	for _, p := range AllPlatforms {
		r.Ranks[p] = Rank{}
	}
}

// Field is one header/value pair written into the sheet.
type Field struct {
	Header string
	Value  Value
}

// Fields lists every column the record writes. Unranked records write
// empty cells into the computed columns.
func (r *Record) Fields(ranked bool) []Field {
	key, notes := r.key, r.notes
	if key.IsEmpty() {
		key = TextValue(r.Key)
	}
	if notes.IsEmpty() && r.Notes != "" {
		notes = TextValue(r.Notes)
	}
	fields := []Field{
		{Header: KeyHeader, Value: key},
		{Header: TranslatedNameHeader, Value: r.TranslatedName},
		{Header: NotesHeader, Value: notes},
	}
	for _, p := range AllPlatforms {
		spec := p.Spec()
		rank := Empty
		if ranked {
			rank = r.Ranks[p].CellValue()
		}
		fields = append(fields,
			Field{Header: spec.ScoreHeader, Value: r.Scores[p].Source},
			Field{Header: spec.TotalHeader, Value: r.Totals[p]},
			Field{Header: spec.RankHeader, Value: rank},
		)
	}

	composite, compositeRank := Empty, Empty
	if ranked {
		if r.Composite.Valid {
			composite = NumberValue(r.Composite.Value)
		}
		compositeRank = r.CompositeRank.CellValue()
	}
	fields = append(fields,
		Field{Header: CompositeScoreHeader, Value: composite},
		Field{Header: CompositeRankHeader, Value: compositeRank},
	)

	for header, v := range r.Passthrough {
		fields = append(fields, Field{Header: header, Value: v})
	}
	return fields
}
