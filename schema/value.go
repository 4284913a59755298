package schema

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

// All cell value kinds.
const (
	KindEmpty ValueKind = iota
	KindNumber
	KindInt
	KindText
	KindBool
	KindNoData // written as the NoDataText sentinel
)

// Value is a single cell value read from or written to the workbook.
// Formula, when set, is preserved on write and the other fields hold its cached result.
type Value struct {
	Kind    ValueKind
	Num     float64
	Int     int64
	Text    string
	Bool    bool
	Formula string
}

// Empty is the value of an empty cell.
var Empty = Value{}

// NoData is the "ranked, but no data for this platform" sentinel.
var NoData = Value{Kind: KindNoData}

// NumberValue wraps a float.
func NumberValue(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// IntValue wraps an integer.
func IntValue(i int64) Value { return Value{Kind: KindInt, Int: i} }

// TextValue wraps a string. Blank strings stay text; use Empty for absent cells.
func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// IsEmpty reports whether the value is absent or whitespace-only text.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindEmpty:
		return v.Formula == ""
	case KindText:
		return strings.TrimSpace(v.Text) == "" && v.Formula == ""
	default:
		return false
	}
}

// String renders the value the way it appears in a cell.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindText:
		return v.Text
	case KindBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case KindNoData:
		return NoDataText
	default:
		return ""
	}
}

// Scalar returns the value as a plain Go value for cell writers and JSON.
// Empty yields nil.
func (v Value) Scalar() any {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindInt:
		return v.Int
	case KindText:
		return v.Text
	case KindBool:
		return v.Bool
	case KindNoData:
		return NoDataText
	default:
		return nil
	}
}

// MarshalJSON encodes the scalar form.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Scalar())
}

// ParseCellValue infers a Value from the raw text of a cell that has no explicit type.
func ParseCellValue(raw string) Value {
	if raw == "" {
		return Empty
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return IntValue(i)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return NumberValue(f)
	}
	return TextValue(raw)
}

// Number is a platform score after numeric coercion.
// A present but non-numeric cell is Invalid: not Valid, and kept for diagnostics.
type Number struct {
	Value   float64
	Valid   bool
	Invalid bool
	Source  Value
}

// ParseNumber coerces a cell value to a score.
func ParseNumber(v Value) Number {
	n := Number{Source: v}
	switch v.Kind {
	case KindNumber:
		n.Value, n.Valid = v.Num, true
	case KindInt:
		n.Value, n.Valid = float64(v.Int), true
	case KindText:
		s := strings.TrimSpace(v.Text)
		if s == "" {
			return n
		}
		f, err := strconv.ParseFloat(s, 64)
		switch {
		case err == nil && math.IsNaN(f):
		case err == nil && !math.IsInf(f, 0):
			n.Value, n.Valid = f, true
		default:
			n.Invalid = true
		}
	case KindBool:
		n.Invalid = true
	}
	return n
}

// Float returns a valid number; callers check Valid first.
func Float(f float64) Number {
	return Number{Value: f, Valid: true, Source: NumberValue(f)}
}

// Positive reports whether the number participates in ranking and scoring.
// Zero and negative scores count as missing.
func (n Number) Positive() bool {
	return n.Valid && n.Value > 0
}

// RankState says whether a rank was assigned.
type RankState int

// All rank states.
const (
	RankAbsent RankState = iota
	RankAssigned
	RankNoData
)

// Rank is a 1-based competition rank.
type Rank struct {
	Value int
	State RankState
}

// Assigned builds an assigned rank.
func Assigned(v int) Rank { return Rank{Value: v, State: RankAssigned} }

// IsAssigned reports whether a numeric rank is present.
func (r Rank) IsAssigned() bool { return r.State == RankAssigned }

// CellValue converts the rank to what is written into its cell.
func (r Rank) CellValue() Value {
	switch r.State {
	case RankAssigned:
		return IntValue(int64(r.Value))
	case RankNoData:
		return NoData
	default:
		return Empty
	}
}

// Ptr returns the rank as a nullable int for storage.
func (r Rank) Ptr() *int32 {
	if r.State != RankAssigned {
		return nil
	}
	v := int32(r.Value)
	return &v
}
