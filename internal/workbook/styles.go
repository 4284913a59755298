package workbook

import (
	"github.com/kisekinoumi/mzzbscore-edit/schema"
	"github.com/xuri/excelize/v2"
)

type styleKey struct {
	base  int
	color string
}

// styler paints group fills onto cells, merging them into whatever style the
// cell already has so fonts and number formats survive.
type styler struct {
	f     *excelize.File
	sheet string
	cache map[styleKey]int
}

func newStyler(f *excelize.File, sheet string) *styler {
	return &styler{f: f, sheet: sheet, cache: make(map[styleKey]int)}
}

func thinBorder() []excelize.Border {
	sides := []string{"left", "right", "top", "bottom"}
	borders := make([]excelize.Border, 0, len(sides))
	for _, side := range sides {
		borders = append(borders, excelize.Border{Type: side, Color: "000000", Style: 1})
	}
	return borders
}

// paint applies the group fill, a thin border and left/center alignment to one cell.
func (s *styler) paint(cell, color string) error {
	base, err := s.f.GetCellStyle(s.sheet, cell)
	if err != nil {
		return err
	}

	key := styleKey{base: base, color: color}
	id, ok := s.cache[key]
	if !ok {
		style, err := s.f.GetStyle(base)
		if err != nil || style == nil {
			style = &excelize.Style{}
		}
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
		style.Border = thinBorder()
		if style.Alignment == nil {
			style.Alignment = &excelize.Alignment{}
		}
		style.Alignment.Horizontal = "left"
		style.Alignment.Vertical = "center"

		if id, err = s.f.NewStyle(style); err != nil {
			return err
		}
		s.cache[key] = id
	}
	return s.f.SetCellStyle(s.sheet, cell, cell, id)
}

// styleFailure is a cell that could not be styled.
type styleFailure struct {
	Cell string
	Err  error
}

// applyGroupStyles paints every mapped column of every group for rows firstRow..lastRow.
// Failures are collected and never stop the pass.
func applyGroupStyles(f *excelize.File, sheet string, headers HeaderMap, firstRow, lastRow int) (styled int, failures []styleFailure) {
	s := newStyler(f, sheet)
	for _, group := range schema.StyleGroups {
		for _, header := range group.Headers {
			col, ok := headers[header]
			if !ok {
				continue
			}
			for row := firstRow; row <= lastRow; row++ {
				cell := cellName(col, row)
				if err := s.paint(cell, group.Color); err != nil {
					failures = append(failures, styleFailure{Cell: cell, Err: err})
					continue
				}
				styled++
			}
		}
	}
	return styled, failures
}
