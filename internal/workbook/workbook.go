// Package workbook reads the rating sheet into a table and rewrites a copy of it
// with rank columns, keeping hyperlinks and formatting intact.
package workbook

import (
	"fmt"
	"strings"

	"github.com/kisekinoumi/mzzbscore-edit/internal/contract"
	"github.com/kisekinoumi/mzzbscore-edit/schema"
	"github.com/xuri/excelize/v2"
)

// HeaderMap maps a header name to its 1-based column. The leftmost column wins
// when a name repeats.
type HeaderMap map[string]int

// Names returns the inverse mapping, column to header.
func (h HeaderMap) Names() map[int]string {
	names := make(map[int]string, len(h))
	for name, col := range h {
		names[col] = name
	}
	return names
}

// shiftFrom moves every column at or right of col one step to the right.
func (h HeaderMap) shiftFrom(col int) {
	for name, c := range h {
		if c >= col {
			h[name] = c + 1
		}
	}
}

// Clone copies the map.
func (h HeaderMap) Clone() HeaderMap {
	out := make(HeaderMap, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// activeSheet returns the sheet the user last had open, or the first sheet.
func activeSheet(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("%w: workbook has no sheets", contract.ErrDataFormat)
	}
	if name := f.GetSheetName(f.GetActiveSheetIndex()); name != "" {
		return name, nil
	}
	return sheets[0], nil
}

// sheetBounds returns the last used row and column of the sheet.
func sheetBounds(f *excelize.File, sheet string) (rows [][]string, lastRow, lastCol int, err error) {
	rows, err = f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: reading sheet %s: %w", contract.ErrDataFormat, sheet, err)
	}
	lastRow = len(rows)
	for _, r := range rows {
		lastCol = max(lastCol, len(r))
	}

	// the recorded dimension can reach past the last value, e.g. a link on an empty cell
	if dim, dimErr := f.GetSheetDimension(sheet); dimErr == nil {
		if parts := strings.Split(dim, ":"); len(parts) == 2 {
			if c, r, convErr := excelize.CellNameToCoordinates(parts[1]); convErr == nil {
				lastRow = max(lastRow, r)
				lastCol = max(lastCol, c)
			}
		}
	}
	return rows, lastRow, lastCol, nil
}

// readHeaderMap builds the header map from the header row.
func readHeaderMap(rows [][]string) HeaderMap {
	headers := make(HeaderMap)
	if len(rows) < schema.HeaderRow {
		return headers
	}
	for i, raw := range rows[schema.HeaderRow-1] {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, dup := headers[name]; !dup {
			headers[name] = i + 1
		}
	}
	return headers
}

// cellName converts 1-based coordinates; they are always positive here.
func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// writeCell stores v into the cell. Empty clears the value and keeps the style.
func writeCell(f *excelize.File, sheet, cell string, v schema.Value) error {
	switch v.Kind {
	case schema.KindEmpty:
		return f.SetCellValue(sheet, cell, nil)
	case schema.KindNoData:
		return f.SetCellStr(sheet, cell, schema.NoDataText)
	case schema.KindText:
		return f.SetCellStr(sheet, cell, v.Text)
	case schema.KindBool:
		return f.SetCellBool(sheet, cell, v.Bool)
	case schema.KindInt:
		return f.SetCellValue(sheet, cell, v.Int)
	default:
		return f.SetCellFloat(sheet, cell, v.Num, -1, 64)
	}
}
