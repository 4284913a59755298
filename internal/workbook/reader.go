package workbook

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kisekinoumi/mzzbscore-edit/internal/contract"
	"github.com/kisekinoumi/mzzbscore-edit/internal/logging"
	"github.com/kisekinoumi/mzzbscore-edit/schema"
	"github.com/xuri/excelize/v2"
)

// Reader loads the active sheet of a rating workbook.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a reader. A nil logger discards output.
func NewReader(logger *slog.Logger) *Reader {
	return &Reader{logger: logging.OrDiscard(logger)}
}

// Read validates and opens the workbook, then returns its data rows keyed by header.
// Row 1 is a banner, row 2 holds headers and data starts at row 3.
func (r *Reader) Read(path string) (schema.Table, error) {
	if err := contract.ValidateInputFile(path); err != nil {
		return schema.Table{}, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return schema.Table{}, fmt.Errorf("%w: opening %s: %w", contract.ErrFileOperation, path, err)
	}
	defer func() { _ = f.Close() }()

	return r.readFile(f)
}

func (r *Reader) readFile(f *excelize.File) (schema.Table, error) {
	sheet, err := activeSheet(f)
	if err != nil {
		return schema.Table{}, err
	}

	rows, lastRow, _, err := sheetBounds(f, sheet)
	if err != nil {
		return schema.Table{}, err
	}
	if len(rows) < schema.DataStartRow {
		return schema.Table{}, fmt.Errorf("%w: sheet %s has %d rows, need a banner, a header row and data", contract.ErrDataFormat, sheet, len(rows))
	}

	type column struct {
		index  int
		header string
	}
	var columns []column
	seen := make(map[string]struct{})
	for i, raw := range rows[schema.HeaderRow-1] {
		header := strings.TrimSpace(raw)
		if header == "" {
			continue
		}
		if _, dup := seen[header]; dup {
			r.logger.Warn("duplicate header ignored", "header", header, "column", i+1)
			continue
		}
		seen[header] = struct{}{}
		columns = append(columns, column{index: i + 1, header: header})
	}
	if len(columns) == 0 {
		return schema.Table{}, fmt.Errorf("%w: no valid headers in row %d", contract.ErrDataFormat, schema.HeaderRow)
	}

	table := schema.Table{Sheet: sheet, Headers: make([]string, 0, len(columns))}
	for _, c := range columns {
		table.Headers = append(table.Headers, c.header)
	}
	if !table.HasHeader(schema.KeyHeader) {
		return schema.Table{}, fmt.Errorf("%w: required column %q not found", contract.ErrDataFormat, schema.KeyHeader)
	}

	dropped := 0
	for rowNum := schema.DataStartRow; rowNum <= lastRow; rowNum++ {
		row := schema.Row{Number: rowNum, Values: make(map[string]schema.Value, len(columns))}
		for _, c := range columns {
			cell := cellName(c.index, rowNum)
			v, err := readCell(f, sheet, cell)
			if err != nil {
				r.logger.Warn("cell read failed", "cell", cell, "error", err)
				v = schema.Empty
			}
			row.Values[c.header] = v
		}
		if strings.TrimSpace(row.Get(schema.KeyHeader).String()) == "" {
			dropped++
			continue
		}
		table.Rows = append(table.Rows, row)
	}

	if dropped > 0 {
		r.logger.Info("dropped rows without a title", "count", dropped)
	}
	if len(table.Rows) == 0 {
		return schema.Table{}, fmt.Errorf("%w: no valid data after cleaning", contract.ErrDataFormat)
	}

	r.logger.Debug("workbook read", "sheet", sheet, "columns", len(columns), "rows", len(table.Rows))
	return table, nil
}

// readCell returns the typed value of a cell, keeping its formula if any.
func readCell(f *excelize.File, sheet, cell string) (schema.Value, error) {
	raw, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return schema.Empty, err
	}
	formula, err := f.GetCellFormula(sheet, cell)
	if err != nil {
		return schema.Empty, err
	}
	if raw == "" {
		return schema.Value{Formula: formula}, nil
	}

	cellType, err := f.GetCellType(sheet, cell)
	if err != nil {
		return schema.Empty, err
	}

	var v schema.Value
	switch cellType {
	case excelize.CellTypeBool:
		v = schema.BoolValue(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		v = schema.TextValue(raw)
	default:
		v = schema.ParseCellValue(raw)
	}
	v.Formula = formula
	return v, nil
}
