package workbook

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kisekinoumi/mzzbscore-edit/internal/contract"
	"github.com/kisekinoumi/mzzbscore-edit/internal/logging"
	"github.com/kisekinoumi/mzzbscore-edit/schema"
	"github.com/xuri/excelize/v2"
)

// RewriterOptions controls the optional parts of a rewrite.
type RewriterOptions struct {
	ApplyStyles bool
	LockOutput  bool
}

// Rewriter writes ranking results into a copy of the source workbook and
// atomically replaces the destination with it.
type Rewriter struct {
	opts   RewriterOptions
	logger *slog.Logger
	ops    fileOps
}

// NewRewriter creates a rewriter. A nil logger discards output.
func NewRewriter(opts RewriterOptions, logger *slog.Logger) *Rewriter {
	return &Rewriter{opts: opts, logger: logging.OrDiscard(logger), ops: osFileOps()}
}

// Write copies input next to dest, adds rank columns and values, and commits
// the copy onto dest. On any failure dest is left as it was and the temp copy
// is removed. Non-fatal problems are logged and appended to the result's warnings.
func (w *Rewriter) Write(dest, input string, result *schema.RankingResult) error {
	if result == nil {
		return fmt.Errorf("%w: no ranking result to write", contract.ErrValidation)
	}

	if w.opts.LockOutput {
		unlock, err := lockDestination(dest)
		if err != nil {
			return err
		}
		defer unlock()
	}

	tmp, err := copyToTemp(input, filepath.Dir(dest))
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp) }()

	if err := w.rewriteFile(tmp, result); err != nil {
		return err
	}
	if err := commit(tmp, dest, w.ops, w.logger); err != nil {
		return err
	}

	w.logger.Info("workbook written", "path", dest, "valid", result.TotalValid(), "excluded", result.TotalExcluded())
	return nil
}

func (w *Rewriter) warn(result *schema.RankingResult, msg string, args ...any) {
	w.logger.Warn(msg, args...)
	if len(args) > 0 {
		var b strings.Builder
		b.WriteString(msg)
		for i := 0; i+1 < len(args); i += 2 {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		}
		msg = b.String()
	}
	result.AddWarning(msg)
}

// rewriteFile applies every sheet edit to the workbook at path and saves it.
func (w *Rewriter) rewriteFile(path string, result *schema.RankingResult) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("%w: opening copy: %w", contract.ErrFileOperation, err)
	}
	defer func() { _ = f.Close() }()

	sheet, err := activeSheet(f)
	if err != nil {
		return err
	}
	rows, lastRow, lastCol, err := sheetBounds(f, sheet)
	if err != nil {
		return err
	}

	original := readHeaderMap(rows)
	if _, ok := original[schema.KeyHeader]; !ok {
		return fmt.Errorf("%w: required column %q not found in row %d", contract.ErrDataFormat, schema.KeyHeader, schema.HeaderRow)
	}

	links, orphans, err := collectHyperlinks(f, sheet, original.Names(), lastRow, lastCol)
	if err != nil {
		return fmt.Errorf("%w: reading hyperlinks: %w", contract.ErrFileOperation, err)
	}
	for _, cell := range orphans {
		w.warn(result, "hyperlink dropped, its column has no header", "cell", cell)
	}

	headers := original.Clone()
	inserted, err := w.insertRankColumns(f, sheet, headers, result)
	if err != nil {
		return err
	}
	lastCol += inserted

	plan, err := w.planRows(f, sheet, headers, result, lastRow)
	if err != nil {
		return err
	}

	if err := w.relocateHyperlinks(f, sheet, headers, links, plan.moved, lastRow, lastCol, result); err != nil {
		return err
	}
	if err := writeValues(f, sheet, headers, plan); err != nil {
		return err
	}
	w.logger.Debug("values written", "valid_rows", len(plan.valid), "excluded_rows", len(plan.excluded), "last_valid_row", plan.lastValidRow)

	if w.opts.ApplyStyles {
		styled, failures := applyGroupStyles(f, sheet, headers, schema.HeaderRow+1, max(lastRow, plan.lastRow()))
		for _, fail := range failures {
			w.logger.Warn("cell style skipped", "cell", fail.Cell, "error", fail.Err)
		}
		w.logger.Debug("styles applied", "cells", styled, "failed", len(failures))
	}

	if err := f.Save(); err != nil {
		return fmt.Errorf("%w: saving copy: %w", contract.ErrFileOperation, err)
	}
	return nil
}

// insertRankColumns adds each missing platform rank column right of its total
// column and keeps headers in step. Existing rank columns are left alone.
func (w *Rewriter) insertRankColumns(f *excelize.File, sheet string, headers HeaderMap, result *schema.RankingResult) (int, error) {
	inserted := 0
	for _, p := range schema.AllPlatforms {
		spec := p.Spec()
		if _, ok := headers[spec.RankHeader]; ok {
			w.logger.Debug("rank column present", "header", spec.RankHeader)
			continue
		}
		totalCol, ok := headers[spec.TotalHeader]
		if !ok {
			w.warn(result, fmt.Sprintf("column %q not found, %q not inserted", spec.TotalHeader, spec.RankHeader))
			continue
		}

		at := totalCol + 1
		name, err := excelize.ColumnNumberToName(at)
		if err != nil {
			return inserted, fmt.Errorf("%w: %w", contract.ErrFileOperation, err)
		}
		if err := f.InsertCols(sheet, name, 1); err != nil {
			return inserted, fmt.Errorf("%w: inserting %s: %w", contract.ErrFileOperation, spec.RankHeader, err)
		}
		headers.shiftFrom(at)
		headers[spec.RankHeader] = at
		if err := f.SetCellStr(sheet, cellName(at, schema.HeaderRow), spec.RankHeader); err != nil {
			return inserted, fmt.Errorf("%w: writing header %s: %w", contract.ErrFileOperation, spec.RankHeader, err)
		}
		inserted++
		w.logger.Debug("rank column inserted", "header", spec.RankHeader, "column", name)
	}
	return inserted, nil
}

// relocateHyperlinks removes every link and re-attaches the captured ones at the
// current column of their header. Links of moved rows follow the row.
func (w *Rewriter) relocateHyperlinks(f *excelize.File, sheet string, headers HeaderMap, links []hyperlink, moved map[int]int, lastRow, lastCol int, result *schema.RankingResult) error {
	if err := clearHyperlinks(f, sheet, lastRow, lastCol); err != nil {
		return fmt.Errorf("%w: clearing hyperlinks: %w", contract.ErrFileOperation, err)
	}

	restored := 0
	for _, link := range links {
		col, ok := headers[link.Header]
		if !ok {
			w.warn(result, "hyperlink dropped, column no longer exists", "header", link.Header, "row", link.Row)
			continue
		}
		row := link.Row
		if dest, ok := moved[row]; ok {
			row = dest
		}
		if err := attachHyperlink(f, sheet, link, col, row); err != nil {
			return fmt.Errorf("%w: restoring hyperlink at %s: %w", contract.ErrFileOperation, cellName(col, row), err)
		}
		restored++
	}
	w.logger.Debug("hyperlinks restored", "count", restored)
	return nil
}

// placement is an excluded record and the row it is appended at.
type placement struct {
	rec *schema.Record
	row int
}

// rowPlan says where every record lands in the sheet.
type rowPlan struct {
	valid        map[int]*schema.Record // sheet row to the record written in place
	lastValidRow int
	excluded     []placement
	cleared      []int                     // source rows of excluded records
	moved        map[int]int               // source row to appended row
	formulas     map[int]map[string]string // source row to formulas by header
}

func (p rowPlan) lastRow() int {
	if len(p.excluded) == 0 {
		return p.lastValidRow
	}
	return p.excluded[len(p.excluded)-1].row
}

// planRows matches sheet rows to valid records by key (first record wins) and
// places excluded records after a gap below the last matched row. Source rows
// of excluded records are never matched, even when a valid record shares the key.
func (w *Rewriter) planRows(f *excelize.File, sheet string, headers HeaderMap, result *schema.RankingResult, lastRow int) (rowPlan, error) {
	plan := rowPlan{
		valid:        make(map[int]*schema.Record),
		lastValidRow: schema.HeaderRow,
		moved:        make(map[int]int),
		formulas:     make(map[int]map[string]string),
	}

	lookup := make(map[string]*schema.Record, len(result.Valid))
	for _, rec := range result.Valid {
		if _, dup := lookup[rec.Key]; !dup {
			lookup[rec.Key] = rec
		}
	}
	excludedRows := make(map[int]struct{}, len(result.Excluded))
	for _, rec := range result.Excluded {
		excludedRows[rec.Row] = struct{}{}
	}

	keyCol := headers[schema.KeyHeader]
	for row := schema.DataStartRow; row <= lastRow; row++ {
		raw, err := f.GetCellValue(sheet, cellName(keyCol, row), excelize.Options{RawCellValue: true})
		if err != nil {
			return plan, fmt.Errorf("%w: reading key at row %d: %w", contract.ErrFileOperation, row, err)
		}
		rec, ok := lookup[strings.TrimSpace(raw)]
		if !ok {
			continue
		}
		if _, excluded := excludedRows[row]; excluded {
			w.warn(result, "excluded row shares its key with a ranked title, moved to the excluded block", "key", rec.Key, "row", row)
			continue
		}
		plan.valid[row] = rec
		plan.lastValidRow = row
	}

	start := plan.lastValidRow + schema.ExcludedGap + 1
	for i, rec := range result.Excluded {
		dest := start + i
		plan.excluded = append(plan.excluded, placement{rec: rec, row: dest})
		if rec.Row < schema.DataStartRow {
			continue
		}
		formulas, err := rowFormulas(f, sheet, headers, rec.Row)
		if err != nil {
			return plan, err
		}
		plan.formulas[rec.Row] = formulas
		plan.cleared = append(plan.cleared, rec.Row)
		plan.moved[rec.Row] = dest
	}
	return plan, nil
}

// rowFormulas reads the formulas of row as they stand after column insertion.
func rowFormulas(f *excelize.File, sheet string, headers HeaderMap, row int) (map[string]string, error) {
	formulas := make(map[string]string)
	for header, col := range headers {
		formula, err := f.GetCellFormula(sheet, cellName(col, row))
		if err != nil {
			return nil, fmt.Errorf("%w: reading formula at %s: %w", contract.ErrFileOperation, cellName(col, row), err)
		}
		if formula != "" {
			formulas[header] = formula
		}
	}
	return formulas, nil
}

// writeValues blanks the source rows of excluded records, rewrites matched rows
// in place and appends the excluded block. Cells holding formulas are left to
// the workbook when a row stays where it was. Formulas of moved rows follow the
// row with their relative row references shifted.
func writeValues(f *excelize.File, sheet string, headers HeaderMap, plan rowPlan) error {
	for _, row := range plan.cleared {
		for _, col := range headers {
			if err := writeCell(f, sheet, cellName(col, row), schema.Empty); err != nil {
				return fmt.Errorf("%w: clearing row %d: %w", contract.ErrFileOperation, row, err)
			}
		}
	}

	for row, rec := range plan.valid {
		for _, field := range rec.Fields(true) {
			col, ok := headers[field.Header]
			if !ok || field.Value.Formula != "" {
				continue
			}
			if err := writeCell(f, sheet, cellName(col, row), field.Value); err != nil {
				return fmt.Errorf("%w: writing %s at row %d: %w", contract.ErrFileOperation, field.Header, row, err)
			}
		}
	}

	for _, p := range plan.excluded {
		formulas := plan.formulas[p.rec.Row]
		for _, field := range p.rec.Fields(false) {
			col, ok := headers[field.Header]
			if !ok {
				continue
			}
			cell := cellName(col, p.row)
			if formula, ok := formulas[field.Header]; ok && !schema.IsComputedHeader(field.Header) {
				if err := f.SetCellFormula(sheet, cell, shiftFormulaRows(formula, p.row-p.rec.Row)); err != nil {
					return fmt.Errorf("%w: writing formula %s at row %d: %w", contract.ErrFileOperation, field.Header, p.row, err)
				}
				continue
			}
			if err := writeCell(f, sheet, cell, field.Value); err != nil {
				return fmt.Errorf("%w: writing %s at row %d: %w", contract.ErrFileOperation, field.Header, p.row, err)
			}
		}
	}
	return nil
}
