package workbook

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// hyperlink is a link captured before columns move. It is addressed by
// header name so it can follow its column.
type hyperlink struct {
	Row     int
	Header  string
	Target  string
	Display string
}

// linkType guesses the excelize link type from the stored target.
func (h hyperlink) linkType() string {
	if strings.Contains(h.Target, "://") || strings.HasPrefix(strings.ToLower(h.Target), "mailto:") {
		return "External"
	}
	return "Location"
}

// collectHyperlinks records every link in the grid, resolving its column through names.
// Links in columns without a header cannot be relocated and are returned as orphans.
func collectHyperlinks(f *excelize.File, sheet string, names map[int]string, lastRow, lastCol int) (links []hyperlink, orphans []string, err error) {
	for row := 1; row <= lastRow; row++ {
		for col := 1; col <= lastCol; col++ {
			cell := cellName(col, row)
			ok, target, err := f.GetCellHyperLink(sheet, cell)
			if err != nil {
				return nil, nil, err
			}
			if !ok {
				continue
			}
			header, named := names[col]
			if !named {
				orphans = append(orphans, cell)
				continue
			}
			display, err := f.GetCellValue(sheet, cell)
			if err != nil {
				return nil, nil, err
			}
			links = append(links, hyperlink{Row: row, Header: header, Target: target, Display: display})
		}
	}
	return links, orphans, nil
}

// clearHyperlinks removes every link in the grid.
func clearHyperlinks(f *excelize.File, sheet string, lastRow, lastCol int) error {
	for row := 1; row <= lastRow; row++ {
		for col := 1; col <= lastCol; col++ {
			cell := cellName(col, row)
			ok, _, err := f.GetCellHyperLink(sheet, cell)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := f.SetCellHyperLink(sheet, cell, "", "None"); err != nil {
				return err
			}
		}
	}
	return nil
}

// attachHyperlink sets the link at its header's current column. The display
// text is only written into an empty cell.
func attachHyperlink(f *excelize.File, sheet string, link hyperlink, col, row int) error {
	cell := cellName(col, row)
	if err := f.SetCellHyperLink(sheet, cell, link.Target, link.linkType()); err != nil {
		return err
	}
	if link.Display == "" {
		return nil
	}
	current, err := f.GetCellValue(sheet, cell)
	if err != nil {
		return err
	}
	if current == "" {
		return f.SetCellStr(sheet, cell, link.Display)
	}
	return nil
}
