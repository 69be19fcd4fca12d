package source

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSX reads one sheet of a local workbook.
type XLSX struct {
	Path       string
	SheetName  string // if set, overrides SheetIndex
	SheetIndex int
}

func (x *XLSX) Name() string { return "xlsx:" + x.Path }

// Fetch returns every row of the selected sheet, rows padded to the sheet's
// widest row.
func (x *XLSX) Fetch(ctx context.Context) ([][]string, error) {
	f, err := xlsx.OpenFile(x.Path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, err := x.sheet(f)
	if err != nil {
		return nil, err
	}

	width := 0
	for _, row := range sheet.Rows {
		if row != nil && len(row.Cells) > width {
			width = len(row.Cells)
		}
	}

	grid := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "xlsx: context cancelled")
		}
		cells := make([]string, width)
		if row != nil {
			for j, cell := range row.Cells {
				cells[j] = cell.String()
			}
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

func (x *XLSX) sheet(f *xlsx.File) (*xlsx.Sheet, error) {
	if x.SheetName != "" {
		sheet, ok := f.Sheet[x.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", x.SheetName)
		}
		return sheet, nil
	}

	if x.SheetIndex < 0 || x.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", x.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[x.SheetIndex], nil
}
