package source

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// Delimited reads a CSV or pipe-delimited export of the sheet.
type Delimited struct {
	Path  string
	Comma rune
}

func (d *Delimited) Name() string { return "csv:" + d.Path }

// Fetch reads every record. Ragged rows are allowed; a UTF-8 BOM on the
// first cell is stripped.
func (d *Delimited) Fetch(ctx context.Context) ([][]string, error) {
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, eris.Wrap(err, "csv: open file")
	}
	defer f.Close()

	return readDelimited(ctx, f, d.Comma)
}

func readDelimited(ctx context.Context, r io.Reader, comma rune) ([][]string, error) {
	cr := csv.NewReader(r)
	if comma != 0 {
		cr.Comma = comma
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var grid [][]string
	for {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "csv: context cancelled")
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "csv: read record %d", len(grid)+1)
		}
		if len(grid) == 0 && len(rec) > 0 {
			rec[0] = trimBOM(rec[0])
		}
		grid = append(grid, rec)
	}
	return grid, nil
}

func trimBOM(s string) string {
	const bom = "\ufeff"
	if len(s) >= len(bom) && s[:len(bom)] == bom {
		return s[len(bom):]
	}
	return s
}
