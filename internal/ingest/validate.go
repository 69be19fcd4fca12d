package ingest

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"valuerank/internal/types"
)

// Record is a data row whose identifying key passed validation. Cells keeps
// the raw normalised cells for the later valuation pass.
type Record struct {
	Key       types.Key
	SizeClass string
	Cells     []string
}

// Validate truncates the table to maxRows data rows and keeps only rows with
// a complete, well-typed identifying key.
func Validate(t *Table, maxRows int) []Record {
	rows := t.Rows
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}

	zi, bi, bli, ui := t.Index(ColZone), t.Index(ColBuilding), t.Index(ColBlock), t.Index(ColUnit)
	si := t.Index(ColSize)

	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		zone, ok := identText(row[zi])
		if !ok {
			continue
		}
		building, ok := identText(row[bi])
		if !ok {
			continue
		}
		block, ok := ParseKeyInt(row[bli])
		if !ok {
			continue
		}
		unit, ok := ParseKeyInt(row[ui])
		if !ok {
			continue
		}

		rec := Record{
			Key:   types.Key{Zone: zone, Building: building, Block: block, Unit: unit},
			Cells: row,
		}
		if si >= 0 {
			rec.SizeClass = norm.NFC.String(strings.TrimSpace(row[si]))
		}
		out = append(out, rec)
	}
	return out
}

// identText trims an identifying string and rejects empty values and the
// literal "nan" left behind by empty-cell exports.
func identText(s string) (string, bool) {
	s = norm.NFC.String(strings.TrimSpace(s))
	if s == "" || strings.EqualFold(s, "nan") {
		return "", false
	}
	return s, true
}

// ParseKeyInt parses a block or unit number. Integral floats such as "101.0"
// are accepted; anything else is missing.
func ParseKeyInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
