package ingest

import (
	"math"
	"strconv"
	"strings"

	"valuerank/internal/types"
)

var separators = strings.NewReplacer(
	",", "", "_", "", " ", "", "\u00a0", "", "\u202f", "",
	"₩", "", "￦", "", "원", "",
)

// ParseValuation parses a valuation cell. Thousands separators and won
// marks are stripped; empty, "nan" and unparsable cells are missing, never
// zero.
func ParseValuation(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = separators.Replace(s)
	if strings.EqualFold(s, "nan") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatValuation renders a value so that ParseValuation returns it unchanged.
func FormatValuation(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Coerce parses every year cell of the validated records and builds the
// Dataset. Years with no value anywhere are dropped from the YearSet; if none
// remain a *types.NoYearColumnsError is returned.
func Coerce(t *Table, recs []Record) (*types.Dataset, error) {
	detected := t.YearList()
	if len(detected) == 0 {
		return nil, &types.NoYearColumnsError{}
	}

	counts := make(map[int]int, len(detected))
	rows := make([]types.Row, len(recs))
	for i, rec := range recs {
		values := make(map[int]float64, len(detected))
		for _, y := range detected {
			if v, ok := ParseValuation(rec.Cells[t.Years[y]]); ok {
				values[y] = v
				counts[y]++
			}
		}
		rows[i] = types.Row{Key: rec.Key, SizeClass: rec.SizeClass, Values: values}
	}

	years := make(types.YearSet, 0, len(detected))
	for _, y := range detected {
		if counts[y] > 0 {
			years = append(years, y)
		}
	}
	if len(years) == 0 {
		return nil, &types.NoYearColumnsError{Detected: detected}
	}

	return &types.Dataset{Rows: rows, Years: years}, nil
}

// Load runs the full pipeline over a raw grid.
func Load(grid [][]string, opts Options) (*types.Dataset, error) {
	t, err := Normalize(grid, opts)
	if err != nil {
		return nil, err
	}
	return Coerce(t, Validate(t, opts.MaxRows))
}
