// Package ingest turns a raw spreadsheet grid into a typed Dataset: header
// discovery and column normalisation, identifying-key validation and
// per-year valuation coercion.
package ingest

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"valuerank/internal/types"
)

// Canonical column names.
const (
	ColZone     = "zone"
	ColBuilding = "building"
	ColBlock    = "block"
	ColUnit     = "unit"
	ColSize     = "size"
)

// Required lists the identifying columns every source must carry.
var Required = []string{ColZone, ColBuilding, ColBlock, ColUnit}

var canonicalNames = map[string]string{
	"zone":       ColZone,
	"구역":         ColZone,
	"building":   ColBuilding,
	"complex":    ColBuilding,
	"단지명":        ColBuilding,
	"block":      ColBlock,
	"동":          ColBlock,
	"unit":       ColUnit,
	"호":          ColUnit,
	"size":       ColSize,
	"size_class": ColSize,
	"평형":         ColSize,
}

var zoneAliases = map[string]bool{"address": true, "주소": true}

const placeholderPrefix = "Unnamed: "

// Options bounds a load.
type Options struct {
	// MaxRows caps the number of data rows kept; 0 disables the cap.
	MaxRows int
	// ScanRows is how many leading rows are searched for the header.
	ScanRows int
	MinYear  int
	MaxYear  int
}

// DefaultOptions mirrors the defaults of the hosted sheet.
func DefaultOptions() Options {
	return Options{
		MaxRows:  10337,
		ScanRows: 50,
		MinYear:  2010,
		MaxYear:  2100,
	}
}

// Table is a header-normalised grid. Cells are trimmed; "" means missing.
type Table struct {
	Columns []string
	Rows    [][]string
	// Years maps each detected fiscal year to its column index.
	Years map[int]int
}

// Index returns the column index of name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// YearList returns the detected years in ascending order.
func (t *Table) YearList() []int {
	years := make([]int, 0, len(t.Years))
	for y := range t.Years {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// CleanHeader normalises a header cell: NFC, embedded newlines folded to
// spaces, surrounding whitespace trimmed.
func CleanHeader(s string) string {
	s = norm.NFC.String(s)
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return strings.TrimSpace(s)
}

// DetectHeader returns the index of the first row, among the first scan
// rows, whose cells name every required column once mapped through the
// known names and zone aliases. It falls back to 0.
func DetectHeader(grid [][]string, scan int) int {
	if scan <= 0 || scan > len(grid) {
		scan = len(grid)
	}
	for i := 0; i < scan; i++ {
		if coversRequired(grid[i]) {
			return i
		}
	}
	return 0
}

func coversRequired(row []string) bool {
	found := make(map[string]bool, len(Required))
	for _, c := range row {
		name := strings.ToLower(CleanHeader(c))
		if canon, ok := canonicalNames[name]; ok {
			found[canon] = true
		} else if zoneAliases[name] {
			found[ColZone] = true
		}
	}
	for _, n := range Required {
		if !found[n] {
			return false
		}
	}
	return true
}

// YearOf reports whether a column name denotes a fiscal year: exactly four
// ASCII digits, or a number that is an integer of exactly four digits.
func YearOf(name string) (int, bool) {
	name = strings.TrimSpace(name)
	if len(name) == 4 && isASCIIDigits(name) {
		y, _ := strconv.Atoi(name)
		return y, true
	}
	f, err := strconv.ParseFloat(name, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < 1000 || f > 9999 {
		return 0, false
	}
	return int(f), true
}

func isASCIIDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// DetectYears maps in-bounds year columns to their index. When two columns
// name the same year the first one wins.
func DetectYears(columns []string, minYear, maxYear int) map[int]int {
	years := make(map[int]int)
	for i, c := range columns {
		y, ok := YearOf(c)
		if !ok || y < minYear || y > maxYear {
			continue
		}
		if _, dup := years[y]; !dup {
			years[y] = i
		}
	}
	return years
}

// Normalize locates the header, cleans and canonicalises column names and
// detects year columns. It returns a *types.SchemaError when any required
// identifying column is absent.
func Normalize(grid [][]string, opts Options) (*Table, error) {
	if len(grid) == 0 {
		return nil, &types.SchemaError{Missing: append([]string(nil), Required...)}
	}

	hdr := DetectHeader(grid, opts.ScanRows)
	width := 0
	for _, row := range grid[hdr:] {
		if len(row) > width {
			width = len(row)
		}
	}

	columns := make([]string, width)
	for i := range columns {
		if i < len(grid[hdr]) {
			columns[i] = CleanHeader(grid[hdr][i])
		}
		if columns[i] == "" {
			columns[i] = fmt.Sprintf("%s%d", placeholderPrefix, i)
		}
	}

	rows := make([][]string, 0, len(grid)-hdr-1)
	for _, raw := range grid[hdr+1:] {
		row := make([]string, width)
		for i := 0; i < width && i < len(raw); i++ {
			row[i] = strings.TrimSpace(raw[i])
		}
		rows = append(rows, row)
	}

	columns, rows = dropEmptyPlaceholders(columns, rows)
	columns = canonicalize(columns)

	t := &Table{Columns: columns, Rows: rows}
	var missing []string
	for _, name := range Required {
		if t.Index(name) < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &types.SchemaError{Missing: missing, Present: append([]string(nil), columns...)}
	}

	t.Years = DetectYears(columns, opts.MinYear, opts.MaxYear)
	return t, nil
}

func dropEmptyPlaceholders(columns []string, rows [][]string) ([]string, [][]string) {
	keep := make([]int, 0, len(columns))
	for i, c := range columns {
		if strings.HasPrefix(c, placeholderPrefix) && columnEmpty(rows, i) {
			continue
		}
		keep = append(keep, i)
	}
	if len(keep) == len(columns) {
		return columns, rows
	}

	outCols := make([]string, len(keep))
	for j, i := range keep {
		outCols[j] = columns[i]
	}
	outRows := make([][]string, len(rows))
	for r, row := range rows {
		out := make([]string, len(keep))
		for j, i := range keep {
			out[j] = row[i]
		}
		outRows[r] = out
	}
	return outCols, outRows
}

func columnEmpty(rows [][]string, i int) bool {
	for _, row := range rows {
		if row[i] != "" {
			return false
		}
	}
	return true
}

// canonicalize maps known names to their canonical form, renames a zone
// alias when no zone column exists, and suffixes duplicates with .1, .2, ...
func canonicalize(columns []string) []string {
	out := make([]string, len(columns))
	hasZone := false
	for i, c := range columns {
		if canon, ok := canonicalNames[strings.ToLower(c)]; ok {
			out[i] = canon
			if canon == ColZone {
				hasZone = true
			}
			continue
		}
		out[i] = c
	}

	if !hasZone {
		for i, c := range out {
			if zoneAliases[strings.ToLower(c)] {
				out[i] = ColZone
				break
			}
		}
	}

	seen := make(map[string]int, len(out))
	for i, c := range out {
		n := seen[c]
		seen[c] = n + 1
		if n > 0 {
			out[i] = fmt.Sprintf("%s.%d", c, n)
		}
	}
	return out
}
