// Package series assembles per-year valuation sequences for charting: one
// unit, a group mean, and alignment of several series on their common years.
package series

import (
	"fmt"

	"valuerank/internal/types"
)

// Series is a labelled valuation sequence. Years ascend and Values is
// parallel to Years.
type Series struct {
	Label  string    `json:"label" yaml:"label"`
	Years  []int     `json:"years" yaml:"years"`
	Values []float64 `json:"values" yaml:"values"`
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.Years) }

// Build returns the row's valuations for the given years, skipping years
// where the row has none.
func Build(label string, row types.Row, years types.YearSet) Series {
	s := Series{Label: label}
	for _, y := range years {
		if v, ok := row.Value(y); ok {
			s.Years = append(s.Years, y)
			s.Values = append(s.Values, v)
		}
	}
	return s
}

// ForUnit looks the key up in ds and builds its series, labelled by key.
func ForUnit(ds *types.Dataset, key types.Key) (Series, error) {
	row, ok := ds.Lookup(key)
	if !ok {
		return Series{}, &types.NotFoundError{Subject: key.String()}
	}
	return Build(key.String(), row, ds.Years), nil
}

// Align restricts every series to the years present in all of them, keeping
// ascending order. Nothing is interpolated or zero-filled.
func Align(series ...Series) []Series {
	if len(series) == 0 {
		return nil
	}

	counts := make(map[int]int)
	for _, s := range series {
		seen := make(map[int]bool, len(s.Years))
		for _, y := range s.Years {
			if !seen[y] {
				seen[y] = true
				counts[y]++
			}
		}
	}

	out := make([]Series, len(series))
	for i, s := range series {
		a := Series{Label: s.Label}
		for j, y := range s.Years {
			if counts[y] == len(series) {
				a.Years = append(a.Years, y)
				a.Values = append(a.Values, s.Values[j])
			}
		}
		out[i] = a
	}
	return out
}

// Group selects rows of one building, optionally one size class.
type Group struct {
	Zone      string `json:"zone" yaml:"zone"`
	Building  string `json:"building" yaml:"building"`
	SizeClass string `json:"size_class,omitempty" yaml:"size_class,omitempty"`
}

func (g Group) String() string {
	if g.SizeClass == "" {
		return fmt.Sprintf("%s/%s", g.Zone, g.Building)
	}
	return fmt.Sprintf("%s/%s/%s", g.Zone, g.Building, g.SizeClass)
}

func (g Group) matches(r types.Row) bool {
	return r.Zone == g.Zone && r.Building == g.Building &&
		(g.SizeClass == "" || r.SizeClass == g.SizeClass)
}

// GroupMean averages the valuations of every row in the group per year,
// over the rows that have a value that year. Years where no member has a
// value are omitted.
func GroupMean(ds *types.Dataset, g Group) (Series, error) {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	members := 0
	for _, r := range ds.Rows {
		if !g.matches(r) {
			continue
		}
		members++
		for y, v := range r.Values {
			sums[y] += v
			counts[y]++
		}
	}
	if members == 0 {
		return Series{}, &types.NotFoundError{Subject: g.String()}
	}

	s := Series{Label: g.String()}
	for _, y := range ds.Years {
		if counts[y] == 0 {
			continue
		}
		s.Years = append(s.Years, y)
		s.Values = append(s.Values, sums[y]/float64(counts[y]))
	}
	return s, nil
}
