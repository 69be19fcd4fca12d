package comparable

import (
	"fmt"
	"strings"

	"valuerank/internal/types"
)

// Mode selects the search strategy.
type Mode string

const (
	ModeSimple    Mode = "simple"
	ModeInversion Mode = "inversion"
)

// ParseMode accepts "simple" or "inversion", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSimple, ModeInversion:
		return m, nil
	}
	return "", fmt.Errorf("unknown comparable mode %q (want simple or inversion)", s)
}

// Query bundles the parameters of one search.
type Query struct {
	Mode       Mode
	BaseYear   int
	LatestYear int
	Breadth    int
}

// Find dispatches q to Nearest or NearestWithInversion. Zero years default
// to the first and last year of the dataset.
func (f *Finder) Find(key types.Key, q Query) (types.ComparableResult, error) {
	if q.BaseYear == 0 {
		q.BaseYear = f.ds.Years.First()
	}
	if q.LatestYear == 0 {
		q.LatestYear = f.ds.Years.Last()
	}
	if q.Mode == ModeInversion {
		return f.NearestWithInversion(key, q.BaseYear, q.LatestYear, q.Breadth)
	}
	return f.Nearest(key, q.BaseYear)
}
