// Package comparable finds an out-of-zone counterpart for a unit: the
// closest base-year valuation, optionally restricted to units whose relative
// global standing against the target flipped by the latest year.
package comparable

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"valuerank/internal/rank"
	"valuerank/internal/types"
)

// Finder searches one read-only dataset. It is safe for concurrent use;
// global rankings are computed once per year and shared across searches.
type Finder struct {
	ds *types.Dataset

	mu     sync.Mutex
	ranked map[int]rank.Ranking
}

// New returns a Finder over ds.
func New(ds *types.Dataset) *Finder {
	return &Finder{ds: ds, ranked: make(map[int]rank.Ranking)}
}

// global returns the dataset-wide ranking for year.
func (f *Finder) global(year int) rank.Ranking {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.ranked[year]
	if !ok {
		r = rank.ForYear(f.ds.Rows, year)
		f.ranked[year] = r
	}
	return r
}

func (f *Finder) target(key types.Key) (int, error) {
	for i, r := range f.ds.Rows {
		if r.Key == key {
			return i, nil
		}
	}
	return -1, &types.NotFoundError{Subject: key.String()}
}

// Nearest returns the out-of-zone row whose baseYear valuation is closest to
// the target's. Ties go to the smallest key.
func (f *Finder) Nearest(key types.Key, baseYear int) (types.ComparableResult, error) {
	ti, err := f.target(key)
	if err != nil {
		return types.ComparableResult{}, err
	}
	base, ok := f.ds.Rows[ti].Value(baseYear)
	if !ok {
		return types.ComparableResult{}, &types.EmptyResultError{
			Reason: fmt.Sprintf("%s has no %d valuation", key, baseYear),
		}
	}

	best := -1
	bestDiff := math.Inf(1)
	for i, r := range f.ds.Rows {
		if r.Zone == key.Zone {
			continue
		}
		v, ok := r.Value(baseYear)
		if !ok {
			continue
		}
		d := math.Abs(v - base)
		if d < bestDiff || (d == bestDiff && r.Key.Less(f.ds.Rows[best].Key)) {
			best, bestDiff = i, d
		}
	}
	if best < 0 {
		return types.ComparableResult{}, &types.EmptyResultError{
			Reason: fmt.Sprintf("no other zone has a %d valuation", baseYear),
		}
	}

	c := f.ds.Rows[best]
	return types.ComparableResult{
		BaseUnit:      key,
		BaseYear:      baseYear,
		Candidate:     c.Key,
		CandidateZone: c.Zone,
		BaseYearDiff:  bestDiff,
	}, nil
}

type inversion struct {
	idx         int
	diff        float64
	deltaBase   int
	deltaLatest int
	swing       int
	ownChange   int
}

// NearestWithInversion looks for an out-of-zone unit whose global rank
// relative to the target flipped between baseYear and latestYear: one of
// them ranked better at baseYear and worse at latestYear. Qualifying units
// are narrowed to the breadth closest by baseYear valuation (breadth <= 0
// keeps all), then the one with the largest relative rank swing wins. Ties
// go to the larger own rank change, then the smaller price difference, then
// the smaller key.
func (f *Finder) NearestWithInversion(key types.Key, baseYear, latestYear, breadth int) (types.ComparableResult, error) {
	ti, err := f.target(key)
	if err != nil {
		return types.ComparableResult{}, err
	}
	if !f.ds.Years.Contains(baseYear) || !f.ds.Years.Contains(latestYear) {
		return types.ComparableResult{}, &types.EmptyResultError{
			Reason: fmt.Sprintf("no data for %d and %d", baseYear, latestYear),
		}
	}

	baseRanks := f.global(baseYear)
	latestRanks := f.global(latestYear)

	baseVal, okV := f.ds.Rows[ti].Value(baseYear)
	tBase, okB := baseRanks.At(ti)
	tLatest, okL := latestRanks.At(ti)
	if !okV || !okB || !okL {
		return types.ComparableResult{}, &types.EmptyResultError{
			Reason: fmt.Sprintf("%s lacks a %d or %d valuation", key, baseYear, latestYear),
		}
	}

	var qualified []inversion
	for i, r := range f.ds.Rows {
		if r.Zone == key.Zone {
			continue
		}
		cBase, ok := baseRanks.At(i)
		if !ok {
			continue
		}
		cLatest, ok := latestRanks.At(i)
		if !ok {
			continue
		}
		db := tBase - cBase
		dl := tLatest - cLatest
		if db == 0 || dl == 0 || (db > 0) == (dl > 0) {
			continue
		}
		v, _ := r.Value(baseYear)
		qualified = append(qualified, inversion{
			idx:         i,
			diff:        math.Abs(v - baseVal),
			deltaBase:   db,
			deltaLatest: dl,
			swing:       abs(dl - db),
			ownChange:   abs(cLatest - cBase),
		})
	}
	if len(qualified) == 0 {
		return types.ComparableResult{}, &types.EmptyResultError{
			Reason: fmt.Sprintf("no out-of-zone unit inverted rank against %s between %d and %d", key, baseYear, latestYear),
		}
	}

	rows := f.ds.Rows
	sort.SliceStable(qualified, func(a, b int) bool {
		if qualified[a].diff != qualified[b].diff {
			return qualified[a].diff < qualified[b].diff
		}
		return rows[qualified[a].idx].Key.Less(rows[qualified[b].idx].Key)
	})
	if breadth > 0 && len(qualified) > breadth {
		qualified = qualified[:breadth]
	}

	best := qualified[0]
	for _, q := range qualified[1:] {
		if better(q, best, rows) {
			best = q
		}
	}

	c := rows[best.idx]
	swing := float64(best.swing)
	return types.ComparableResult{
		BaseUnit:        key,
		BaseYear:        baseYear,
		Candidate:       c.Key,
		CandidateZone:   c.Zone,
		BaseYearDiff:    best.diff,
		RankSwing:       &swing,
		LatestYear:      latestYear,
		RankDeltaBase:   best.deltaBase,
		RankDeltaLatest: best.deltaLatest,
	}, nil
}

func better(a, b inversion, rows []types.Row) bool {
	if a.swing != b.swing {
		return a.swing > b.swing
	}
	if a.ownChange != b.ownChange {
		return a.ownChange > b.ownChange
	}
	if a.diff != b.diff {
		return a.diff < b.diff
	}
	return rows[a.idx].Key.Less(rows[b.idx].Key)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
