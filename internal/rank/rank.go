// Package rank computes competition ranks of unit valuations per year,
// within a unit's zone and across the whole dataset.
package rank

import (
	"sort"

	"valuerank/internal/types"
)

// Ranking is the competition ranking of one pool for one year. Ranks are
// indexed like the pool slice it was computed from.
type Ranking struct {
	Year     int
	PoolSize int
	ranks    []int
}

// At returns the rank of pool[i], or false when that row has no valuation
// for the year.
func (r Ranking) At(i int) (int, bool) {
	if i < 0 || i >= len(r.ranks) || r.ranks[i] == 0 {
		return 0, false
	}
	return r.ranks[i], true
}

// ForYear ranks pool by descending valuation in year. Equal valuations share
// the lowest rank of their tie group and the next rank skips by the group
// size ([10, 10, 8] ranks [1, 1, 3]). Rows missing the year are unranked and
// do not count toward PoolSize.
func ForYear(pool []types.Row, year int) Ranking {
	type entry struct {
		idx int
		val float64
	}
	entries := make([]entry, 0, len(pool))
	for i, row := range pool {
		if v, ok := row.Value(year); ok {
			entries = append(entries, entry{idx: i, val: v})
		}
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].val > entries[b].val
	})

	ranks := make([]int, len(pool))
	for pos, e := range entries {
		if pos > 0 && e.val == entries[pos-1].val {
			ranks[e.idx] = ranks[entries[pos-1].idx]
			continue
		}
		ranks[e.idx] = pos + 1
	}
	return Ranking{Year: year, PoolSize: len(entries), ranks: ranks}
}

// Engine answers rank queries against one read-only dataset.
type Engine struct {
	ds *types.Dataset
}

// New returns an Engine over ds. ds must not be mutated while queries run.
func New(ds *types.Dataset) *Engine {
	return &Engine{ds: ds}
}

// Unit returns, for every year the unit has a valuation, its zone-local and
// global rank. Years where the unit's own valuation is missing are omitted.
func (e *Engine) Unit(key types.Key) ([]types.UnitRank, error) {
	target := -1
	var zonePool []types.Row
	zoneTarget := -1
	for i, row := range e.ds.Rows {
		if row.Zone != key.Zone {
			continue
		}
		if target < 0 && row.Key == key {
			target = i
			zoneTarget = len(zonePool)
		}
		zonePool = append(zonePool, row)
	}
	if target < 0 {
		return nil, &types.NotFoundError{Subject: key.String()}
	}

	row := e.ds.Rows[target]
	var out []types.UnitRank
	for _, year := range e.ds.Years {
		v, ok := row.Value(year)
		if !ok {
			continue
		}
		zr := ForYear(zonePool, year)
		gr := ForYear(e.ds.Rows, year)
		zoneRank, _ := zr.At(zoneTarget)
		globalRank, _ := gr.At(target)
		out = append(out, types.UnitRank{
			Year:      year,
			Valuation: v,
			Zone:      types.RankEntry{Year: year, Scope: types.ScopeZone, Rank: zoneRank, PoolSize: zr.PoolSize},
			Global:    types.RankEntry{Year: year, Scope: types.ScopeGlobal, Rank: globalRank, PoolSize: gr.PoolSize},
		})
	}
	return out, nil
}

// TableEntry is one ranked row of a year's full rank table.
type TableEntry struct {
	Key       types.Key       `json:"key" yaml:"key"`
	Valuation float64         `json:"valuation" yaml:"valuation"`
	Zone      types.RankEntry `json:"zone_rank" yaml:"zone_rank"`
	Global    types.RankEntry `json:"global_rank" yaml:"global_rank"`
}

// Table ranks every row with a valuation in year, ordered by global rank
// and then by key.
func (e *Engine) Table(year int) []TableEntry {
	global := ForYear(e.ds.Rows, year)

	byZone := make(map[string][]int)
	for i, row := range e.ds.Rows {
		byZone[row.Zone] = append(byZone[row.Zone], i)
	}
	zoneRanks := make([]types.RankEntry, len(e.ds.Rows))
	for _, idx := range byZone {
		pool := make([]types.Row, len(idx))
		for j, i := range idx {
			pool[j] = e.ds.Rows[i]
		}
		zr := ForYear(pool, year)
		for j, i := range idx {
			if r, ok := zr.At(j); ok {
				zoneRanks[i] = types.RankEntry{Year: year, Scope: types.ScopeZone, Rank: r, PoolSize: zr.PoolSize}
			}
		}
	}

	var out []TableEntry
	for i, row := range e.ds.Rows {
		gr, ok := global.At(i)
		if !ok {
			continue
		}
		v, _ := row.Value(year)
		out = append(out, TableEntry{
			Key:       row.Key,
			Valuation: v,
			Zone:      zoneRanks[i],
			Global:    types.RankEntry{Year: year, Scope: types.ScopeGlobal, Rank: gr, PoolSize: global.PoolSize},
		})
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Global.Rank != out[b].Global.Rank {
			return out[a].Global.Rank < out[b].Global.Rank
		}
		return out[a].Key.Less(out[b].Key)
	})
	return out
}
