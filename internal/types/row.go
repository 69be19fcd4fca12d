package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Key identifies a single residential unit. The 4-tuple is expected to be
// unique within a dataset, but duplicates are tolerated and ranked as
// independent rows.
type Key struct {
	Zone     string `json:"zone" yaml:"zone"`
	Building string `json:"building" yaml:"building"`
	Block    int    `json:"block" yaml:"block"`
	Unit     int    `json:"unit" yaml:"unit"`
}

// String renders the key as zone/building/block/unit.
func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%d/%d", k.Zone, k.Building, k.Block, k.Unit)
}

// Less orders keys by zone, building, block and unit ascending.
func (k Key) Less(o Key) bool {
	if k.Zone != o.Zone {
		return k.Zone < o.Zone
	}
	if k.Building != o.Building {
		return k.Building < o.Building
	}
	if k.Block != o.Block {
		return k.Block < o.Block
	}
	return k.Unit < o.Unit
}

// ParseKey parses the zone/building/block/unit form produced by Key.String.
// Zone and building may not contain '/'.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 4 {
		return Key{}, fmt.Errorf("key %q: want zone/building/block/unit", s)
	}
	block, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return Key{}, fmt.Errorf("key %q: block: %w", s, err)
	}
	unit, err := strconv.Atoi(strings.TrimSpace(parts[3]))
	if err != nil {
		return Key{}, fmt.Errorf("key %q: unit: %w", s, err)
	}
	return Key{
		Zone:     strings.TrimSpace(parts[0]),
		Building: strings.TrimSpace(parts[1]),
		Block:    block,
		Unit:     unit,
	}, nil
}

// Row holds one unit's identifying key and its valuation per year.
// A year that is absent from Values is missing; zero is a real valuation.
type Row struct {
	Key
	SizeClass string
	Values    map[int]float64
}

// Value returns the valuation for year and whether it is present.
func (r Row) Value(year int) (float64, bool) {
	v, ok := r.Values[year]
	return v, ok
}

// YearSet is an ascending set of fiscal years.
type YearSet []int

// Contains reports whether year is in the set.
func (ys YearSet) Contains(year int) bool {
	i := sort.SearchInts(ys, year)
	return i < len(ys) && ys[i] == year
}

// First returns the earliest year, or 0 for an empty set.
func (ys YearSet) First() int {
	if len(ys) == 0 {
		return 0
	}
	return ys[0]
}

// Last returns the most recent year, or 0 for an empty set.
func (ys YearSet) Last() int {
	if len(ys) == 0 {
		return 0
	}
	return ys[len(ys)-1]
}

// Dataset is the normalized table produced by one load. It must be treated
// as read-only once built; concurrent queries share it without locking.
type Dataset struct {
	Rows  []Row
	Years YearSet
}

// Lookup returns the first row matching key in load order.
func (d *Dataset) Lookup(key Key) (Row, bool) {
	for _, r := range d.Rows {
		if r.Key == key {
			return r, true
		}
	}
	return Row{}, false
}

// Zones lists the distinct zones, sorted.
func (d *Dataset) Zones() []string {
	return d.distinct(func(r Row) (string, bool) { return r.Zone, true })
}

// Buildings lists the distinct buildings within zone, sorted.
func (d *Dataset) Buildings(zone string) []string {
	return d.distinct(func(r Row) (string, bool) { return r.Building, r.Zone == zone })
}

// SizeClasses lists the distinct non-empty size classes of a building, sorted.
func (d *Dataset) SizeClasses(zone, building string) []string {
	return d.distinct(func(r Row) (string, bool) {
		return r.SizeClass, r.Zone == zone && r.Building == building && r.SizeClass != ""
	})
}

// Blocks lists the distinct blocks of a building, ascending.
func (d *Dataset) Blocks(zone, building string) []int {
	return d.distinctInt(func(r Row) (int, bool) {
		return r.Block, r.Zone == zone && r.Building == building
	})
}

// Units lists the distinct units of a block, ascending.
func (d *Dataset) Units(zone, building string, block int) []int {
	return d.distinctInt(func(r Row) (int, bool) {
		return r.Unit, r.Zone == zone && r.Building == building && r.Block == block
	})
}

func (d *Dataset) distinct(pick func(Row) (string, bool)) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range d.Rows {
		v, ok := pick(r)
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (d *Dataset) distinctInt(pick func(Row) (int, bool)) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, r := range d.Rows {
		v, ok := pick(r)
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
