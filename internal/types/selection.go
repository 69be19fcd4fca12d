package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Level names the next field a Selection needs.
type Level string

const (
	LevelZone     Level = "zone"
	LevelBuilding Level = "building"
	LevelBlock    Level = "block"
	LevelUnit     Level = "unit"
	LevelDone     Level = ""
)

// Selection is a possibly partial choice of zone, building, block and unit.
// It carries no step state; callers fill fields in any order and ask for the
// options of the first unset level.
type Selection struct {
	Zone     string `json:"zone,omitempty"`
	Building string `json:"building,omitempty"`
	Block    *int   `json:"block,omitempty"`
	Unit     *int   `json:"unit,omitempty"`
}

// Next returns the first level that is not filled in.
func (s Selection) Next() Level {
	switch {
	case s.Zone == "":
		return LevelZone
	case s.Building == "":
		return LevelBuilding
	case s.Block == nil:
		return LevelBlock
	case s.Unit == nil:
		return LevelUnit
	}
	return LevelDone
}

// Key returns the total key when every level is set.
func (s Selection) Key() (Key, bool) {
	if s.Next() != LevelDone {
		return Key{}, false
	}
	return Key{Zone: s.Zone, Building: s.Building, Block: *s.Block, Unit: *s.Unit}, true
}

// With returns a copy of s with level set to value. Block and unit values
// must be integers.
func (s Selection) With(level Level, value string) (Selection, error) {
	value = strings.TrimSpace(value)
	switch level {
	case LevelZone:
		s.Zone = value
	case LevelBuilding:
		s.Building = value
	case LevelBlock, LevelUnit:
		n, err := strconv.Atoi(value)
		if err != nil {
			return s, fmt.Errorf("%s must be an integer, got %q", level, value)
		}
		if level == LevelBlock {
			s.Block = &n
		} else {
			s.Unit = &n
		}
	default:
		return s, fmt.Errorf("unknown selection level %q", level)
	}
	return s, nil
}

// Choices returns the level still to be chosen and its options as display
// strings. A complete selection yields LevelDone and no options.
func (d *Dataset) Choices(s Selection) (Level, []string) {
	switch lvl := s.Next(); lvl {
	case LevelZone:
		return lvl, d.Zones()
	case LevelBuilding:
		return lvl, d.Buildings(s.Zone)
	case LevelBlock:
		return lvl, itoa(d.Blocks(s.Zone, s.Building))
	case LevelUnit:
		return lvl, itoa(d.Units(s.Zone, s.Building, *s.Block))
	}
	return LevelDone, nil
}

func itoa(vals []int) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strconv.Itoa(v)
	}
	return out
}
