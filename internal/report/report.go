// Package report assembles everything shown for one selected unit: its rank
// history in both scopes, an out-of-zone comparable and the aligned price
// series of the two.
package report

import (
	"valuerank/internal/comparable"
	"valuerank/internal/rank"
	"valuerank/internal/series"
	"valuerank/internal/types"
)

// Disclaimer accompanies every report.
const Disclaimer = "Rankings are computed from officially assessed prices (2016 onward) " +
	"and may differ from the appraisal values used in a redevelopment."

// Report is the inspection view of one unit.
type Report struct {
	Unit           types.Key               `json:"unit" yaml:"unit"`
	Years          types.YearSet           `json:"years" yaml:"years"`
	Ranks          []types.UnitRank        `json:"ranks" yaml:"ranks"`
	Comparable     *types.ComparableResult `json:"comparable" yaml:"comparable"`
	ComparableNote string                  `json:"comparable_note,omitempty" yaml:"comparable_note,omitempty"`
	Prices         []series.Series         `json:"prices" yaml:"prices"`
	Disclaimer     string                  `json:"disclaimer" yaml:"disclaimer"`
}

// Build computes the report for key. A missing unit is an error; a search
// that finds no comparable only leaves Comparable nil with a note, and the
// price series then holds the unit alone.
func Build(ds *types.Dataset, key types.Key, q comparable.Query) (*Report, error) {
	ranks, err := rank.New(ds).Unit(key)
	if err != nil {
		return nil, err
	}
	unit, err := series.ForUnit(ds, key)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Unit:       key,
		Years:      ds.Years,
		Ranks:      ranks,
		Prices:     []series.Series{unit},
		Disclaimer: Disclaimer,
	}

	res, err := comparable.New(ds).Find(key, q)
	switch {
	case types.IsEmptyResult(err):
		rep.ComparableNote = err.Error()
		return rep, nil
	case err != nil:
		return nil, err
	}

	rep.Comparable = &res
	other, err := series.ForUnit(ds, res.Candidate)
	if err != nil {
		return nil, err
	}
	rep.Prices = series.Align(unit, other)
	return rep, nil
}

// Latest returns the unit's most recent rank entry, if any.
func (r *Report) Latest() (types.UnitRank, bool) {
	if len(r.Ranks) == 0 {
		return types.UnitRank{}, false
	}
	return r.Ranks[len(r.Ranks)-1], true
}
