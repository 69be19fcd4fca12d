package types

import "fmt"

// Scope selects the pool a rank was computed over.
type Scope string

const (
	ScopeZone   Scope = "zone"
	ScopeGlobal Scope = "global"
)

// RankEntry is a competition rank within one (year, scope) pool.
type RankEntry struct {
	Year     int   `json:"year" yaml:"year"`
	Scope    Scope `json:"scope" yaml:"scope"`
	Rank     int   `json:"rank" yaml:"rank"`
	PoolSize int   `json:"pool_size" yaml:"pool_size"`
}

// Text renders the entry as "<rank>/<pool_size>".
func (e RankEntry) Text() string {
	return fmt.Sprintf("%d/%d", e.Rank, e.PoolSize)
}

// UnitRank is one year of a unit's standing, zone-local and global side by side.
type UnitRank struct {
	Year      int       `json:"year" yaml:"year"`
	Valuation float64   `json:"valuation" yaml:"valuation"`
	Zone      RankEntry `json:"zone_rank" yaml:"zone_rank"`
	Global    RankEntry `json:"global_rank" yaml:"global_rank"`
}

// ComparableResult pairs a unit with an out-of-zone counterpart.
// RankSwing and the rank deltas are only set by the inversion search.
type ComparableResult struct {
	BaseUnit        Key      `json:"base_unit" yaml:"base_unit"`
	BaseYear        int      `json:"base_year" yaml:"base_year"`
	Candidate       Key      `json:"candidate_unit" yaml:"candidate_unit"`
	CandidateZone   string   `json:"candidate_zone" yaml:"candidate_zone"`
	BaseYearDiff    float64  `json:"base_year_diff" yaml:"base_year_diff"`
	RankSwing       *float64 `json:"rank_swing,omitempty" yaml:"rank_swing,omitempty"`
	LatestYear      int      `json:"latest_year,omitempty" yaml:"latest_year,omitempty"`
	RankDeltaBase   int      `json:"rank_delta_base,omitempty" yaml:"rank_delta_base,omitempty"`
	RankDeltaLatest int      `json:"rank_delta_latest,omitempty" yaml:"rank_delta_latest,omitempty"`
}
