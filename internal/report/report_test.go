package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuerank/internal/comparable"
	"valuerank/internal/types"
)

func key(zone string, unit int) types.Key {
	return types.Key{Zone: zone, Building: "b", Block: 1, Unit: unit}
}

func dataset() *types.Dataset {
	mk := func(zone string, unit int, vals map[int]float64) types.Row {
		return types.Row{Key: key(zone, unit), Values: vals}
	}
	return &types.Dataset{
		Years: types.YearSet{2016, 2017, 2018},
		Rows: []types.Row{
			mk("A", 1, map[int]float64{2016: 12, 2017: 13, 2018: 14}),
			mk("A", 2, map[int]float64{2016: 10, 2018: 20}),
			mk("B", 1, map[int]float64{2016: 11.5, 2018: 15}),
			mk("B", 2, map[int]float64{2016: 15, 2017: 16, 2018: 17}),
			mk("C", 1, map[int]float64{2017: 1}),
		},
	}
}

func TestBuild_WithComparable(t *testing.T) {
	rep, err := Build(dataset(), key("A", 1), comparable.Query{Mode: comparable.ModeSimple})
	require.NoError(t, err)

	assert.Len(t, rep.Ranks, 3)
	require.NotNil(t, rep.Comparable)
	assert.Equal(t, key("B", 1), rep.Comparable.Candidate)
	assert.Equal(t, 2016, rep.Comparable.BaseYear)

	require.Len(t, rep.Prices, 2)
	assert.Equal(t, []int{2016, 2018}, rep.Prices[0].Years)
	assert.Equal(t, []float64{12, 14}, rep.Prices[0].Values)
	assert.Equal(t, []float64{11.5, 15}, rep.Prices[1].Values)
	assert.Equal(t, Disclaimer, rep.Disclaimer)

	latest, ok := rep.Latest()
	require.True(t, ok)
	assert.Equal(t, 2018, latest.Year)
}

func TestBuild_NoComparableDegrades(t *testing.T) {
	rep, err := Build(dataset(), key("C", 1), comparable.Query{Mode: comparable.ModeSimple})
	require.NoError(t, err)

	assert.Nil(t, rep.Comparable)
	assert.NotEmpty(t, rep.ComparableNote)
	require.Len(t, rep.Prices, 1)
	assert.Equal(t, []int{2017}, rep.Prices[0].Years)
}

func TestBuild_InversionMode(t *testing.T) {
	// 2016 global: B2 1, A1 2, B1 3, A2 4. 2018 global: A2 1, B2 2, B1 3, A1 4.
	rep, err := Build(dataset(), key("A", 1), comparable.Query{Mode: comparable.ModeInversion})
	require.NoError(t, err)
	require.NotNil(t, rep.Comparable)
	assert.Equal(t, key("B", 1), rep.Comparable.Candidate)
	assert.Equal(t, 2018, rep.Comparable.LatestYear)
	require.NotNil(t, rep.Comparable.RankSwing)
}

func TestBuild_NotFound(t *testing.T) {
	_, err := Build(dataset(), key("Z", 1), comparable.Query{})
	assert.True(t, types.IsNotFound(err))
}

func TestParseMode(t *testing.T) {
	m, err := comparable.ParseMode(" Inversion ")
	require.NoError(t, err)
	assert.Equal(t, comparable.ModeInversion, m)

	_, err = comparable.ParseMode("nearest")
	assert.Error(t, err)
}
