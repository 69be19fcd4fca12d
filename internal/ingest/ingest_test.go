package ingest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuerank/internal/types"
)

func sampleGrid() [][]string {
	return [][]string{
		{"공시가격 (단위: 억)", "", "", "", "", "", ""},
		{"구역", "단지명", "동", "호", "2016", "2017", "2018"},
		{"1구역", "미성", "1", "101", "10.5", "11,000", ""},
		{"1구역", "미성", "1", "102", "9", "", "12"},
		{"2구역", "현대", "3", "301", "8", "9", "10"},
	}
}

func TestDetectHeader_SkipsBanner(t *testing.T) {
	assert.Equal(t, 1, DetectHeader(sampleGrid(), 50))
}

func TestDetectHeader_FallsBackToFirstRow(t *testing.T) {
	grid := [][]string{{"a", "b"}, {"c", "d"}}
	assert.Equal(t, 0, DetectHeader(grid, 50))
}

func TestDetectHeader_RespectsScanLimit(t *testing.T) {
	grid := [][]string{{"x"}, {"x"}, {"zone", "building", "block", "unit"}}
	assert.Equal(t, 0, DetectHeader(grid, 2))
	assert.Equal(t, 2, DetectHeader(grid, 3))
}

func TestDetectHeader_AliasSet(t *testing.T) {
	grid := [][]string{{"notes"}, {"Address", "Building", "Block", "Unit", "2020"}}
	assert.Equal(t, 1, DetectHeader(grid, 50))
}

func TestDetectHeader_MixedAliases(t *testing.T) {
	grid := [][]string{
		{"Assessed prices, 2024 edition"},
		{"zone", "complex", "block", "unit", "2016"},
		{"A", "X", "1", "101", "10"},
	}
	assert.Equal(t, 1, DetectHeader(grid, 50))

	ds, err := Load(grid, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, ds.Rows, 1)
	assert.Equal(t, types.Key{Zone: "A", Building: "X", Block: 1, Unit: 101}, ds.Rows[0].Key)

	grid[1] = []string{"구역", "building", "동", "Unit", "2016"}
	ds, err = Load(grid, DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, ds.Rows, 1)
}

func TestCleanHeader(t *testing.T) {
	assert.Equal(t, "공시 가격", CleanHeader("  공시\n가격 "))
	assert.Equal(t, "a b", CleanHeader("a\r\nb"))
	// NFD hangul is recomposed so it matches the canonical names.
	assert.Equal(t, "구역", CleanHeader("\u1100\u116e\u110b\u1167\u11a8"))
}

func TestYearOf(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"2016", 2016, true},
		{" 2020 ", 2020, true},
		{"2016.0", 2016, true},
		{"2016.5", 0, false},
		{"201", 0, false},
		{"20160", 0, false},
		{"year", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := YearOf(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestDetectYears_BoundsAndDuplicates(t *testing.T) {
	years := DetectYears([]string{"zone", "2009", "2016", "2016.0", "2101", "2017"}, 2010, 2100)
	assert.Equal(t, map[int]int{2016: 2, 2017: 5}, years)
}

func TestNormalize_CanonicalColumns(t *testing.T) {
	tbl, err := Normalize(sampleGrid(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"zone", "building", "block", "unit", "2016", "2017", "2018"}, tbl.Columns)
	assert.Len(t, tbl.Rows, 3)
	assert.Equal(t, []int{2016, 2017, 2018}, tbl.YearList())
}

func TestNormalize_AddressAliasOnlyWithoutZone(t *testing.T) {
	grid := [][]string{{"address", "building", "block", "unit", "2016"}, {"a", "b", "1", "1", "5"}}
	tbl, err := Normalize(grid, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Index(ColZone))

	grid = [][]string{{"zone", "address", "building", "block", "unit", "2016"}, {"z", "a", "b", "1", "1", "5"}}
	tbl, err = Normalize(grid, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Index(ColZone))
	assert.Equal(t, 1, tbl.Index("address"))
}

func TestNormalize_Placeholders(t *testing.T) {
	grid := [][]string{
		{"zone", "", "building", "block", "unit", "", "2016"},
		{"z", "", "b", "1", "1", "note", "5"},
	}
	tbl, err := Normalize(grid, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"zone", "building", "block", "unit", "Unnamed: 5", "2016"}, tbl.Columns)
	assert.Equal(t, []string{"z", "b", "1", "1", "note", "5"}, tbl.Rows[0])
}

func TestNormalize_DuplicateNames(t *testing.T) {
	grid := [][]string{{"zone", "building", "block", "unit", "memo", "memo", "2016"}}
	tbl, err := Normalize(grid, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"zone", "building", "block", "unit", "memo", "memo.1", "2016"}, tbl.Columns)
}

func TestNormalize_ShortRowsArePadded(t *testing.T) {
	grid := [][]string{{"zone", "building", "block", "unit", "2016"}, {"z", "b", "1"}}
	tbl, err := Normalize(grid, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "b", "1", "", ""}, tbl.Rows[0])
}

func TestNormalize_SchemaError(t *testing.T) {
	grid := [][]string{{"zone", "building", "2016"}, {"z", "b", "1"}}
	_, err := Normalize(grid, DefaultOptions())

	var se *types.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"block", "unit"}, se.Missing)
	assert.Equal(t, []string{"zone", "building", "2016"}, se.Present)
	assert.Contains(t, err.Error(), "block, unit")
}

func TestNormalize_EmptyGrid(t *testing.T) {
	_, err := Normalize(nil, DefaultOptions())
	var se *types.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, Required, se.Missing)
}

func TestParseKeyInt(t *testing.T) {
	n, ok := ParseKeyInt(" 101 ")
	assert.True(t, ok)
	assert.Equal(t, 101, n)

	n, ok = ParseKeyInt("101.0")
	assert.True(t, ok)
	assert.Equal(t, 101, n)

	for _, bad := range []string{"", "101동", "1.5", "nan"} {
		_, ok = ParseKeyInt(bad)
		assert.False(t, ok, bad)
	}
}

func TestValidate_DropsIncompleteRows(t *testing.T) {
	grid := [][]string{
		{"zone", "building", "block", "unit", "size", "2016"},
		{"z1", "b1", "1", "101", "35", "5"},
		{"", "b1", "1", "102", "", "5"},
		{"NaN", "b1", "1", "103", "", "5"},
		{"z1", "nan", "1", "104", "", "5"},
		{"z1", "b1", "x", "105", "", "5"},
		{"z1", "b1", "1", "", "", "5"},
		{" z2 ", " b2 ", "2.0", "201", "", "5"},
	}
	tbl, err := Normalize(grid, DefaultOptions())
	require.NoError(t, err)

	recs := Validate(tbl, 0)
	require.Len(t, recs, 2)
	assert.Equal(t, types.Key{Zone: "z1", Building: "b1", Block: 1, Unit: 101}, recs[0].Key)
	assert.Equal(t, "35", recs[0].SizeClass)
	assert.Equal(t, types.Key{Zone: "z2", Building: "b2", Block: 2, Unit: 201}, recs[1].Key)
}

func TestValidate_MaxRows(t *testing.T) {
	tbl, err := Normalize(sampleGrid(), DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, Validate(tbl, 2), 2)
	assert.Len(t, Validate(tbl, 0), 3)
}

func TestParseValuation(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12.5", 12.5, true},
		{" 1,234,567 ", 1234567, true},
		{"0", 0, true},
		{"₩1,000", 1000, true},
		{"1,000원", 1000, true},
		{"￦ 2,500", 2500, true},
		{"원", 0, false},
		{"1\u00a0234", 1234, true},
		{"", 0, false},
		{"  ", 0, false},
		{"nan", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"-", 0, false},
		{"n/a", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseValuation(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseValuation_RoundTrip(t *testing.T) {
	for _, in := range []string{"10.5", "11,000", "0", "0.1", "123456789.125", "1e3"} {
		v, ok := ParseValuation(in)
		require.True(t, ok, in)
		again, ok := ParseValuation(FormatValuation(v))
		require.True(t, ok, in)
		assert.Equal(t, v, again, in)
	}
}

func TestLoad_Sample(t *testing.T) {
	ds, err := Load(sampleGrid(), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, types.YearSet{2016, 2017, 2018}, ds.Years)
	require.Len(t, ds.Rows, 3)

	r := ds.Rows[0]
	assert.Equal(t, map[int]float64{2016: 10.5, 2017: 11000}, r.Values)
	_, ok := r.Value(2018)
	assert.False(t, ok)
}

func TestLoad_EmptyYearColumnExcluded(t *testing.T) {
	grid := [][]string{
		{"zone", "building", "block", "unit", "2016", "2017"},
		{"z", "b", "1", "1", "5", ""},
		{"z", "b", "1", "2", "6", " "},
	}
	ds, err := Load(grid, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, types.YearSet{2016}, ds.Years)
}

func TestLoad_NoYearColumns(t *testing.T) {
	grid := [][]string{{"zone", "building", "block", "unit", "memo"}, {"z", "b", "1", "1", "x"}}
	_, err := Load(grid, DefaultOptions())

	var ye *types.NoYearColumnsError
	require.True(t, errors.As(err, &ye))
	assert.Empty(t, ye.Detected)
}

func TestLoad_AllYearColumnsEmpty(t *testing.T) {
	grid := [][]string{{"zone", "building", "block", "unit", "2016"}, {"z", "b", "1", "1", ""}}
	_, err := Load(grid, DefaultOptions())

	var ye *types.NoYearColumnsError
	require.True(t, errors.As(err, &ye))
	assert.Equal(t, []int{2016}, ye.Detected)
}

func TestLoad_SchemaErrorTakesPrecedence(t *testing.T) {
	_, err := Load([][]string{{"memo"}}, DefaultOptions())
	var se *types.SchemaError
	assert.True(t, errors.As(err, &se))
}
