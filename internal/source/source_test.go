package source

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"google.golang.org/api/option"

	"valuerank/internal/config"
	"valuerank/internal/ingest"
	"valuerank/internal/types"
)

// sheetRows mimics the hosted sheet: a title row, then the header.
var sheetRows = [][]string{
	{"재건축 공시가격", "", "", "", "", ""},
	{"구역", "단지명", "동", "호", "2016", "2017"},
	{"1구역", "미성", "1", "101", "512,000,000", "530,000,000"},
	{"1구역", "미성", "1", "102", "498,000,000", ""},
	{"2구역", "현대", "3", "301", "610,000,000", "640,000,000"},
}

func createTestXLSX(t *testing.T, sheets map[string][][]string, order ...string) string {
	t.Helper()
	f := xlsx.NewFile()
	for _, name := range order {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range sheets[name] {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "valuations.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestXLSX_Fetch(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sheet1": sheetRows}, "Sheet1")

	grid, err := (&XLSX{Path: path}).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, grid, len(sheetRows))
	assert.Equal(t, sheetRows[1], grid[1])
	assert.Equal(t, "512,000,000", grid[2][4])
}

func TestXLSX_SheetSelection(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Notes": {{"read me"}},
		"Data":  sheetRows,
	}, "Notes", "Data")

	grid, err := (&XLSX{Path: path, SheetName: "Data"}).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, grid, len(sheetRows))

	grid, err = (&XLSX{Path: path, SheetIndex: 1}).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, grid, len(sheetRows))

	_, err = (&XLSX{Path: path, SheetName: "Missing"}).Fetch(context.Background())
	assert.Error(t, err)
	_, err = (&XLSX{Path: path, SheetIndex: 5}).Fetch(context.Background())
	assert.Error(t, err)
}

func TestXLSX_MissingFile(t *testing.T) {
	_, err := (&XLSX{Path: filepath.Join(t.TempDir(), "nope.xlsx")}).Fetch(context.Background())
	assert.Error(t, err)
}

func TestDelimited_Fetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.txt")
	body := "\ufeffzone|building|block|unit|2016\n" +
		"A|B|1|101|\"1,000\"\n" +
		"A|B|1|102\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	grid, err := (&Delimited{Path: path, Comma: '|'}).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, grid, 3)
	assert.Equal(t, "zone", grid[0][0])
	assert.Equal(t, "1,000", grid[1][4])
	assert.Len(t, grid[2], 4)
}

func TestDelimited_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := readDelimited(ctx, strings.NewReader("a,b\n"), ',')
	assert.Error(t, err)
}

func TestParseDelimiter(t *testing.T) {
	for in, want := range map[string]rune{"": ',', ",": ',', "|": '|', "tab": '\t', ";": ';'} {
		got, err := parseDelimiter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseDelimiter("||")
	assert.Error(t, err)
	_, err = parseDelimiter(`"`)
	assert.Error(t, err)
}

func sheetsServer(t *testing.T, gotRange *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.URL.Path, "/values/") {
			*gotRange = r.URL.Path[strings.Index(r.URL.Path, "/values/")+len("/values/"):]
			values := make([][]any, len(sheetRows))
			for i, row := range sheetRows {
				for _, c := range row {
					values[i] = append(values[i], c)
				}
			}
			json.NewEncoder(w).Encode(map[string]any{"range": *gotRange, "majorDimension": "ROWS", "values": values})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"sheets": []any{
				map[string]any{"properties": map[string]any{"sheetId": 0, "title": "Cover"}},
				map[string]any{"properties": map[string]any{"sheetId": 42, "title": "Kim's data"}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSheets_FetchByGID(t *testing.T) {
	var gotRange string
	srv := sheetsServer(t, &gotRange)

	svc, err := NewSheetsService(context.Background(), "", option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	require.NoError(t, err)

	src := &Sheets{Service: svc, SpreadsheetID: "sheet-id", GID: 42}
	grid, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "'Kim''s data'", gotRange)
	require.Len(t, grid, len(sheetRows))
	assert.Equal(t, sheetRows[1], grid[1])
}

func TestSheets_UnknownGIDFallsBackToFirst(t *testing.T) {
	var gotRange string
	srv := sheetsServer(t, &gotRange)

	svc, err := NewSheetsService(context.Background(), "", option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	require.NoError(t, err)

	title, err := WorksheetTitle(context.Background(), svc, "sheet-id", 7)
	require.NoError(t, err)
	assert.Equal(t, "Cover", title)
}

func spreadsheetServer(t *testing.T, sheets []any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWorksheetTitle_SkipsSheetsWithoutProperties(t *testing.T) {
	srv := spreadsheetServer(t, []any{
		map[string]any{},
		map[string]any{"properties": map[string]any{"sheetId": 3, "title": "Data"}},
	})
	svc, err := NewSheetsService(context.Background(), "", option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	require.NoError(t, err)

	title, err := WorksheetTitle(context.Background(), svc, "sheet-id", 7)
	require.NoError(t, err)
	assert.Equal(t, "Data", title)

	srv = spreadsheetServer(t, []any{map[string]any{}})
	svc, err = NewSheetsService(context.Background(), "", option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	require.NoError(t, err)

	_, err = WorksheetTitle(context.Background(), svc, "sheet-id", 7)
	assert.Error(t, err)
}

func TestValuesToGrid(t *testing.T) {
	grid := valuesToGrid([][]interface{}{{"a", float64(2016), nil}, {}})
	assert.Equal(t, [][]string{{"a", "2016", ""}, {}}, grid)
}

type fakeQuerier struct {
	grid  [][]string
	err   error
	query string
}

func (f *fakeQuerier) QueryGrid(_ context.Context, query string, _ ...any) ([][]string, error) {
	f.query = query
	return f.grid, f.err
}

func TestOracle_Fetch(t *testing.T) {
	q := &fakeQuerier{grid: sheetRows[1:]}
	src := &Oracle{DB: q, Query: "SELECT * FROM VALUATIONS"}

	grid, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM VALUATIONS", q.query)
	assert.Len(t, grid, 4)

	_, err = (&Oracle{DB: &fakeQuerier{err: errors.New("ORA-12541")}}).Fetch(context.Background())
	assert.Error(t, err)
}

func TestLoad_EndToEnd(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sheet1": sheetRows}, "Sheet1")

	ds, err := Load(context.Background(), &XLSX{Path: path}, ingest.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, types.YearSet{2016, 2017}, ds.Years)
	assert.Len(t, ds.Rows, 3)
	assert.Equal(t, []string{"1구역", "2구역"}, ds.Zones())

	row, ok := ds.Lookup(types.Key{Zone: "1구역", Building: "미성", Block: 1, Unit: 101})
	require.True(t, ok)
	v, ok := row.Value(2016)
	require.True(t, ok)
	assert.Equal(t, 512000000.0, v)
}

func TestLoad_SchemaErrorSurvivesWrapping(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sheet1": {{"foo", "2016"}, {"x", "1"}}}, "Sheet1")

	_, err := Load(context.Background(), &XLSX{Path: path}, ingest.DefaultOptions())
	var se *types.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Contains(t, se.Missing, "zone")
}

func TestOpen(t *testing.T) {
	cfg := &config.Config{Source: config.SourceConfig{Kind: "csv", Path: "a.csv", Delimiter: "|"}}
	src, closeFn, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer closeFn()
	d, ok := src.(*Delimited)
	require.True(t, ok)
	assert.Equal(t, '|', d.Comma)

	cfg.Source = config.SourceConfig{Kind: "xlsx", Path: "a.xlsx", SheetName: "Data"}
	src, _, err = Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "xlsx:a.xlsx", src.Name())

	cfg.Source = config.SourceConfig{Kind: "parquet"}
	_, _, err = Open(context.Background(), cfg)
	assert.Error(t, err)
}
