package main

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"

	"valuerank/internal/comparable"
	"valuerank/internal/config"
	"valuerank/internal/types"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"list", "rank", "report", "compare", "series", "export", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "valuerank", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("file"))
}

func TestCommandFlags(t *testing.T) {
	for _, c := range []*cobra.Command{rankCmd, reportCmd, compareCmd, listCmd} {
		for _, name := range []string{"zone", "building", "block", "format"} {
			assert.NotNil(t, c.Flags().Lookup(name), "%s --%s", c.Name(), name)
		}
	}
	for _, name := range []string{"mode", "base-year", "latest-year", "breadth"} {
		assert.NotNil(t, compareCmd.Flags().Lookup(name), "compare --%s", name)
		assert.NotNil(t, exportCmd.Flags().Lookup(name), "export --%s", name)
	}

	flag := exportCmd.Flags().Lookup("output")
	require.NotNil(t, flag)
	assert.Equal(t, "ranks.xlsx", flag.DefValue)

	flag = serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "0", flag.DefValue)
}

func TestCompareHelp_DescribesBreadthAfterQualifying(t *testing.T) {
	long := compareCmd.Long
	collect := strings.Index(long, "first collects every")
	breadth := strings.Index(long, "keeps the\n--breadth units closest")
	require.NotEqual(t, -1, collect)
	require.NotEqual(t, -1, breadth)
	assert.Less(t, collect, breadth)
}

func TestApplySourceFile(t *testing.T) {
	c := &config.Config{}
	applySourceFile(c, "data/grid.CSV")
	assert.Equal(t, "csv", c.Source.Kind)
	assert.Equal(t, "data/grid.CSV", c.Source.Path)

	c = &config.Config{}
	applySourceFile(c, "export.txt")
	assert.Equal(t, "csv", c.Source.Kind)
	assert.Equal(t, "|", c.Source.Delimiter)

	c = &config.Config{}
	applySourceFile(c, "valuations.xlsx")
	assert.Equal(t, "xlsx", c.Source.Kind)
}

func TestSelectionFlags(t *testing.T) {
	f := selectionFlags{zone: "1구역", building: "미성", block: "1"}
	sel, err := f.selection()
	require.NoError(t, err)
	assert.Equal(t, types.LevelUnit, sel.Next())

	f.unit = "101"
	sel, err = f.selection()
	require.NoError(t, err)
	key, ok := sel.Key()
	require.True(t, ok)
	assert.Equal(t, types.Key{Zone: "1구역", Building: "미성", Block: 1, Unit: 101}, key)

	f.block = "first"
	_, err = f.selection()
	assert.Error(t, err)
}

func TestResolveKey_NonInteractive(t *testing.T) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		t.Skip("stdin is a terminal; resolveKey would prompt")
	}
	ds := testDataset()

	f := selectionFlags{zone: "A", building: "b", block: "1"}
	_, err := f.resolveKey(ds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--unit is required")
	assert.Contains(t, err.Error(), "1, 2")

	f = selectionFlags{zone: "Z", building: "b", block: "1"}
	_, err = f.resolveKey(ds)
	assert.True(t, types.IsNotFound(err))

	f = selectionFlags{zone: "A", building: "b", block: "1", unit: "2"}
	key, err := f.resolveKey(ds)
	require.NoError(t, err)
	assert.Equal(t, 2, key.Unit)
}

func TestQueryFlags(t *testing.T) {
	cfg = &config.Config{Compare: config.CompareConfig{Mode: "inversion", SearchBreadth: 30, BaseYear: 2016}}
	t.Cleanup(func() { cfg = nil })

	cmd := &cobra.Command{Use: "x"}
	var f queryFlags
	f.register(cmd)

	q, err := f.query(cmd)
	require.NoError(t, err)
	assert.Equal(t, comparable.Query{Mode: comparable.ModeInversion, BaseYear: 2016, Breadth: 30}, q)

	require.NoError(t, cmd.Flags().Parse([]string{"--mode", "simple", "--breadth", "0", "--latest-year", "2020"}))
	q, err = f.query(cmd)
	require.NoError(t, err)
	assert.Equal(t, comparable.Query{Mode: comparable.ModeSimple, BaseYear: 2016, LatestYear: 2020, Breadth: 0}, q)

	require.NoError(t, cmd.Flags().Parse([]string{"--mode", "nearest"}))
	_, err = f.query(cmd)
	assert.Error(t, err)
}

func TestParseGroup(t *testing.T) {
	g, err := parseGroup("1구역/미성")
	require.NoError(t, err)
	assert.Empty(t, g.SizeClass)

	g, err = parseGroup(" 1구역 / 미성 / 32평 ")
	require.NoError(t, err)
	assert.Equal(t, "32평", g.SizeClass)

	for _, bad := range []string{"1구역", "1구역//32평", "a/b/c/d", ""} {
		_, err := parseGroup(bad)
		assert.Error(t, err, bad)
	}
}

func TestWindow(t *testing.T) {
	first, last := window(0, 5, 20)
	assert.Equal(t, []int{0, 5}, []int{first, last})

	first, last = window(50, 100, 20)
	assert.Equal(t, []int{40, 60}, []int{first, last})

	first, last = window(99, 100, 20)
	assert.Equal(t, []int{80, 100}, []int{first, last})

	first, last = window(3, 100, 20)
	assert.Equal(t, []int{0, 20}, []int{first, last})
}

func TestWriteOutput(t *testing.T) {
	v := map[string]any{"zone": "1구역", "rank": 3}

	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, "json", v, nil))
	assert.Contains(t, buf.String(), `"zone": "1구역"`)

	buf.Reset()
	require.NoError(t, writeOutput(&buf, "YAML", v, nil))
	assert.Contains(t, buf.String(), "rank: 3")

	buf.Reset()
	called := false
	require.NoError(t, writeOutput(&buf, "", v, func(w io.Writer) error {
		called = true
		_, err := io.WriteString(w, "table")
		return err
	}))
	assert.True(t, called)
	assert.Equal(t, "table", buf.String())

	assert.Error(t, writeOutput(&buf, "xml", v, nil))
}

func TestParseFormat(t *testing.T) {
	f, err := parseFormat(" Table ")
	require.NoError(t, err)
	assert.Equal(t, formatTable, f)

	_, err = parseFormat("xml")
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "xml"))
}
