package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"valuerank/internal/comparable"
	"valuerank/internal/rank"
	"valuerank/internal/types"
)

var (
	exportOutput string
	exportQuery  queryFlags
	exportYear   int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every unit's ranks and comparable to an xlsx or csv file",
	Long: `Ranks every unit for one year (default: the last year in the sheet) and
searches a comparable for each, several units at a time. The output format
follows the file extension.

Examples:
  valuerank export --output ranks.xlsx
  valuerank export --output ranks.csv --year 2020 --mode simple`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "export"))
		start := time.Now()

		ds, err := loadDataset(ctx)
		if err != nil {
			return err
		}
		q, err := exportQuery.query(cmd)
		if err != nil {
			return err
		}

		year := exportYear
		if year == 0 {
			year = ds.Years.Last()
		}
		if !ds.Years.Contains(year) {
			return fmt.Errorf("year %d is not in the sheet (years: %v)", year, ds.Years)
		}

		rows, err := buildExport(ctx, ds, year, q, cfg.Export.Concurrency)
		if err != nil {
			return err
		}

		if err := writeExport(exportOutput, rows); err != nil {
			return err
		}

		log.Info("export complete",
			zap.String("output", exportOutput),
			zap.Int("rows", len(rows)),
			zap.Int("year", year),
			zap.Duration("elapsed", time.Since(start).Truncate(time.Millisecond)),
		)
		return nil
	},
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportOutput, "output", "ranks.xlsx", "output file (.xlsx or .csv)")
	f.IntVar(&exportYear, "year", 0, "rank year (default: last year in the sheet)")
	exportQuery.register(exportCmd)
	rootCmd.AddCommand(exportCmd)
}

// exportRow is one unit's line in the export.
type exportRow struct {
	Unit       types.Key
	SizeClass  string
	Year       int
	Valuation  string
	ZoneRank   string
	GlobalRank string
	Comparable string
	Diff       string
	RankSwing  string
}

var exportHeader = []string{
	"zone", "building", "block", "unit", "size",
	"year", "valuation", "zone_rank", "global_rank",
	"comparable", "base_year_diff", "rank_swing",
}

func (r exportRow) record() []string {
	return []string{
		r.Unit.Zone, r.Unit.Building, strconv.Itoa(r.Unit.Block), strconv.Itoa(r.Unit.Unit), r.SizeClass,
		strconv.Itoa(r.Year), r.Valuation, r.ZoneRank, r.GlobalRank,
		r.Comparable, r.Diff, r.RankSwing,
	}
}

// buildExport ranks year once and searches comparables with at most limit
// units in flight. Output follows dataset row order.
func buildExport(ctx context.Context, ds *types.Dataset, year int, q comparable.Query, limit int) ([]exportRow, error) {
	ranked := make(map[int]rank.TableEntry)
	index := make(map[types.Key]int, len(ds.Rows))
	for i, row := range ds.Rows {
		if _, dup := index[row.Key]; !dup {
			index[row.Key] = i
		}
	}
	for _, e := range rank.New(ds).Table(year) {
		if i, ok := index[e.Key]; ok {
			if _, seen := ranked[i]; !seen {
				ranked[i] = e
			}
		}
	}

	finder := comparable.New(ds)
	rows := make([]exportRow, len(ds.Rows))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, row := range ds.Rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out := exportRow{Unit: row.Key, SizeClass: row.SizeClass, Year: year}
			if e, ok := ranked[i]; ok {
				out.Valuation = strconv.FormatFloat(e.Valuation, 'f', -1, 64)
				out.ZoneRank = e.Zone.Text()
				out.GlobalRank = e.Global.Text()
			}

			res, err := finder.Find(row.Key, q)
			switch {
			case types.IsEmptyResult(err):
			case err != nil:
				return eris.Wrapf(err, "export: comparable for %s", row.Key)
			default:
				out.Comparable = res.Candidate.String()
				out.Diff = strconv.FormatFloat(res.BaseYearDiff, 'f', -1, 64)
				if res.RankSwing != nil {
					out.RankSwing = strconv.FormatFloat(*res.RankSwing, 'f', -1, 64)
				}
			}
			rows[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func writeExport(path string, rows []exportRow) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return eris.Wrap(err, "export: create directory")
		}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return writeExportXLSX(path, rows)
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrap(err, "export: create file")
		}
		defer f.Close()
		return writeExportCSV(f, rows)
	}
	return fmt.Errorf("export: unsupported output %q (want .xlsx or .csv)", path)
}

func writeExportCSV(w io.Writer, rows []exportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

func writeExportXLSX(path string, rows []exportRow) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("ranks")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range exportHeader {
		header.AddCell().SetString(h)
	}
	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range r.record() {
			row.AddCell().SetString(v)
		}
	}

	return eris.Wrap(f.Save(path), "export: save xlsx")
}
