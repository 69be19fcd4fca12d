package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"valuerank/internal/auditlog"
	"valuerank/internal/comparable"
	"valuerank/internal/rank"
	"valuerank/internal/report"
	"valuerank/internal/types"
)

var (
	rankSel    selectionFlags
	rankFormat string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Show a unit's zone and global rank for every year",
	Long: `Prints the unit's competition rank within its zone and across all zones
for each year it has an assessed value. Units without a value in a year are
left out of that year's pools.

Examples:
  valuerank rank --zone 1구역 --building 미성 --block 1 --unit 101
  valuerank rank --zone 1구역 --format json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "rank"))

		ds, err := loadDataset(ctx)
		if err != nil {
			return err
		}
		key, err := rankSel.resolveKey(ds)
		if err != nil {
			return err
		}

		ranks, err := rank.New(ds).Unit(key)
		if err != nil {
			return err
		}
		log.Debug("ranked unit", zap.String("unit", key.String()), zap.Int("years", len(ranks)))

		rec := openAudit(ctx)
		defer rec.Close()
		rec.Record(ctx, auditlog.DeviceCLI, key, auditlog.EventInspect)

		out := struct {
			Unit  types.Key        `json:"unit" yaml:"unit"`
			Ranks []types.UnitRank `json:"ranks" yaml:"ranks"`
		}{key, ranks}
		return writeOutput(os.Stdout, rankFormat, out, func(w io.Writer) error {
			return renderRanks(w, ranks, stdoutColor())
		})
	},
}

var (
	reportSel    selectionFlags
	reportQuery  queryFlags
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show ranks, an out-of-zone comparable and aligned prices for a unit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		ds, err := loadDataset(ctx)
		if err != nil {
			return err
		}
		key, err := reportSel.resolveKey(ds)
		if err != nil {
			return err
		}
		q, err := reportQuery.query(cmd)
		if err != nil {
			return err
		}

		rep, err := report.Build(ds, key, q)
		if err != nil {
			return err
		}

		rec := openAudit(ctx)
		defer rec.Close()
		rec.Record(ctx, auditlog.DeviceCLI, key, auditlog.EventInspect)

		return writeOutput(os.Stdout, reportFormat, rep, func(w io.Writer) error {
			return renderReport(w, rep, stdoutColor())
		})
	},
}

// runInteractive picks a unit with the arrow-key wizard and prints its
// report, repeating until the user quits.
func runInteractive(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("interactive mode needs a terminal; see valuerank --help for subcommands")
	}

	ds, err := loadDataset(ctx)
	if err != nil {
		return err
	}
	q, err := (&queryFlags{}).query(cmd)
	if err != nil {
		return err
	}

	rec := openAudit(ctx)
	defer rec.Close()

	for {
		key, ok := wizard(ds, types.Selection{})
		if !ok {
			return nil
		}
		rep, err := report.Build(ds, key, q)
		if err != nil {
			return err
		}
		rec.Record(ctx, auditlog.DeviceCLI, key, auditlog.EventInspect)

		if err := renderReport(os.Stdout, rep, stdoutColor()); err != nil {
			return err
		}
		if !waitForEnter() {
			return nil
		}
	}
}

// queryFlags holds the comparable search flags; unset flags fall back to
// the compare section of the config.
type queryFlags struct {
	mode    string
	base    int
	latest  int
	breadth int
}

func (f *queryFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.mode, "mode", "", "comparable search: simple or inversion (default from config)")
	fl.IntVar(&f.base, "base-year", 0, "base year (default: first year in the sheet)")
	fl.IntVar(&f.latest, "latest-year", 0, "latest year for inversion (default: last year in the sheet)")
	fl.IntVar(&f.breadth, "breadth", 0, "inversion: consider only the N closest candidates, 0 for all (default from config)")
}

func (f *queryFlags) query(cmd *cobra.Command) (comparable.Query, error) {
	mode := cfg.Compare.Mode
	if f.mode != "" {
		mode = f.mode
	}
	m, err := comparable.ParseMode(mode)
	if err != nil {
		return comparable.Query{}, err
	}

	q := comparable.Query{
		Mode:       m,
		BaseYear:   cfg.Compare.BaseYear,
		LatestYear: cfg.Compare.LatestYear,
		Breadth:    cfg.Compare.SearchBreadth,
	}
	if f.base != 0 {
		q.BaseYear = f.base
	}
	if f.latest != 0 {
		q.LatestYear = f.latest
	}
	if fl := cmd.Flags().Lookup("breadth"); fl != nil && fl.Changed {
		q.Breadth = f.breadth
	}
	return q, nil
}

func init() {
	rankSel.register(rankCmd)
	rankCmd.Flags().StringVarP(&rankFormat, "format", "o", formatTable, "output format: table, json or yaml")

	reportSel.register(reportCmd)
	reportQuery.register(reportCmd)
	reportCmd.Flags().StringVarP(&reportFormat, "format", "o", formatTable, "output format: table, json or yaml")

	rootCmd.AddCommand(rankCmd, reportCmd)
}
