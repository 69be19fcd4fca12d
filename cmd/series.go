package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"valuerank/internal/auditlog"
	"valuerank/internal/series"
	"valuerank/internal/types"
)

var (
	seriesUnits  []string
	seriesGroups []string
	seriesFormat string
)

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Print valuation series aligned on their common years",
	Long: `Each --unit adds one unit's valuations; each --group adds the mean valuation
of a building, optionally restricted to one size class. All series are cut
to the years every one of them has a value for.

Examples:
  valuerank series --unit 1구역/미성/1/101 --unit 2구역/현대/3/301
  valuerank series --unit 1구역/미성/1/101 --group 1구역/미성/32평`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if len(seriesUnits) == 0 && len(seriesGroups) == 0 {
			return fmt.Errorf("at least one --unit or --group is required")
		}

		ds, err := loadDataset(ctx)
		if err != nil {
			return err
		}

		rec := openAudit(ctx)
		defer rec.Close()

		var all []series.Series
		for _, u := range seriesUnits {
			key, err := types.ParseKey(u)
			if err != nil {
				return err
			}
			s, err := series.ForUnit(ds, key)
			if err != nil {
				return err
			}
			rec.Record(ctx, auditlog.DeviceCLI, key, auditlog.EventSeries)
			all = append(all, s)
		}
		for _, g := range seriesGroups {
			grp, err := parseGroup(g)
			if err != nil {
				return err
			}
			s, err := series.GroupMean(ds, grp)
			if err != nil {
				return err
			}
			s.Label = grp.String() + " (mean)"
			all = append(all, s)
		}

		aligned := series.Align(all...)
		return writeOutput(os.Stdout, seriesFormat, aligned, func(w io.Writer) error {
			return renderSeries(w, aligned)
		})
	},
}

// parseGroup reads "zone/building" or "zone/building/size".
func parseGroup(s string) (series.Group, error) {
	parts := strings.Split(s, "/")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	switch {
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return series.Group{Zone: parts[0], Building: parts[1]}, nil
	case len(parts) == 3 && parts[0] != "" && parts[1] != "" && parts[2] != "":
		return series.Group{Zone: parts[0], Building: parts[1], SizeClass: parts[2]}, nil
	}
	return series.Group{}, fmt.Errorf("group %q must be zone/building or zone/building/size", s)
}

func init() {
	f := seriesCmd.Flags()
	f.StringArrayVar(&seriesUnits, "unit", nil, "unit as zone/building/block/unit (repeatable)")
	f.StringArrayVar(&seriesGroups, "group", nil, "building mean as zone/building[/size] (repeatable)")
	f.StringVarP(&seriesFormat, "format", "o", formatTable, "output format: table, json or yaml")
	rootCmd.AddCommand(seriesCmd)
}
