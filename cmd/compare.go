package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"valuerank/internal/auditlog"
	"valuerank/internal/comparable"
	"valuerank/internal/types"
)

var (
	compareSel    selectionFlags
	compareQuery  queryFlags
	compareFormat string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Find an out-of-zone unit comparable to the selected one",
	Long: `simple mode returns the unit in another zone whose base-year valuation is
closest to the selected unit's. inversion mode first collects every
out-of-zone unit whose global rank was on the other side of the selected
unit in the base year than in the latest year. Of those it keeps the
--breadth units closest in base-year valuation (0 keeps all) and returns the
one with the largest swing.

Examples:
  valuerank compare --zone 1구역 --building 미성 --block 1 --unit 101
  valuerank compare --zone 1구역 --building 미성 --block 1 --unit 101 \
      --mode inversion --base-year 2016 --latest-year 2024 --breadth 30`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "compare"))

		ds, err := loadDataset(ctx)
		if err != nil {
			return err
		}
		key, err := compareSel.resolveKey(ds)
		if err != nil {
			return err
		}
		q, err := compareQuery.query(cmd)
		if err != nil {
			return err
		}

		res, err := comparable.New(ds).Find(key, q)
		if err != nil && !types.IsEmptyResult(err) {
			return err
		}

		rec := openAudit(ctx)
		defer rec.Close()
		rec.Record(ctx, auditlog.DeviceCLI, key, auditlog.EventCompare)

		if err != nil {
			log.Info("no comparable", zap.String("unit", key.String()), zap.Error(err))
			fmt.Fprintln(os.Stdout, err.Error())
			return nil
		}

		return writeOutput(os.Stdout, compareFormat, res, func(w io.Writer) error {
			fmt.Fprintf(w, "Unit              : %s\n", res.BaseUnit)
			renderComparable(w, &res, "")
			return nil
		})
	},
}

func init() {
	compareSel.register(compareCmd)
	compareQuery.register(compareCmd)
	compareCmd.Flags().StringVarP(&compareFormat, "format", "o", formatTable, "output format: table, json or yaml")
	rootCmd.AddCommand(compareCmd)
}
