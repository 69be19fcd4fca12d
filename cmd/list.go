package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"valuerank/internal/types"
)

var (
	listSel    selectionFlags
	listFormat string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the options of the next selection level",
	Long: `With no flags lists zones; with --zone lists that zone's buildings; with
--zone and --building lists blocks; adding --block lists units.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}
		sel, err := listSel.selection()
		if err != nil {
			return err
		}

		level, options := ds.Choices(sel)
		if level != types.LevelDone && len(options) == 0 {
			return &types.NotFoundError{Subject: describeSelection(sel)}
		}

		out := struct {
			Level   types.Level `json:"level" yaml:"level"`
			Options []string    `json:"options" yaml:"options"`
		}{level, options}
		return writeOutput(os.Stdout, listFormat, out, func(w io.Writer) error {
			renderChoices(w, level, options)
			return nil
		})
	},
}

func init() {
	listSel.register(listCmd)
	listCmd.Flags().StringVarP(&listFormat, "format", "o", formatTable, "output format: table, json or yaml")
	rootCmd.AddCommand(listCmd)
}
