package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"valuerank/internal/auditlog"
	"valuerank/internal/config"
	"valuerank/internal/ingest"
	"valuerank/internal/source"
	"valuerank/internal/types"
)

var cfg *config.Config

// sourceFile overrides source.path; the kind follows the extension.
var sourceFile string

var rootCmd = &cobra.Command{
	Use:   "valuerank",
	Short: "Rank apartment units by assessed valuation",
	Long: `Loads a redevelopment valuation sheet and ranks every unit by its
officially assessed price, within its zone and across all zones, for each
year in the sheet. Finds out-of-zone units with a similar base-year price and
units whose relative standing flipped between two years.

Run without a subcommand on a terminal to pick a unit interactively.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if sourceFile != "" {
			applySourceFile(cfg, sourceFile)
		}

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return cfg.Validate()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	RunE: runInteractive,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&sourceFile, "file", "f", "", "valuation sheet (.xlsx, .csv, .txt); overrides source.path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func applySourceFile(c *config.Config, path string) {
	c.Source.Path = path
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		c.Source.Kind = "csv"
	case ".txt", ".psv":
		c.Source.Kind = "csv"
		c.Source.Delimiter = "|"
	default:
		c.Source.Kind = "xlsx"
	}
}

func ingestOptions(c *config.Config) ingest.Options {
	return ingest.Options{
		MaxRows:  c.Dataset.MaxRows,
		ScanRows: c.Source.ScanRows,
		MinYear:  c.Dataset.MinYear,
		MaxYear:  c.Dataset.MaxYear,
	}
}

// loadDataset opens the configured source and loads it.
func loadDataset(ctx context.Context) (*types.Dataset, error) {
	start := time.Now()

	src, closeSrc, err := source.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeSrc()

	ds, err := source.Load(ctx, src, ingestOptions(cfg))
	if err != nil {
		return nil, eris.Wrap(err, "load dataset")
	}

	zap.L().Debug("dataset ready", zap.Duration("elapsed", time.Since(start).Truncate(time.Millisecond)))
	return ds, nil
}

// openAudit returns the configured recorder; sinks that fail to open degrade
// to dropping events.
func openAudit(ctx context.Context) *auditlog.Recorder {
	return auditlog.Open(ctx, cfg)
}
