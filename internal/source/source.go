// Package source fetches the raw valuation grid from wherever the sheet
// lives: a local workbook, a delimited export, a Google Sheet or an Oracle
// table. Every source yields the same shape, a grid of trimmed-or-not text
// cells, and leaves header detection to the ingest package.
package source

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"valuerank/internal/config"
	"valuerank/internal/database"
	"valuerank/internal/ingest"
	"valuerank/internal/types"
)

// Source returns the raw grid of a valuation sheet.
type Source interface {
	Fetch(ctx context.Context) ([][]string, error)
	Name() string
}

// Open builds the source selected by cfg.Source.Kind. The returned close
// function releases any connection the source holds.
func Open(ctx context.Context, cfg *config.Config) (Source, func() error, error) {
	noop := func() error { return nil }
	sc := cfg.Source

	switch sc.Kind {
	case "xlsx":
		return &XLSX{Path: sc.Path, SheetName: sc.SheetName, SheetIndex: sc.SheetIndex}, noop, nil
	case "csv":
		delim, err := parseDelimiter(sc.Delimiter)
		if err != nil {
			return nil, nil, err
		}
		return &Delimited{Path: sc.Path, Comma: delim}, noop, nil
	case "gsheet":
		svc, err := NewSheetsService(ctx, sc.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		return &Sheets{Service: svc, SpreadsheetID: sc.SpreadsheetID, GID: sc.GID}, noop, nil
	case "oracle":
		db, err := database.NewDatabase(ctx, database.DBConfig{
			Host:           cfg.Oracle.Host,
			Port:           cfg.Oracle.Port,
			Service:        cfg.Oracle.Service,
			Username:       cfg.Oracle.Username,
			Password:       cfg.Oracle.Password,
			WalletLocation: cfg.Oracle.WalletLocation,
		})
		if err != nil {
			return nil, nil, eris.Wrap(err, "source: connect oracle")
		}
		return &Oracle{DB: db, Query: sc.Query}, db.Close, nil
	}
	return nil, nil, eris.Errorf("source: unknown kind %q", sc.Kind)
}

// Load fetches src and runs the ingest pipeline over the grid.
func Load(ctx context.Context, src Source, opts ingest.Options) (*types.Dataset, error) {
	log := zap.L().With(zap.String("source", src.Name()))

	grid, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	log.Debug("grid fetched", zap.Int("rows", len(grid)))

	ds, err := ingest.Load(grid, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "source: load %s", src.Name())
	}

	log.Info("dataset loaded",
		zap.Int("rows", len(ds.Rows)),
		zap.Ints("years", ds.Years),
		zap.Int("zones", len(ds.Zones())),
	)
	return ds, nil
}

func parseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", ",":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, eris.Errorf("source: invalid delimiter %q", s)
	}
	return r, nil
}
