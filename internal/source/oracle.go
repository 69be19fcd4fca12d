package source

import (
	"context"

	"github.com/rotisserie/eris"
)

// Querier runs a query and returns a header-first text grid.
type Querier interface {
	QueryGrid(ctx context.Context, query string, args ...any) ([][]string, error)
}

// Oracle reads the valuation table with a configured query. Column names
// become the header row.
type Oracle struct {
	DB    Querier
	Query string
}

func (o *Oracle) Name() string { return "oracle" }

func (o *Oracle) Fetch(ctx context.Context) ([][]string, error) {
	grid, err := o.DB.QueryGrid(ctx, o.Query)
	if err != nil {
		return nil, eris.Wrap(err, "oracle: fetch grid")
	}
	return grid, nil
}
