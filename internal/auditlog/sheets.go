package auditlog

import (
	"context"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"google.golang.org/api/sheets/v4"

	"valuerank/internal/source"
)

// SheetsSink appends events as rows of a Google Sheets worksheet. The
// worksheet title is resolved from its GID on first use.
type SheetsSink struct {
	svc           *sheets.Service
	spreadsheetID string
	gid           int64

	mu    sync.Mutex
	title string
}

// NewSheets returns a sink appending rows to the worksheet gid of the
// spreadsheet.
func NewSheets(svc *sheets.Service, spreadsheetID string, gid int64) *SheetsSink {
	return &SheetsSink{svc: svc, spreadsheetID: spreadsheetID, gid: gid}
}

func (s *SheetsSink) Append(ctx context.Context, e Event) error {
	title, err := s.worksheet(ctx)
	if err != nil {
		return err
	}

	rec := e.Record()
	row := make([]interface{}, len(rec))
	for i, v := range rec {
		row[i] = v
	}

	_, err = s.svc.Spreadsheets.Values.Append(s.spreadsheetID, "'"+strings.ReplaceAll(title, "'", "''")+"'",
		&sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return eris.Wrap(err, "sheets: append audit row")
}

func (s *SheetsSink) worksheet(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.title != "" {
		return s.title, nil
	}
	title, err := source.WorksheetTitle(ctx, s.svc, s.spreadsheetID, s.gid)
	if err != nil {
		return "", err
	}
	s.title = title
	return title, nil
}

func (s *SheetsSink) Close() error { return nil }
