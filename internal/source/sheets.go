package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// NewSheetsService authenticates with a service account file. An empty
// path falls back to application default credentials.
func NewSheetsService(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*sheets.Service, error) {
	all := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if credentialsFile != "" {
		all = append(all, option.WithCredentialsFile(credentialsFile))
	}
	all = append(all, opts...)

	svc, err := sheets.NewService(ctx, all...)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: create service")
	}
	return svc, nil
}

// Sheets reads the worksheet identified by GID from a Google spreadsheet.
type Sheets struct {
	Service       *sheets.Service
	SpreadsheetID string
	GID           int64
}

func (s *Sheets) Name() string { return fmt.Sprintf("gsheet:%s#gid=%d", s.SpreadsheetID, s.GID) }

// Fetch returns the formatted values of the worksheet. An unknown GID falls
// back to the first worksheet.
func (s *Sheets) Fetch(ctx context.Context) ([][]string, error) {
	title, err := WorksheetTitle(ctx, s.Service, s.SpreadsheetID, s.GID)
	if err != nil {
		return nil, err
	}

	resp, err := s.Service.Spreadsheets.Values.Get(s.SpreadsheetID, quoteSheet(title)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, eris.Wrapf(err, "sheets: read values of %q", title)
	}
	return valuesToGrid(resp.Values), nil
}

// WorksheetTitle resolves a worksheet GID to its title.
func WorksheetTitle(ctx context.Context, svc *sheets.Service, spreadsheetID string, gid int64) (string, error) {
	ss, err := svc.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties(sheetId,title)").
		Context(ctx).
		Do()
	if err != nil {
		return "", eris.Wrapf(err, "sheets: get spreadsheet %s", spreadsheetID)
	}
	if len(ss.Sheets) == 0 {
		return "", eris.Errorf("sheets: spreadsheet %s has no worksheets", spreadsheetID)
	}

	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.SheetId == gid {
			return sh.Properties.Title, nil
		}
	}

	var first string
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			first = sh.Properties.Title
			break
		}
	}
	if first == "" {
		return "", eris.Errorf("sheets: spreadsheet %s has no titled worksheets", spreadsheetID)
	}
	zap.L().Warn("worksheet gid not found, using first worksheet",
		zap.String("spreadsheet", spreadsheetID),
		zap.Int64("gid", gid),
		zap.String("title", first),
	)
	return first, nil
}

func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func valuesToGrid(values [][]interface{}) [][]string {
	grid := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		grid[i] = cells
	}
	return grid
}
