package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"formcfg/internal/errs"
)

// sheetClient is the subset of the Sheets API the mirror needs.
type sheetClient interface {
	SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error)
	AddSheet(ctx context.Context, spreadsheetID string, title string) error
	GetValues(ctx context.Context, spreadsheetID string, a1Range string) ([][]string, error)
	UpdateRow(ctx context.Context, spreadsheetID string, a1Range string, row []any) error
	AppendRow(ctx context.Context, spreadsheetID string, a1Range string, row []any) error
}

type googleClient struct {
	svc *gsheets.Service
}

func newGoogleClient(ctx context.Context, credentialsFile string) (*googleClient, error) {
	svc, err := gsheets.NewService(
		ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, errs.Wrap(err, "create sheets service")
	}
	return &googleClient{svc: svc}, nil
}

func (c *googleClient) SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error) {
	resp, err := c.svc.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, errs.Wrap(err, "get spreadsheet")
	}

	titles := make([]string, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s == nil || s.Properties == nil {
			continue
		}
		titles = append(titles, s.Properties.Title)
	}
	return titles, nil
}

func (c *googleClient) AddSheet(ctx context.Context, spreadsheetID string, title string) error {
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{Title: title},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return errs.Wrapf(err, "add sheet %q", title)
	}
	return nil
}

func (c *googleClient) GetValues(ctx context.Context, spreadsheetID string, a1Range string) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, a1Range).Context(ctx).Do()
	if err != nil {
		return nil, errs.Wrapf(err, "get values %s", a1Range)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (c *googleClient) UpdateRow(ctx context.Context, spreadsheetID string, a1Range string, row []any) error {
	vr := &gsheets.ValueRange{Values: [][]any{row}}
	if _, err := c.svc.Spreadsheets.Values.Update(spreadsheetID, a1Range, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do(); err != nil {
		return errs.Wrapf(err, "update values %s", a1Range)
	}
	return nil
}

func (c *googleClient) AppendRow(ctx context.Context, spreadsheetID string, a1Range string, row []any) error {
	vr := &gsheets.ValueRange{Values: [][]any{row}}
	if _, err := c.svc.Spreadsheets.Values.Append(spreadsheetID, a1Range, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do(); err != nil {
		return errs.Wrapf(err, "append values %s", a1Range)
	}
	return nil
}
