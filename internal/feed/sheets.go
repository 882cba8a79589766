package feed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/markaz-center/markazbot/internal/clock"
	"github.com/markaz-center/markazbot/internal/logger"
)

// SheetsFeed reads and updates the Google Sheets post feed.
type SheetsFeed struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
	clk           *clock.BusinessClock
}

func NewSheetsFeed(ctx context.Context, serviceAccountFile, spreadsheetID, sheetName string, clk *clock.BusinessClock) (*SheetsFeed, error) {
	creds, err := os.ReadFile(serviceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}

	jwtCfg, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(jwtCfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsFeed{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		clk:           clk,
	}, nil
}

// FetchCandidates reads every data row below the header, in sheet order.
func (f *SheetsFeed) FetchCandidates(ctx context.Context) ([]Row, []RowParseError, error) {
	readRange := fmt.Sprintf("%s!A2:F", f.sheetName)
	resp, err := f.svc.Spreadsheets.Values.Get(f.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("read feed range %s: %w", readRange, err)
	}

	var (
		rows      []Row
		parseErrs []RowParseError
	)
	for i, raw := range resp.Values {
		ref := RowRef(i + 2) // 1-based, header is row 1

		cells := make([]string, len(raw))
		for j, v := range raw {
			cells[j] = strings.TrimSpace(fmt.Sprint(v))
		}

		row, perr := parseRow(ref, cells, f.clk)
		if perr != nil {
			parseErrs = append(parseErrs, *perr)
			continue
		}
		rows = append(rows, row)
	}

	logger.Log.WithFields(map[string]interface{}{
		"rows":       len(rows),
		"parse_errs": len(parseErrs),
	}).Debug("fetched feed candidates")

	return rows, parseErrs, nil
}

// MarkPublished updates only the status cell of the given row.
func (f *SheetsFeed) MarkPublished(ctx context.Context, ref RowRef) error {
	return f.writeCell(ctx, "F", ref, "published")
}

// AnnotateError writes an operator note into column G of the given row.
func (f *SheetsFeed) AnnotateError(ctx context.Context, ref RowRef, note string) error {
	return f.writeCell(ctx, "G", ref, note)
}

func (f *SheetsFeed) writeCell(ctx context.Context, column string, ref RowRef, value string) error {
	rangeName := fmt.Sprintf("%s!%s%d", f.sheetName, column, ref)
	vr := &sheets.ValueRange{Values: [][]interface{}{{value}}}

	_, err := f.svc.Spreadsheets.Values.Update(f.spreadsheetID, rangeName, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update cell %s: %w", rangeName, err)
	}
	return nil
}
