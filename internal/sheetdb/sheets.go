// Google Sheets implementation of the row store backend.

package sheetdb

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"google.golang.org/api/sheets/v4"
)

// Cell ranges are open-ended on columns; no table here is wider than ZZ.
const columnSpan = "A:ZZ"

// SheetsBackend implements Backend against the Google Sheets v4 API. One
// spreadsheet holds all tables, one sheet (tab) per table.
type SheetsBackend struct {
	svc           *sheets.Service
	spreadsheetID string

	mu       sync.Mutex
	sheetIDs map[string]int64 // sheet title -> numeric sheet id, for structural deletes
}

// NewSheetsBackend wraps svc for the given spreadsheet. svc may be nil and
// spreadsheetID may be empty when the deployment is not configured; every
// call then fails with ErrNotConfigured.
func NewSheetsBackend(svc *sheets.Service, spreadsheetID string) *SheetsBackend {
	return &SheetsBackend{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetIDs:      make(map[string]int64),
	}
}

func (b *SheetsBackend) configured() error {
	if b.svc == nil || b.spreadsheetID == "" {
		return ErrNotConfigured
	}
	return nil
}

// Values returns every row of the sheet, header included.
func (b *SheetsBackend) Values(ctx context.Context, sheet string) ([][]string, error) {
	if err := b.configured(); err != nil {
		return nil, err
	}
	resp, err := b.svc.Spreadsheets.Values.Get(b.spreadsheetID, sheet+"!"+columnSpan).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get values from %s: %w", sheet, err)
	}
	return asStrings(resp.Values), nil
}

// Header returns the first row of the sheet, or nil if the sheet is empty.
func (b *SheetsBackend) Header(ctx context.Context, sheet string) ([]string, error) {
	if err := b.configured(); err != nil {
		return nil, err
	}
	resp, err := b.svc.Spreadsheets.Values.Get(b.spreadsheetID, fmt.Sprintf("%s!A1:ZZ1", sheet)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get header of %s: %w", sheet, err)
	}
	rows := asStrings(resp.Values)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// WriteHeader overwrites the first row of the sheet.
func (b *SheetsBackend) WriteHeader(ctx context.Context, sheet string, header []string) error {
	if err := b.configured(); err != nil {
		return err
	}
	vr := &sheets.ValueRange{Values: [][]any{asAny(header)}}
	_, err := b.svc.Spreadsheets.Values.Update(b.spreadsheetID, sheet+"!A1", vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet, err)
	}
	return nil
}

// Append adds one row after the last non-empty row of the sheet.
func (b *SheetsBackend) Append(ctx context.Context, sheet string, row []string) error {
	if err := b.configured(); err != nil {
		return err
	}
	vr := &sheets.ValueRange{Values: [][]any{asAny(row)}}
	_, err := b.svc.Spreadsheets.Values.Append(b.spreadsheetID, sheet+"!A:A", vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append row to %s: %w", sheet, err)
	}
	return nil
}

// WriteRow overwrites the row at the given 0-based absolute index.
func (b *SheetsBackend) WriteRow(ctx context.Context, sheet string, index int, row []string) error {
	if err := b.configured(); err != nil {
		return err
	}
	// Sheets ranges are 1-based.
	rng := fmt.Sprintf("%s!A%d:ZZ%d", sheet, index+1, index+1)
	vr := &sheets.ValueRange{Values: [][]any{asAny(row)}}
	_, err := b.svc.Spreadsheets.Values.Update(b.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update row %d of %s: %w", index, sheet, err)
	}
	return nil
}

// DeleteRow structurally removes the row at the given 0-based absolute
// index via a DeleteDimension request, shifting subsequent rows up.
func (b *SheetsBackend) DeleteRow(ctx context.Context, sheet string, index int) error {
	if err := b.configured(); err != nil {
		return err
	}
	sheetID, err := b.sheetID(ctx, sheet)
	if err != nil {
		return err
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(index),
					EndIndex:   int64(index + 1),
				},
			},
		}},
	}
	if _, err := b.svc.Spreadsheets.BatchUpdate(b.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete row %d of %s: %w", index, sheet, err)
	}
	return nil
}

// sheetID resolves the numeric id of a sheet by title. Ids are immutable
// for the lifetime of a sheet, so they are cached after first lookup.
func (b *SheetsBackend) sheetID(ctx context.Context, sheet string) (int64, error) {
	b.mu.Lock()
	id, ok := b.sheetIDs[sheet]
	b.mu.Unlock()
	if ok {
		return id, nil
	}
	ss, err := b.svc.Spreadsheets.Get(b.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to get spreadsheet metadata: %w", err)
	}
	found := false
	b.mu.Lock()
	for _, s := range ss.Sheets {
		if s.Properties == nil {
			continue
		}
		b.sheetIDs[s.Properties.Title] = s.Properties.SheetId
		if s.Properties.Title == sheet {
			id = s.Properties.SheetId
			found = true
		}
	}
	b.mu.Unlock()
	if !found {
		return 0, fmt.Errorf("sheet %s not found in spreadsheet", sheet)
	}
	return id, nil
}

// EnsureSheets creates any missing sheets and writes their header rows.
// Called once at startup; failures are reported but the server still
// starts, since headers are also provisioned lazily on first write.
func (b *SheetsBackend) EnsureSheets(ctx context.Context, headers map[string][]string) error {
	if err := b.configured(); err != nil {
		return err
	}
	ss, err := b.svc.Spreadsheets.Get(b.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet metadata: %w", err)
	}
	existing := make(map[string]bool, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			existing[s.Properties.Title] = true
		}
	}
	for sheet, header := range headers {
		if existing[sheet] {
			continue
		}
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: sheet},
				},
			}},
		}
		if _, err := b.svc.Spreadsheets.BatchUpdate(b.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
		if err := b.WriteHeader(ctx, sheet, header); err != nil {
			return err
		}
		slog.InfoContext(ctx, "Created sheet", "sheet", sheet, "columns", len(header))
	}
	return nil
}

func asStrings(values [][]any) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			if s, ok := v.(string); ok {
				cells[j] = s
			} else {
				cells[j] = fmt.Sprint(v)
			}
		}
		rows[i] = cells
	}
	return rows
}

func asAny(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
