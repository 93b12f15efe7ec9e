package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"finanzas/internal/core"
	ports "finanzas/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var _ ports.TransactionMirror = (*Client)(nil)

// Credentials selects the service account key. JSON wins over File; when
// both are empty GOOGLE_APPLICATION_CREDENTIALS is consulted.
type Credentials struct {
	JSON string
	File string
}

// Client mirrors transactions into one sheet, one row per transaction keyed
// by the ID column.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	// opMu serializes read-modify-write operations; row indexes computed
	// from one read must still be valid when the write lands.
	opMu sync.Mutex

	mu      sync.Mutex
	sheetID *int64
}

func New(ctx context.Context, spreadsheetID, sheetName string, creds Credentials) (*Client, error) {
	credentialsJSON, err := loadCredentials(ctx, creds)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(ctx, spreadsheetID, sheetName,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// NewWithOptions builds a client from raw API options (custom endpoint,
// HTTP client, credentials).
func NewWithOptions(ctx context.Context, spreadsheetID, sheetName string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = "Transactions"
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets client ready", "sheet", sheetName)

	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

func loadCredentials(ctx context.Context, creds Credentials) ([]byte, error) {
	file := strings.TrimSpace(creds.File)
	if creds.JSON == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case strings.TrimSpace(creds.JSON) != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		return []byte(creds.JSON), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Read service account credentials", "path", file, "size", len(data))
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// a1 quotes the sheet name so names with spaces or apostrophes are valid ranges.
func (c *Client) a1(cells string) string {
	return "'" + strings.ReplaceAll(c.sheetName, "'", "''") + "'!" + cells
}

func (c *Client) readAll(ctx context.Context) ([][]any, error) {
	rng := c.a1("A:G")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

// findRow returns the 1-based sheet row holding id, or 0.
func findRow(values [][]any, id int64) int {
	want := fmt.Sprint(id)
	for i, row := range values {
		if len(row) > 0 && ports.CellString(row[0]) == want {
			return i + 1
		}
	}
	return 0
}

func (c *Client) Upsert(ctx context.Context, t core.Transaction) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	values, err := c.readAll(ctx)
	if err != nil {
		return err
	}

	if len(values) == 0 {
		if err := c.write(ctx, c.a1("A1"), [][]any{ports.Header}); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	if row := findRow(values, t.ID); row > 0 {
		rng := c.a1(fmt.Sprintf("A%d:G%d", row, row))
		if err := c.write(ctx, rng, [][]any{ports.EncodeRow(t)}); err != nil {
			return fmt.Errorf("update row %d: %w", row, err)
		}
		slog.InfoContext(ctx, "Updated sheet row", "id", t.ID, "row", row)
		return nil
	}

	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.a1("A:G"),
		&gsheet.ValueRange{Values: [][]any{ports.EncodeRow(t)}}).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append transaction %d: %w", t.ID, err)
	}
	slog.InfoContext(ctx, "Appended sheet row", "id", t.ID)
	return nil
}

func (c *Client) Remove(ctx context.Context, id int64) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	values, err := c.readAll(ctx)
	if err != nil {
		return err
	}
	row := findRow(values, id)
	if row == 0 {
		return nil
	}

	sheetID, err := c.lookupSheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{Range: &gsheet.DimensionRange{
			SheetId:    sheetID,
			Dimension:  "ROWS",
			StartIndex: int64(row - 1),
			EndIndex:   int64(row),
			// The first tab has id 0, which omitempty would drop.
			ForceSendFields: []string{"SheetId", "StartIndex"},
		}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d: %w", row, err)
	}
	slog.InfoContext(ctx, "Deleted sheet row", "id", id, "row", row)
	return nil
}

func (c *Client) ReplaceAll(ctx context.Context, txs []core.Transaction) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.a1("A:G"),
		&gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}

	rows := make([][]any, 0, len(txs)+1)
	rows = append(rows, ports.Header)
	for _, t := range txs {
		rows = append(rows, ports.EncodeRow(t))
	}
	if err := c.write(ctx, c.a1("A1"), rows); err != nil {
		return fmt.Errorf("rewrite sheet: %w", err)
	}
	slog.InfoContext(ctx, "Rewrote sheet", "rows", len(txs))
	return nil
}

func (c *Client) List(ctx context.Context) ([]core.Transaction, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	values, err := c.readAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(values))
	for i, row := range values {
		if len(row) == 0 || (i == 0 && ports.IsHeader(row)) {
			continue
		}
		t, err := ports.DecodeRow(row)
		if err != nil {
			slog.WarnContext(ctx, "Skipping sheet row", "row", i+1, "error", err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// write stores values verbatim; RAW keeps user text from being parsed as formulas.
func (c *Client) write(ctx context.Context, rng string, values [][]any) error {
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (c *Client) lookupSheetID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sheetID != nil {
		return *c.sheetID, nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheetName {
			id := s.Properties.SheetId
			c.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheetName)
}
