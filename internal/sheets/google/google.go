// Package google exports document summaries to a Google Sheets spreadsheet,
// one row per document, keyed by "<kind>/<id>" in column A.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"backoffice/internal/documents"
	"backoffice/internal/log"
	ports "backoffice/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var (
	_ ports.SummaryWriter = (*Client)(nil)
	_ ports.SummaryLister = (*Client)(nil)
)

const DefaultSheetName = "Summaries"

type Config struct {
	SpreadsheetID string
	SheetName     string
	// CredentialsJSON wins over CredentialsFile. With neither set,
	// GOOGLE_APPLICATION_CREDENTIALS is read.
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger

	// mu serializes find-then-write sequences.
	mu      sync.Mutex
	sheetID *int64
}

// New creates a client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = DefaultSheetName
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        log.Default().WithComponent(log.ComponentSheets),
	}
}

func credentials(cfg Config) ([]byte, error) {
	if s := strings.TrimSpace(cfg.CredentialsJSON); s != "" {
		return []byte(s), nil
	}
	path := strings.TrimSpace(cfg.CredentialsFile)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

func (c *Client) UpsertSummary(ctx context.Context, row ports.SummaryRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	values, err := c.readAll(ctx)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		if err := c.writeRow(ctx, 1, header()); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	n, stored, found := findRow(values, row.Key())
	if found && stored > row.Version {
		c.logger.DebugContext(ctx, "Skipping stale summary row",
			log.FieldDocumentID, row.DocumentID, log.FieldVersion, row.Version, "stored_version", stored)
		return nil
	}

	if found {
		if err := c.writeRow(ctx, n, toValues(row)); err != nil {
			return fmt.Errorf("update row %d: %w", n, err)
		}
	} else {
		vr := &gsheet.ValueRange{Values: [][]any{toValues(row)}}
		_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.rangeAll(), vr).
			ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("append row to %s: %w", c.sheetName, err)
		}
	}

	c.logger.InfoContext(ctx, "Summary exported",
		log.FieldDocumentID, row.DocumentID, log.FieldKind, row.Kind, log.FieldVersion, row.Version)
	return nil
}

func (c *Client) DeleteSummary(ctx context.Context, kind documents.Kind, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	values, err := c.readAll(ctx)
	if err != nil {
		return err
	}
	n, _, found := findRow(values, ports.RowKey(kind, id))
	if !found {
		return nil
	}

	sheetID, err := c.resolveSheetID(ctx)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{Range: &gsheet.DimensionRange{
			SheetId:    sheetID,
			Dimension:  "ROWS",
			StartIndex: int64(n - 1),
			EndIndex:   int64(n),
		}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d: %w", n, err)
	}

	c.logger.InfoContext(ctx, "Summary removed", log.FieldDocumentID, id, log.FieldKind, kind)
	return nil
}

func (c *Client) ListSummaries(ctx context.Context) ([]ports.SummaryRow, error) {
	values, err := c.readAll(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]ports.SummaryRow, 0, len(values))
	for i, v := range values {
		if i == 0 {
			continue
		}
		r, err := parseRow(v)
		if err != nil {
			c.logger.WarnContext(ctx, "Skipping unreadable summary row", "row", i+1, log.FieldError, err)
			continue
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func (c *Client) readAll(ctx context.Context) ([][]any, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rangeAll()).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.rangeAll(), err)
	}
	return resp.Values, nil
}

func (c *Client) writeRow(ctx context.Context, n int, values []any) error {
	rng := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, n, lastColumn, n)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (c *Client) resolveSheetID(ctx context.Context) (int64, error) {
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

func (c *Client) rangeAll() string {
	return fmt.Sprintf("%s!A:%s", c.sheetName, lastColumn)
}
