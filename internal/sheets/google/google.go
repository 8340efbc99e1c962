package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"salescharts/internal/core"
	ports "salescharts/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	DefaultSheetName = "Sales"
	// defaultCacheTTL bounds how often the API is hit for the same table.
	defaultCacheTTL = 30 * time.Second
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	// fetch returns the raw values matrix; replaced in tests.
	fetch func(ctx context.Context) ([][]any, error)

	mu                 sync.Mutex
	cached             core.SalesTable
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
}

// Ensure interface conformance
var (
	_ ports.SalesReader = (*Client)(nil)
	_ ports.SalesLister = (*Client)(nil)
	_ ports.YearLister  = (*Client)(nil)
)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Sales")
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	return New(ctx, spreadsheetID, os.Getenv("GOOGLE_SHEET_NAME"))
}

// New creates a client for one sheet of a spreadsheet.
func New(ctx context.Context, spreadsheetID, sheetName string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	c := newClient(spreadsheetID, sheetName)
	c.svc = svc
	c.fetch = c.fetchValues
	return c, nil
}

func newClient(spreadsheetID, sheetName string) *Client {
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	return &Client{
		spreadsheetID:      spreadsheetID,
		sheetName:          sheetName,
		cacheValidDuration: defaultCacheTTL,
	}
}

// newSheetsService initializes a read-only Sheets Service using Service
// Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.DebugContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.DebugContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// sheetRange covers every column the sales sheet may use.
func (c *Client) sheetRange() string {
	return fmt.Sprintf("%s!A:Z", c.sheetName)
}

func (c *Client) fetchValues(ctx context.Context) ([][]any, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := c.sheetRange()
	// Unformatted values return dates as serial numbers and amounts as
	// plain numbers, independent of the locale of the spreadsheet.
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

// ReadSales reads the whole sheet. Results are cached briefly so a
// dashboard rendering several charts reads the sheet once.
func (c *Client) ReadSales(ctx context.Context) (core.SalesTable, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if time.Now().Before(c.cacheExpiresAt) {
		return copyTable(c.cached), nil
	}
	if c.fetch == nil {
		return core.SalesTable{}, errors.New("sheets service not initialized")
	}

	values, err := c.fetch(ctx)
	if err != nil {
		return core.SalesTable{}, err
	}
	rows := make([][]string, len(values))
	for i, row := range values {
		rows[i] = toStrings(row)
	}
	table, err := ports.ParseRows(rows)
	if err != nil {
		return core.SalesTable{}, fmt.Errorf("sheet %s: %w", c.sheetName, err)
	}
	slog.DebugContext(ctx, "Read sales sheet",
		"sheet", c.sheetName, "rows", len(table.Rows),
		"bad_dates", table.BadDates, "bad_amounts", table.BadAmounts)

	c.cached = table
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	return copyTable(table), nil
}

func (c *Client) ListSales(ctx context.Context, year int) ([]core.Sale, error) {
	table, err := c.ReadSales(ctx)
	if err != nil {
		return nil, err
	}
	return table.InYear(year), nil
}

func (c *Client) ListYears(ctx context.Context) ([]int, error) {
	table, err := c.ReadSales(ctx)
	if err != nil {
		return nil, err
	}
	return core.Years(table.Rows), nil
}

// InvalidateCache forces the next read to hit the API.
func (c *Client) InvalidateCache() {
	c.mu.Lock()
	c.cacheExpiresAt = time.Time{}
	c.mu.Unlock()
}

func copyTable(t core.SalesTable) core.SalesTable {
	t.Rows = append([]core.Sale(nil), t.Rows...)
	return t
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = cellString(v)
	}
	return out
}

// cellString renders an API cell without exponent notation, so large
// amounts and date serials survive the round trip through text.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
