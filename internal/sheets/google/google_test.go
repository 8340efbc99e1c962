package google

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error without credentials")
	}
}

func TestNewFromEnv_UnreadableCredentialsFile(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", t.TempDir()+"/missing.json")

	if _, err := NewFromEnv(context.Background()); err == nil {
		t.Fatal("expected error for missing credentials file")
	}
}

func TestSheetRangeDefaults(t *testing.T) {
	c := newClient("id", "  ")
	if got := c.sheetRange(); got != "Sales!A:Z" {
		t.Errorf("unexpected range: %s", got)
	}
	c = newClient("id", "2024 Orders")
	if got := c.sheetRange(); got != "2024 Orders!A:Z" {
		t.Errorf("unexpected range: %s", got)
	}
}

func TestCellString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{float64(45306), "45306"},
		{1234567.5, "1234567.5"},
		{" 广东省 ", "广东省"},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := cellString(tt.in); got != tt.want {
			t.Errorf("cellString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func fakeValues() [][]any {
	return [][]any{
		{"payment_date", "paid_amount", "quantity", "province"},
		{float64(45306), 1200.5, float64(2), "广东省"}, // 2024-01-15
		{"2023-07-01", "300", float64(1), "北京市"},
		{"", "", "", ""},
		{"?", float64(10), float64(1)},
	}
}

func TestReadSalesParsesAndCaches(t *testing.T) {
	calls := 0
	c := newClient("id", "")
	c.fetch = func(context.Context) ([][]any, error) {
		calls++
		return fakeValues(), nil
	}
	ctx := context.Background()

	table, err := c.ReadSales(ctx)
	if err != nil {
		t.Fatalf("ReadSales: %v", err)
	}
	if len(table.Rows) != 3 || table.BadDates != 1 {
		t.Fatalf("unexpected table: rows=%d bad_dates=%d", len(table.Rows), table.BadDates)
	}
	if table.Rows[0].Year() != 2024 || table.Rows[0].Month() != 1 || table.Rows[0].PaidAmount.Cents != 120050 {
		t.Errorf("unexpected first row: %+v", table.Rows[0])
	}

	if _, err := c.ListSales(ctx, 2024); err != nil {
		t.Fatal(err)
	}
	years, err := c.ListYears(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(years) != 2 || years[0] != 2023 {
		t.Errorf("unexpected years: %v", years)
	}
	if calls != 1 {
		t.Errorf("expected one API call while cached, got %d", calls)
	}

	c.InvalidateCache()
	if _, err := c.ReadSales(ctx); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("expected refetch after invalidation, got %d calls", calls)
	}
}

func TestReadSalesCacheExpiration(t *testing.T) {
	calls := 0
	c := newClient("id", "")
	c.cacheValidDuration = 50 * time.Millisecond
	c.fetch = func(context.Context) ([][]any, error) {
		calls++
		return fakeValues(), nil
	}
	_, _ = c.ReadSales(context.Background())
	time.Sleep(80 * time.Millisecond)
	_, _ = c.ReadSales(context.Background())
	if calls != 2 {
		t.Errorf("cache should expire after TTL, got %d calls", calls)
	}
}

func TestReadSalesErrorIsNotCached(t *testing.T) {
	fail := true
	c := newClient("id", "")
	c.fetch = func(context.Context) ([][]any, error) {
		if fail {
			return nil, errors.New("quota exceeded")
		}
		return fakeValues(), nil
	}
	if _, err := c.ReadSales(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
	fail = false
	if _, err := c.ReadSales(context.Background()); err != nil {
		t.Fatalf("expected recovery after failure: %v", err)
	}
}

func TestReadSalesWithoutService(t *testing.T) {
	c := newClient("id", "")
	if _, err := c.ReadSales(context.Background()); err == nil {
		t.Fatal("expected error when service not initialized")
	}
	c.fetch = c.fetchValues
	if _, err := c.ReadSales(context.Background()); err == nil {
		t.Fatal("expected error when service not initialized")
	}
}
