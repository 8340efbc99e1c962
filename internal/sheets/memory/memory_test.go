package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"salescharts/internal/core"
)

func sale(y int, m time.Month, cents int64) core.Sale {
	return core.Sale{PaymentDate: time.Date(y, m, 10, 0, 0, 0, 0, time.UTC), PaidAmount: core.Money{Cents: cents}, Quantity: 1}
}

func TestStoreListSalesAndYears(t *testing.T) {
	s := NewFromSales([]core.Sale{
		sale(2024, time.January, 100),
		sale(2023, time.May, 200),
		{PaidAmount: core.Money{Cents: 999}}, // unknown date
		sale(2024, time.March, 300),
	})
	ctx := context.Background()

	got, err := s.ListSales(ctx, 2024)
	if err != nil || len(got) != 2 {
		t.Fatalf("unexpected 2024 sales: %v err=%v", got, err)
	}
	years, _ := s.ListYears(ctx)
	if len(years) != 2 || years[0] != 2023 || years[1] != 2024 {
		t.Fatalf("unexpected years: %v", years)
	}
	if s.Len() != 4 {
		t.Fatalf("expected 4 stored rows, got %d", s.Len())
	}
}

func TestStoreReadSalesIsACopy(t *testing.T) {
	s := New(core.SalesTable{Rows: []core.Sale{sale(2024, time.June, 100)}, BadDates: 2})
	table, _ := s.ReadSales(context.Background())
	if table.BadDates != 2 {
		t.Fatalf("counters lost: %+v", table)
	}
	table.Rows[0].PaidAmount.Cents = 0
	again, _ := s.ReadSales(context.Background())
	if again.Rows[0].PaidAmount.Cents != 100 {
		t.Fatalf("store mutated through returned table")
	}
}

func TestStoreReplace(t *testing.T) {
	s := NewFromSales([]core.Sale{sale(2022, time.January, 1)})
	s.Replace(core.SalesTable{Rows: []core.Sale{sale(2025, time.February, 2)}})
	years, _ := s.ListYears(context.Background())
	if len(years) != 1 || years[0] != 2025 {
		t.Fatalf("unexpected years after replace: %v", years)
	}
}

type failingReader struct{}

func (failingReader) ReadSales(context.Context) (core.SalesTable, error) {
	return core.SalesTable{}, errors.New("boom")
}

func TestLoadPropagatesError(t *testing.T) {
	if _, err := Load(context.Background(), failingReader{}); err == nil {
		t.Fatal("expected error from failing reader")
	}
}
