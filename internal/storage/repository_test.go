package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"salescharts/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "sales.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
}

func sampleTable() core.SalesTable {
	return core.SalesTable{
		Rows: []core.Sale{
			{PaymentDate: day(2024, time.January, 3), PaidAmount: core.Money{Cents: 10050}, Quantity: 2, Province: "广东省"},
			{PaymentDate: day(2024, time.January, 20), PaidAmount: core.Money{Cents: 4950}, Quantity: 1, Province: "北京市"},
			{PaymentDate: day(2024, time.March, 7), PaidAmount: core.Money{Cents: 30000}, Quantity: 5, Province: "上海"},
			{PaymentDate: day(2023, time.March, 7), PaidAmount: core.Money{Cents: 20000}, Quantity: 4, Province: "上海"},
			{PaidAmount: core.Money{Cents: 99999}, Quantity: 9}, // unknown date
		},
		BadDates: 1,
	}
}

func TestImportAndQuery(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec, err := repo.ImportSales(ctx, "job-1", "sales.xlsx", sampleTable())
	if err != nil {
		t.Fatalf("ImportSales: %v", err)
	}
	if rec.RowsTotal != 5 || rec.BadDates != 1 {
		t.Fatalf("unexpected import record: %+v", rec)
	}

	years, err := repo.ListYears(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(years) != 2 || years[0] != 2023 || years[1] != 2024 {
		t.Fatalf("unexpected years: %v", years)
	}

	sales, err := repo.ListSales(ctx, 2024)
	if err != nil {
		t.Fatal(err)
	}
	if len(sales) != 3 {
		t.Fatalf("expected 3 sales in 2024, got %d", len(sales))
	}
	if !sales[0].PaymentDate.Equal(day(2024, time.January, 3)) || sales[0].Province != "广东省" {
		t.Errorf("unexpected first sale: %+v", sales[0])
	}

	amounts, err := repo.MonthlyTotals(ctx, 2024, core.MetricAmount)
	if err != nil {
		t.Fatal(err)
	}
	if amounts.Values[0] != 150 || amounts.Values[2] != 300 || amounts.Values[1] != 0 {
		t.Errorf("unexpected amount totals: %v", amounts.Values)
	}
	qty, err := repo.MonthlyTotals(ctx, 2024, core.MetricQuantity)
	if err != nil {
		t.Fatal(err)
	}
	if qty.Values[0] != 3 || qty.Values[2] != 5 {
		t.Errorf("unexpected quantity totals: %v", qty.Values)
	}

	// SQL aggregation agrees with the in-memory pipeline.
	all, err := repo.ReadSales(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all.Rows) != 5 || all.BadDates != 1 {
		t.Fatalf("unexpected full table: rows=%d bad=%d", len(all.Rows), all.BadDates)
	}
	if mem := core.Aggregate(all.Rows, 2024, core.MetricAmount); mem.Values != amounts.Values {
		t.Errorf("aggregation mismatch: sql=%v memory=%v", amounts.Values, mem.Values)
	}
}

func TestReimportReplacesRows(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.ImportSales(ctx, "job-1", "sales.xlsx", sampleTable()); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.ImportSales(ctx, "job-2", "sales.xlsx", sampleTable()); err != nil {
		t.Fatal(err)
	}
	// Redelivery of the same job.
	if _, err := repo.ImportSales(ctx, "job-2", "sales.xlsx", sampleTable()); err != nil {
		t.Fatal(err)
	}
	n, err := repo.CountSales(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Fatalf("re-import should replace rows, have %d", n)
	}

	other := core.SalesTable{Rows: []core.Sale{{PaymentDate: day(2024, time.May, 1), PaidAmount: core.Money{Cents: 100}, Quantity: 1}}}
	if _, err := repo.ImportSales(ctx, "job-3", "other.csv", other); err != nil {
		t.Fatal(err)
	}
	if n, _ := repo.CountSales(ctx); n != 6 {
		t.Fatalf("other sources must be kept, have %d rows", n)
	}

	latest, err := repo.LatestImport(ctx, "sales.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != "job-2" || latest.RowsTotal != 5 {
		t.Errorf("unexpected latest import: %+v", latest)
	}
}

func TestLatestImportNotFound(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.LatestImport(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMonthlyTotalsEmptyYearAndBadMetric(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s, err := repo.MonthlyTotals(ctx, 1999, core.MetricAmount)
	if err != nil {
		t.Fatal(err)
	}
	if !s.IsEmpty() || s.Year != 1999 {
		t.Errorf("expected empty 1999 series, got %+v", s)
	}
	if _, err := repo.MonthlyTotals(ctx, 2024, core.Metric("revenue")); !errors.Is(err, core.ErrInvalidMetric) {
		t.Errorf("expected ErrInvalidMetric, got %v", err)
	}
}

func TestImportSalesRequiresIDs(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.ImportSales(context.Background(), "", "x", core.SalesTable{}); err == nil {
		t.Fatal("expected error for empty import id")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.db")
	for i := 0; i < 2; i++ {
		schema, err := RunMigrations(path)
		if err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
		if schema.Version != 1 || schema.Dirty {
			t.Fatalf("run %d: unexpected schema state %+v", i+1, schema)
		}
	}
}
