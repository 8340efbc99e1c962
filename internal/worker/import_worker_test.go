package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"salescharts/internal/amqp"
	"salescharts/internal/core"
	"salescharts/internal/sheets"
	"salescharts/internal/sheets/csvfile"
	"salescharts/internal/sheets/memory"
	"salescharts/internal/sheets/xlsx"
	"salescharts/internal/storage"
)

type fakeImporter struct {
	calls []string
	table core.SalesTable
	err   error
}

func (f *fakeImporter) ImportSales(_ context.Context, importID, source string, table core.SalesTable) (storage.Import, error) {
	f.calls = append(f.calls, importID+"|"+source)
	f.table = table
	if f.err != nil {
		return storage.Import{}, f.err
	}
	return storage.Import{ID: importID, Source: source, RowsTotal: len(table.Rows), BadDates: table.BadDates}, nil
}

func newMessage(source string) *amqp.ImportMessage {
	return &amqp.ImportMessage{JobID: uuid.NewString(), Source: source, Timestamp: time.Now()}
}

func TestHandleImportStoresTable(t *testing.T) {
	store := &fakeImporter{}
	w := NewImportWorker(store)
	w.open = func(context.Context, string, string) (sheets.SalesReader, error) {
		return memory.NewFromSales([]core.Sale{
			{PaymentDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), PaidAmount: core.Money{Cents: 500}},
		}), nil
	}

	msg := newMessage("sales.xlsx")
	if err := w.HandleImport(context.Background(), msg); err != nil {
		t.Fatalf("HandleImport: %v", err)
	}
	if len(store.calls) != 1 || store.calls[0] != msg.JobID+"|sales.xlsx" {
		t.Fatalf("unexpected import calls: %v", store.calls)
	}
	if len(store.table.Rows) != 1 {
		t.Fatalf("table not passed through: %+v", store.table)
	}
}

func TestHandleImportRetriesTransientErrors(t *testing.T) {
	store := &fakeImporter{err: errors.New("database is locked")}
	w := NewImportWorker(store)
	w.open = func(context.Context, string, string) (sheets.SalesReader, error) {
		return memory.NewFromSales(nil), nil
	}
	if err := w.HandleImport(context.Background(), newMessage("sales.csv")); err == nil {
		t.Fatal("transient storage error should be returned for requeue")
	}
}

func TestHandleImportDropsPermanentErrors(t *testing.T) {
	dir := t.TempDir()
	badCSV := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(badCSV, []byte("date,amount\n2024-01-01,1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		source string
	}{
		{"unknown extension", filepath.Join(dir, "sales.txt")},
		{"missing file", filepath.Join(dir, "absent.csv")},
		{"missing column", badCSV},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeImporter{}
			w := NewImportWorker(store)
			if err := w.HandleImport(context.Background(), newMessage(tt.source)); err != nil {
				t.Fatalf("permanent error should be acknowledged, got %v", err)
			}
			if len(store.calls) != 0 {
				t.Fatalf("nothing should be stored, got %v", store.calls)
			}
		})
	}
}

func TestImportEndToEndWithSQLite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "sales.csv")
	content := "payment_date,paid_amount,quantity,province\n2024-01-05,100,1,广东\n2024-01-06,50.5,2,广东\nbad,1,1,广东\n"
	if err := os.WriteFile(src, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	repo, err := storage.NewSQLiteRepository(filepath.Join(dir, "sales.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()

	w := NewImportWorker(repo)
	id := uuid.NewString()
	rec, err := w.Import(context.Background(), id, src, "")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if rec.RowsTotal != 3 || rec.BadDates != 1 {
		t.Errorf("unexpected record: %+v", rec)
	}
	series, err := repo.MonthlyTotals(context.Background(), 2024, core.MetricAmount)
	if err != nil {
		t.Fatal(err)
	}
	if series.Values[0] != 150.5 {
		t.Errorf("unexpected January total: %v", series.Values[0])
	}
}

func TestOpenReader(t *testing.T) {
	ctx := context.Background()

	r, err := OpenReader(ctx, "data/Sales.XLSX", "Orders")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(*xlsx.Reader); !ok {
		t.Errorf("expected xlsx reader, got %T", r)
	}
	r, err = OpenReader(ctx, "export.csv", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(*csvfile.Reader); !ok {
		t.Errorf("expected csv reader, got %T", r)
	}

	if _, err := OpenReader(ctx, "notes.txt", ""); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("expected ErrUnknownSource, got %v", err)
	}
	if _, err := OpenReader(ctx, "sheets:", ""); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("expected ErrUnknownSource for empty id, got %v", err)
	}
}
