package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"salescharts/internal/core"
	ports "salescharts/internal/sheets"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02 15:04:05"

var ErrNotFound = errors.New("not found")

var (
	_ ports.SalesReader = (*SQLiteRepository)(nil)
	_ ports.SalesLister = (*SQLiteRepository)(nil)
	_ ports.YearLister  = (*SQLiteRepository)(nil)
)

// Import records one completed import of a source.
type Import struct {
	ID         string
	Source     string
	RowsTotal  int
	BadDates   int
	BadAmounts int
	ImportedAt time.Time
}

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	schema, err := RunMigrations(dbPath)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	if schema.Dirty {
		return nil, fmt.Errorf("schema version %d is dirty, fix the database before starting", schema.Version)
	}
	slog.Debug("SQLite schema ready", "path", dbPath, "version", schema.Version)

	// The worker writes while the server reads; wait on locks instead of
	// failing with SQLITE_BUSY.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ImportSales replaces every row previously imported from source with the
// rows of table, in a single transaction. Redelivering the same import is
// therefore harmless.
func (r *SQLiteRepository) ImportSales(ctx context.Context, importID, source string, table core.SalesTable) (Import, error) {
	if importID == "" || source == "" {
		return Import{}, errors.New("import id and source are required")
	}
	rec := Import{
		ID:         importID,
		Source:     source,
		RowsTotal:  len(table.Rows),
		BadDates:   table.BadDates,
		BadAmounts: table.BadAmounts,
		ImportedAt: r.now(),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Import{}, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	replaced, err := q.DeleteSalesBySource(ctx, source)
	if err != nil {
		return Import{}, fmt.Errorf("delete previous sales: %w", err)
	}
	if err := q.DeleteImportsBySource(ctx, source); err != nil {
		return Import{}, fmt.Errorf("delete previous imports: %w", err)
	}
	if err := q.CreateImport(ctx, ImportRow{
		ID:         rec.ID,
		Source:     rec.Source,
		RowsTotal:  int64(rec.RowsTotal),
		BadDates:   int64(rec.BadDates),
		BadAmounts: int64(rec.BadAmounts),
		ImportedAt: rec.ImportedAt.Format(timeLayout),
	}); err != nil {
		return Import{}, fmt.Errorf("create import: %w", err)
	}

	stmt, err := q.PrepareInsertSale(ctx)
	if err != nil {
		return Import{}, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, s := range table.Rows {
		var date sql.NullString
		if !s.PaymentDate.IsZero() {
			date = sql.NullString{String: s.PaymentDate.UTC().Format(timeLayout), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, importID, source, date, s.Year(), s.Month(),
			s.PaidAmount.Cents, s.Quantity, s.Province); err != nil {
			return Import{}, fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Import{}, fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Sales imported to SQLite",
		"import_id", importID,
		"source", source,
		"rows", rec.RowsTotal,
		"replaced", replaced,
		"bad_dates", rec.BadDates,
		"bad_amounts", rec.BadAmounts)
	return rec, nil
}

// ReadSales implements sheets.SalesReader over every stored row.
func (r *SQLiteRepository) ReadSales(ctx context.Context) (core.SalesTable, error) {
	rows, err := r.queries.ListAllSales(ctx)
	if err != nil {
		return core.SalesTable{}, fmt.Errorf("list sales: %w", err)
	}
	sales, err := toSales(rows)
	if err != nil {
		return core.SalesTable{}, err
	}
	table := core.SalesTable{Rows: sales}
	for _, s := range sales {
		if s.PaymentDate.IsZero() {
			table.BadDates++
		}
	}
	return table, nil
}

// ListSales implements sheets.SalesLister
func (r *SQLiteRepository) ListSales(ctx context.Context, year int) ([]core.Sale, error) {
	rows, err := r.queries.ListSalesByYear(ctx, int64(year))
	if err != nil {
		return nil, fmt.Errorf("list sales for %d: %w", year, err)
	}
	return toSales(rows)
}

// ListYears implements sheets.YearLister
func (r *SQLiteRepository) ListYears(ctx context.Context) ([]int, error) {
	years, err := r.queries.ListYears(ctx)
	if err != nil {
		return nil, fmt.Errorf("list years: %w", err)
	}
	out := make([]int, len(years))
	for i, y := range years {
		out[i] = int(y)
	}
	return out, nil
}

// MonthlyTotals sums metric per month in SQL and fills the missing months
// with zero.
func (r *SQLiteRepository) MonthlyTotals(ctx context.Context, year int, metric core.Metric) (core.MonthlySeries, error) {
	var (
		rows []MonthTotalRow
		err  error
	)
	switch metric {
	case core.MetricAmount:
		rows, err = r.queries.MonthlyAmountTotals(ctx, int64(year))
	case core.MetricQuantity:
		rows, err = r.queries.MonthlyQuantityTotals(ctx, int64(year))
	default:
		return core.MonthlySeries{}, core.ErrInvalidMetric
	}
	if err != nil {
		return core.MonthlySeries{}, fmt.Errorf("monthly totals for %d: %w", year, err)
	}

	months := make(map[int]float64, len(rows))
	for _, row := range rows {
		if metric == core.MetricAmount {
			months[int(row.Month)] = core.Money{Cents: row.Total}.Units()
		} else {
			months[int(row.Month)] = float64(row.Total)
		}
	}
	return core.SeriesFromMonths(year, metric, months)
}

// LatestImport returns the most recent import of source, or ErrNotFound.
func (r *SQLiteRepository) LatestImport(ctx context.Context, source string) (Import, error) {
	row, err := r.queries.GetLatestImport(ctx, source)
	if errors.Is(err, sql.ErrNoRows) {
		return Import{}, ErrNotFound
	}
	if err != nil {
		return Import{}, fmt.Errorf("get latest import: %w", err)
	}
	at, err := time.ParseInLocation(timeLayout, row.ImportedAt, time.UTC)
	if err != nil {
		return Import{}, fmt.Errorf("parse import time %q: %w", row.ImportedAt, err)
	}
	return Import{
		ID:         row.ID,
		Source:     row.Source,
		RowsTotal:  int(row.RowsTotal),
		BadDates:   int(row.BadDates),
		BadAmounts: int(row.BadAmounts),
		ImportedAt: at,
	}, nil
}

// CountSales returns the number of stored rows.
func (r *SQLiteRepository) CountSales(ctx context.Context) (int64, error) {
	return r.queries.CountSales(ctx)
}

func toSales(rows []SaleRow) ([]core.Sale, error) {
	out := make([]core.Sale, 0, len(rows))
	for _, row := range rows {
		s := core.Sale{
			PaidAmount: core.Money{Cents: row.PaidAmountCents},
			Quantity:   row.Quantity,
			Province:   row.Province,
		}
		if row.PaymentDate.Valid {
			t, err := time.ParseInLocation(timeLayout, row.PaymentDate.String, time.UTC)
			if err != nil {
				return nil, fmt.Errorf("parse payment date %q: %w", row.PaymentDate.String, err)
			}
			s.PaymentDate = t
		}
		out = append(out, s)
	}
	return out, nil
}
