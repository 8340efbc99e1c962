package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type ImportRow struct {
	ID         string
	Source     string
	RowsTotal  int64
	BadDates   int64
	BadAmounts int64
	ImportedAt string
}

type SaleRow struct {
	PaymentDate     sql.NullString
	PaidAmountCents int64
	Quantity        int64
	Province        string
}

type MonthTotalRow struct {
	Month int64
	Total int64
}

const deleteSalesBySource = `DELETE FROM sales WHERE source = ?`

func (q *Queries) DeleteSalesBySource(ctx context.Context, source string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteSalesBySource, source)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteImportsBySource = `DELETE FROM imports WHERE source = ?`

func (q *Queries) DeleteImportsBySource(ctx context.Context, source string) error {
	_, err := q.db.ExecContext(ctx, deleteImportsBySource, source)
	return err
}

const createImport = `INSERT INTO imports (id, source, rows_total, bad_dates, bad_amounts, imported_at)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateImport(ctx context.Context, arg ImportRow) error {
	_, err := q.db.ExecContext(ctx, createImport,
		arg.ID, arg.Source, arg.RowsTotal, arg.BadDates, arg.BadAmounts, arg.ImportedAt)
	return err
}

const insertSale = `INSERT INTO sales (import_id, source, payment_date, year, month, paid_amount_cents, quantity, province)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// PrepareInsertSale returns a statement taking the insertSale arguments in
// column order.
func (q *Queries) PrepareInsertSale(ctx context.Context) (*sql.Stmt, error) {
	return q.db.PrepareContext(ctx, insertSale)
}

const listSalesByYear = `SELECT payment_date, paid_amount_cents, quantity, province
FROM sales WHERE year = ? ORDER BY payment_date, id`

func (q *Queries) ListSalesByYear(ctx context.Context, year int64) ([]SaleRow, error) {
	return q.listSales(ctx, listSalesByYear, year)
}

const listAllSales = `SELECT payment_date, paid_amount_cents, quantity, province
FROM sales ORDER BY id`

func (q *Queries) ListAllSales(ctx context.Context) ([]SaleRow, error) {
	return q.listSales(ctx, listAllSales)
}

func (q *Queries) listSales(ctx context.Context, query string, args ...interface{}) ([]SaleRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SaleRow
	for rows.Next() {
		var i SaleRow
		if err := rows.Scan(&i.PaymentDate, &i.PaidAmountCents, &i.Quantity, &i.Province); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listYears = `SELECT DISTINCT year FROM sales WHERE year > 0 ORDER BY year`

func (q *Queries) ListYears(ctx context.Context) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, listYears)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int64
	for rows.Next() {
		var y int64
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		items = append(items, y)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const monthlyAmountTotals = `SELECT month, COALESCE(SUM(paid_amount_cents), 0)
FROM sales WHERE year = ? AND month BETWEEN 1 AND 12 GROUP BY month ORDER BY month`

const monthlyQuantityTotals = `SELECT month, COALESCE(SUM(quantity), 0)
FROM sales WHERE year = ? AND month BETWEEN 1 AND 12 GROUP BY month ORDER BY month`

func (q *Queries) MonthlyAmountTotals(ctx context.Context, year int64) ([]MonthTotalRow, error) {
	return q.monthTotals(ctx, monthlyAmountTotals, year)
}

func (q *Queries) MonthlyQuantityTotals(ctx context.Context, year int64) ([]MonthTotalRow, error) {
	return q.monthTotals(ctx, monthlyQuantityTotals, year)
}

func (q *Queries) monthTotals(ctx context.Context, query string, year int64) ([]MonthTotalRow, error) {
	rows, err := q.db.QueryContext(ctx, query, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MonthTotalRow
	for rows.Next() {
		var i MonthTotalRow
		if err := rows.Scan(&i.Month, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getLatestImport = `SELECT id, source, rows_total, bad_dates, bad_amounts, imported_at
FROM imports WHERE source = ? ORDER BY imported_at DESC LIMIT 1`

func (q *Queries) GetLatestImport(ctx context.Context, source string) (ImportRow, error) {
	row := q.db.QueryRowContext(ctx, getLatestImport, source)
	var i ImportRow
	err := row.Scan(&i.ID, &i.Source, &i.RowsTotal, &i.BadDates, &i.BadAmounts, &i.ImportedAt)
	return i, err
}

const countSales = `SELECT COUNT(*) FROM sales`

func (q *Queries) CountSales(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countSales).Scan(&n)
	return n, err
}
