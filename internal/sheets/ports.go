package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"salescharts/internal/core"
)

// Ports for outbound adapters.
type (
	// SalesReader loads a whole sales table from its source.
	SalesReader interface {
		ReadSales(ctx context.Context) (core.SalesTable, error)
	}

	// SalesLister returns the sales paid in one year.
	SalesLister interface {
		ListSales(ctx context.Context, year int) ([]core.Sale, error)
	}

	// YearLister returns the distinct years present in a source, ascending.
	YearLister interface {
		ListYears(ctx context.Context) ([]int, error)
	}
)

// Column names of the sales sheet.
const (
	ColPaymentDate = "payment_date"
	ColPaidAmount  = "paid_amount"
	ColQuantity    = "quantity"
	ColProvince    = "province"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrEmptySheet    = errors.New("sheet has no header row")
)

var requiredColumns = []string{ColPaymentDate, ColPaidAmount, ColQuantity, ColProvince}

// ParseRows decodes a values matrix whose first non-empty row is the header.
// Cell-level failures are coerced and counted in the returned table; only a
// missing header or required column is an error.
func ParseRows(rows [][]string) (core.SalesTable, error) {
	start := 0
	for start < len(rows) && isBlank(rows[start]) {
		start++
	}
	if start == len(rows) {
		return core.SalesTable{}, ErrEmptySheet
	}

	cols, err := headerIndex(rows[start])
	if err != nil {
		return core.SalesTable{}, err
	}

	table := core.SalesTable{Rows: make([]core.Sale, 0, len(rows)-start-1)}
	for _, row := range rows[start+1:] {
		if isBlank(row) {
			continue
		}
		var s core.Sale
		if t, ok := core.ParsePaymentDate(cell(row, cols[ColPaymentDate])); ok {
			s.PaymentDate = t
		} else {
			table.BadDates++
		}
		amount, okAmount := core.ParseAmount(cell(row, cols[ColPaidAmount]))
		qty, okQty := core.ParseQuantity(cell(row, cols[ColQuantity]))
		if !okAmount || !okQty {
			table.BadAmounts++
		}
		s.PaidAmount = amount
		s.Quantity = qty
		s.Province = strings.TrimSpace(cell(row, cols[ColProvince]))
		table.Rows = append(table.Rows, s)
	}
	return table, nil
}

func headerIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		if _, dup := idx[name]; !dup && name != "" {
			idx[name] = i
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

// cell returns the value at i, treating short rows as padded with blanks.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

