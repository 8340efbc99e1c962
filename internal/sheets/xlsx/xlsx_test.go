package xlsx

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	ports "salescharts/internal/sheets"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]any) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &r))
	}
	return f
}

var salesRows = [][]any{
	{"payment_date", "paid_amount", "quantity", "province"},
	{time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 1200.5, 2, "广东省"},
	{"2024-02-03", "300", 1, "北京市"},
	{"garbage", 10, 1, "上海"},
}

func TestReadSalesFromFile(t *testing.T) {
	f := writeWorkbook(t, "Sheet1", salesRows)
	path := filepath.Join(t.TempDir(), "sales.xlsx")
	require.NoError(t, f.SaveAs(path))

	table, err := New(path, "").ReadSales(context.Background())
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, 1, table.BadDates)
	assert.Equal(t, int64(120050), table.Rows[0].PaidAmount.Cents)
	assert.Equal(t, 2024, table.Rows[0].Year())
	assert.Equal(t, 1, table.Rows[0].Month())
	assert.Equal(t, 2, table.Rows[1].Month())
}

func TestReadSalesNamedSheet(t *testing.T) {
	f := writeWorkbook(t, "Orders", salesRows)
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	r, err := FromReader(bytes.NewReader(buf.Bytes()), "orders")
	require.NoError(t, err)
	table, err := r.ReadSales(context.Background())
	require.NoError(t, err)
	assert.Len(t, table.Rows, 3)

	sheets, err := r.Sheets()
	require.NoError(t, err)
	assert.Contains(t, sheets, "Orders")

	missing, err := FromReader(bytes.NewReader(buf.Bytes()), "Nope")
	require.NoError(t, err)
	_, err = missing.ReadSales(context.Background())
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestReadSalesMissingColumn(t *testing.T) {
	f := writeWorkbook(t, "Sheet1", [][]any{{"payment_date", "paid_amount"}, {"2024-01-01", 1}})
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	r, err := FromReader(buf, "")
	require.NoError(t, err)
	_, err = r.ReadSales(context.Background())
	assert.ErrorIs(t, err, ports.ErrMissingColumn)
}

func TestReadSalesMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent.xlsx"), "").ReadSales(context.Background())
	assert.Error(t, err)
}
