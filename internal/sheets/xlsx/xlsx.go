// Package xlsx reads sales tables from Excel workbooks.
package xlsx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"salescharts/internal/core"
	ports "salescharts/internal/sheets"
)

var _ ports.SalesReader = (*Reader)(nil)

var ErrSheetNotFound = errors.New("sheet not found")

// Reader loads one sheet of a workbook. The file is reopened on every read
// so edits to the workbook are picked up.
type Reader struct {
	path  string
	data  []byte
	sheet string
}

// New reads the named sheet of the workbook at path; an empty sheet name
// selects the first sheet.
func New(path, sheet string) *Reader {
	return &Reader{path: path, sheet: strings.TrimSpace(sheet)}
}

// FromReader buffers a workbook from r.
func FromReader(r io.Reader, sheet string) (*Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	return &Reader{data: data, sheet: strings.TrimSpace(sheet)}, nil
}

func (r *Reader) ReadSales(ctx context.Context) (core.SalesTable, error) {
	if err := ctx.Err(); err != nil {
		return core.SalesTable{}, err
	}
	f, err := r.open()
	if err != nil {
		return core.SalesTable{}, err
	}
	defer f.Close()

	sheet, err := r.resolveSheet(f)
	if err != nil {
		return core.SalesTable{}, err
	}
	// Raw values keep date cells as serial numbers regardless of the
	// display format chosen in the workbook.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return core.SalesTable{}, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	table, err := ports.ParseRows(rows)
	if err != nil {
		return core.SalesTable{}, fmt.Errorf("sheet %s: %w", sheet, err)
	}
	return table, nil
}

// Sheets lists the sheet names of the workbook in tab order.
func (r *Reader) Sheets() ([]string, error) {
	f, err := r.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

func (r *Reader) open() (*excelize.File, error) {
	if r.data != nil {
		f, err := excelize.OpenReader(bytes.NewReader(r.data))
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		return f, nil
	}
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", r.path, err)
	}
	return f, nil
}

func (r *Reader) resolveSheet(f *excelize.File) (string, error) {
	list := f.GetSheetList()
	if len(list) == 0 {
		return "", ErrSheetNotFound
	}
	if r.sheet == "" {
		return list[0], nil
	}
	for _, name := range list {
		if strings.EqualFold(name, r.sheet) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: %q (have %s)", ErrSheetNotFound, r.sheet, strings.Join(list, ", "))
}
