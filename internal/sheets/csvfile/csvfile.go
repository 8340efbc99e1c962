// Package csvfile reads sales tables exported as comma-separated values.
package csvfile

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"salescharts/internal/core"
	ports "salescharts/internal/sheets"
)

var _ ports.SalesReader = (*Reader)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reader loads a CSV file. Comma is the field separator unless changed.
type Reader struct {
	path  string
	Comma rune
}

func New(path string) *Reader {
	return &Reader{path: path, Comma: ','}
}

func (r *Reader) ReadSales(ctx context.Context) (core.SalesTable, error) {
	if err := ctx.Err(); err != nil {
		return core.SalesTable{}, err
	}
	f, err := os.Open(r.path)
	if err != nil {
		return core.SalesTable{}, fmt.Errorf("open %s: %w", r.path, err)
	}
	defer f.Close()

	table, err := Decode(f, r.Comma)
	if err != nil {
		return core.SalesTable{}, fmt.Errorf("%s: %w", r.path, err)
	}
	return table, nil
}

// Decode parses CSV from src. A leading UTF-8 byte order mark is dropped and
// rows may have differing field counts.
func Decode(src io.Reader, comma rune) (core.SalesTable, error) {
	br := bufio.NewReader(src)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	cr := csv.NewReader(br)
	if comma != 0 {
		cr.Comma = comma
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return core.SalesTable{}, fmt.Errorf("parse csv: %w", err)
	}
	return ports.ParseRows(rows)
}
