package worker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"salescharts/internal/sheets"
	"salescharts/internal/sheets/csvfile"
	gsheet "salescharts/internal/sheets/google"
	"salescharts/internal/sheets/xlsx"
)

// SheetsPrefix marks a Google Sheets source: "sheets:<spreadsheetID>".
const SheetsPrefix = "sheets:"

var ErrUnknownSource = errors.New("unknown source type")

// OpenReader resolves a source string to a reader. Workbooks are chosen by
// extension; sheet selects the tab and is ignored for CSV.
func OpenReader(ctx context.Context, source, sheet string) (sheets.SalesReader, error) {
	source = strings.TrimSpace(source)
	if id, ok := strings.CutPrefix(source, SheetsPrefix); ok {
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("%w: missing spreadsheet id in %q", ErrUnknownSource, source)
		}
		client, err := gsheet.New(ctx, id, sheet)
		if err != nil {
			return nil, fmt.Errorf("google sheets source: %w", err)
		}
		return client, nil
	}

	switch strings.ToLower(filepath.Ext(source)) {
	case ".xlsx", ".xlsm":
		return xlsx.New(source, sheet), nil
	case ".csv":
		return csvfile.New(source), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
}
