package worker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"salescharts/internal/amqp"
	"salescharts/internal/core"
	"salescharts/internal/log"
	"salescharts/internal/sheets"
	"salescharts/internal/sheets/xlsx"
	"salescharts/internal/storage"
)

// Importer persists a decoded table under an import id.
type Importer interface {
	ImportSales(ctx context.Context, importID, source string, table core.SalesTable) (storage.Import, error)
}

// OpenFunc resolves a source to a reader.
type OpenFunc func(ctx context.Context, source, sheet string) (sheets.SalesReader, error)

// ImportWorker handles import jobs from AMQP by reading the source and
// replacing its rows in storage.
type ImportWorker struct {
	store  Importer
	open   OpenFunc
	events *log.StructuredLogger
}

func NewImportWorker(store Importer) *ImportWorker {
	return &ImportWorker{
		store:  store,
		open:   OpenReader,
		events: log.NewStructuredLogger(log.New(log.Config{Handler: slog.Default().Handler(), Component: log.ComponentWorker})),
	}
}

// HandleImport processes a single import message. Errors that a retry
// cannot fix are logged and swallowed so the message is acknowledged;
// everything else is returned and the message requeued.
func (w *ImportWorker) HandleImport(ctx context.Context, msg *amqp.ImportMessage) error {
	start := time.Now()
	slog.InfoContext(ctx, "Processing import message",
		"job_id", msg.JobID,
		"source", msg.Source,
		"sheet", msg.Sheet)

	rec, err := w.Import(ctx, msg.JobID, msg.Source, msg.Sheet)
	if err != nil {
		if isPermanent(err) {
			slog.ErrorContext(ctx, "Dropping import that cannot succeed",
				"job_id", msg.JobID,
				"source", msg.Source,
				"error", err)
			return nil
		}
		return err
	}

	w.events.LogImportCompleted(ctx, rec.ID, rec.Source, rec.RowsTotal, rec.BadDates, rec.BadAmounts)
	slog.DebugContext(ctx, "Import timing", "job_id", rec.ID, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Import reads source and stores it under importID. It is shared by the
// AMQP handler and direct imports from the CLI.
func (w *ImportWorker) Import(ctx context.Context, importID, source, sheet string) (storage.Import, error) {
	reader, err := w.open(ctx, source, sheet)
	if err != nil {
		return storage.Import{}, fmt.Errorf("open source: %w", err)
	}
	table, err := reader.ReadSales(ctx)
	if err != nil {
		return storage.Import{}, fmt.Errorf("read source %s: %w", source, err)
	}
	rec, err := w.store.ImportSales(ctx, importID, source, table)
	if err != nil {
		return storage.Import{}, fmt.Errorf("store import: %w", err)
	}
	return rec, nil
}

func isPermanent(err error) bool {
	return errors.Is(err, ErrUnknownSource) ||
		errors.Is(err, sheets.ErrMissingColumn) ||
		errors.Is(err, sheets.ErrEmptySheet) ||
		errors.Is(err, xlsx.ErrSheetNotFound) ||
		errors.Is(err, fs.ErrNotExist)
}
