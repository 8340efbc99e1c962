package backend

import (
	"context"
	"fmt"
	"log/slog"

	gsheet "salescharts/internal/sheets/google"
	"salescharts/internal/services"
	"salescharts/internal/sheets/memory"
	"salescharts/internal/storage"
	"salescharts/internal/worker"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case FileBackend:
		return f.createFileBackend(ctx, config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownBackend, config.Type)
	}
}

// createFileBackend loads the spreadsheet into memory and prepares a
// refresher that reloads it when the file changes on disk.
func (f *DefaultFactory) createFileBackend(ctx context.Context, config Config) (*BackendResult, error) {
	reader, err := worker.OpenReader(ctx, config.SalesFile, config.SalesSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to open sales file: %w", err)
	}
	store, err := memory.Load(ctx, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales file: %w", err)
	}

	refresher := services.NewRefreshProcessor(reader, store, services.FileFingerprint(config.SalesFile), config.OnReload,
		services.RefreshProcessorConfig{PollInterval: config.RefreshInterval})
	refresher.Prime()

	f.logger.Info("Initialized file backend",
		"file", config.SalesFile,
		"sheet", config.SalesSheet,
		"rows", store.Len())

	return &BackendResult{
		Backend:   store,
		Refresher: refresher,
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend: sqliteRepo,
		Cleanup: sqliteRepo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := gsheet.New(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend",
		"spreadsheet_id", config.GoogleSpreadsheetID,
		"sheet", config.GoogleSheetName)

	return &BackendResult{
		Backend: cli,
	}, nil
}
