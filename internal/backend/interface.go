package backend

import (
	"context"

	"salescharts/internal/services"
	"salescharts/internal/sheets"
)

// Backend is what the chart service reads sales from.
type Backend interface {
	sheets.SalesLister
	sheets.YearLister
}

// Pinger is implemented by backends with a health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend

	// Refresher reloads the file backend when the file changes. Nil for
	// other backends.
	Refresher *services.RefreshProcessor

	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}
