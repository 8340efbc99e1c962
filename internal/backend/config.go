package backend

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"salescharts/internal/config"
	"salescharts/internal/worker"
)

// ErrUnknownBackend is returned for a backend name that is not supported.
var ErrUnknownBackend = errors.New("unknown backend")

// BackendType names where sales are read from.
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
)

var backendTypes = []BackendType{FileBackend, SQLiteBackend, SheetsBackend}

// ParseBackendType accepts a backend name in any case.
func ParseBackendType(s string) (BackendType, error) {
	bt := BackendType(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(backendTypes, bt) {
		return "", fmt.Errorf("%w %q: must be one of %s", ErrUnknownBackend, s, strings.Join(BackendTypeStrings(), ", "))
	}
	return bt, nil
}

func (bt BackendType) String() string {
	return string(bt)
}

// BackendTypeStrings lists the supported backend names.
func BackendTypeStrings() []string {
	names := make([]string, len(backendTypes))
	for i, bt := range backendTypes {
		names[i] = bt.String()
	}
	return names
}

// Config holds what the factory needs for any backend. Only the fields of
// the selected Type are read.
type Config struct {
	Type BackendType

	// file
	SalesFile       string
	SalesSheet      string
	RefreshInterval time.Duration
	// OnReload runs after the file backend picks up a changed file.
	OnReload func()

	// sqlite
	SQLiteDBPath string

	// sheets
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

// FromAppConfig picks the backend settings out of the application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	bt, err := ParseBackendType(appConfig.DataBackend)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Type:                bt,
		SalesFile:           appConfig.SalesFile,
		SalesSheet:          appConfig.SalesSheet,
		RefreshInterval:     appConfig.RefreshInterval,
		SQLiteDBPath:        appConfig.SQLiteDBPath,
		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		GoogleSheetName:     appConfig.GoogleSheetName,
	}, nil
}

// Validate checks the fields the selected backend needs.
func (c Config) Validate() error {
	switch c.Type {
	case FileBackend:
		switch {
		case c.SalesFile == "":
			return errors.New("sales file is required for file backend")
		case strings.HasPrefix(c.SalesFile, worker.SheetsPrefix):
			return fmt.Errorf("file backend needs a local file, got %s", c.SalesFile)
		case c.RefreshInterval < 0:
			return fmt.Errorf("negative refresh interval %v", c.RefreshInterval)
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets backend")
		}
	default:
		return fmt.Errorf("%w %q", ErrUnknownBackend, c.Type)
	}
	return nil
}
