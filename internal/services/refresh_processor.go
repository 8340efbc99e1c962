package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"salescharts/internal/core"
	"salescharts/internal/sheets"
)

// RefreshProcessorConfig holds configuration for the refresh processor
type RefreshProcessorConfig struct {
	// PollInterval is how often the source is checked for changes (default: 1m)
	PollInterval time.Duration
}

// DefaultRefreshProcessorConfig returns sensible defaults
func DefaultRefreshProcessorConfig() RefreshProcessorConfig {
	return RefreshProcessorConfig{PollInterval: time.Minute}
}

// TableReplacer receives a freshly read table.
type TableReplacer interface {
	Replace(table core.SalesTable)
}

// Fingerprint identifies a version of the source. A reload happens only
// when it changes.
type Fingerprint func() (string, error)

// FileFingerprint tracks a file by size and modification time.
func FileFingerprint(path string) Fingerprint {
	return func() (string, error) {
		info, err := os.Stat(path)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d:%d", info.Size(), info.ModTime().UnixNano()), nil
	}
}

// RefreshProcessor keeps an in-memory copy of a spreadsheet current by
// rereading it when it changes.
type RefreshProcessor struct {
	reader      sheets.SalesReader
	target      TableReplacer
	fingerprint Fingerprint
	onReload    func()
	config      RefreshProcessorConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	last    string
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRefreshProcessor creates a processor. A nil fingerprint reloads on
// every poll; onReload (optional) runs after each successful reload.
func NewRefreshProcessor(reader sheets.SalesReader, target TableReplacer, fingerprint Fingerprint, onReload func(), config RefreshProcessorConfig) *RefreshProcessor {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultRefreshProcessorConfig().PollInterval
	}
	return &RefreshProcessor{
		reader:      reader,
		target:      target,
		fingerprint: fingerprint,
		onReload:    onReload,
		config:      config,
	}
}

// Start begins the polling loop. Returns an error if already running.
func (p *RefreshProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("refresh processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Refresh processor started", "poll_interval", p.config.PollInterval)
	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *RefreshProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Refresh processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Refresh processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

// IsRunning returns whether the processor is currently running
func (p *RefreshProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Prime records the current fingerprint without reloading, for a target
// that was just loaded from the same source.
func (p *RefreshProcessor) Prime() {
	if p.fingerprint == nil {
		return
	}
	if fp, err := p.fingerprint(); err == nil {
		p.mu.Lock()
		p.last = fp
		p.mu.Unlock()
	}
}

func (p *RefreshProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.Refresh(ctx); err != nil {
				slog.WarnContext(ctx, "Source refresh failed", "error", err)
			}
		}
	}
}

// Refresh rereads the source if it changed since the last load and reports
// whether the target was replaced. A failed read keeps the previous table.
func (p *RefreshProcessor) Refresh(ctx context.Context) (bool, error) {
	var fp string
	if p.fingerprint != nil {
		var err error
		fp, err = p.fingerprint()
		if err != nil {
			return false, fmt.Errorf("fingerprint source: %w", err)
		}
		p.mu.Lock()
		unchanged := fp == p.last
		p.mu.Unlock()
		if unchanged {
			return false, nil
		}
	}

	table, err := p.reader.ReadSales(ctx)
	if err != nil {
		return false, fmt.Errorf("reload source: %w", err)
	}
	p.target.Replace(table)

	p.mu.Lock()
	p.last = fp
	p.mu.Unlock()

	if p.onReload != nil {
		p.onReload()
	}
	slog.InfoContext(ctx, "Sales source reloaded",
		"rows", len(table.Rows),
		"bad_dates", table.BadDates,
		"bad_amounts", table.BadAmounts)
	return true, nil
}
