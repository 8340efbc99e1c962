package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"salescharts/internal/sheets/csvfile"
	"salescharts/internal/sheets/memory"
)

const csvHeader = "payment_date,paid_amount,quantity,province\n"

func TestRefreshReloadsOnlyOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte(csvHeader+"2024-01-01,10,1,广东\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := memory.NewFromSales(nil)
	reloads := 0
	p := NewRefreshProcessor(csvfile.New(path), store, FileFingerprint(path), func() { reloads++ }, RefreshProcessorConfig{})
	ctx := context.Background()

	changed, err := p.Refresh(ctx)
	if err != nil || !changed {
		t.Fatalf("first refresh should load: changed=%v err=%v", changed, err)
	}
	if store.Len() != 1 || reloads != 1 {
		t.Fatalf("unexpected state: rows=%d reloads=%d", store.Len(), reloads)
	}

	changed, err = p.Refresh(ctx)
	if err != nil || changed {
		t.Fatalf("unchanged file should not reload: changed=%v err=%v", changed, err)
	}

	if err := os.WriteFile(path, []byte(csvHeader+"2024-01-01,10,1,广东\n2024-02-01,5,1,广东\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	changed, err = p.Refresh(ctx)
	if err != nil || !changed {
		t.Fatalf("changed file should reload: changed=%v err=%v", changed, err)
	}
	if store.Len() != 2 || reloads != 2 {
		t.Fatalf("unexpected state after change: rows=%d reloads=%d", store.Len(), reloads)
	}
}

func TestRefreshKeepsTableOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte(csvHeader+"2024-01-01,10,1,广东\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := memory.NewFromSales(nil)
	p := NewRefreshProcessor(csvfile.New(path), store, FileFingerprint(path), nil, RefreshProcessorConfig{})
	p.Prime()
	if changed, _ := p.Refresh(context.Background()); changed {
		t.Fatal("primed processor should not reload an unchanged file")
	}

	if err := os.WriteFile(path, []byte("broken,header\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Refresh(context.Background()); err == nil {
		t.Fatal("expected reload error for a broken file")
	}
	if store.Len() != 0 {
		t.Fatalf("store should be untouched, has %d rows", store.Len())
	}

	os.Remove(path)
	if _, err := p.Refresh(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestRefreshProcessorLifecycle(t *testing.T) {
	store := memory.NewFromSales(nil)
	p := NewRefreshProcessor(memory.NewFromSales(nil), store, nil, nil, RefreshProcessorConfig{PollInterval: 10 * time.Millisecond})
	ctx := context.Background()

	if err := p.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := p.Start(ctx); err == nil {
		t.Error("second Start should fail")
	}
	if !p.IsRunning() {
		t.Error("processor should be running")
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatal(err)
	}
	if p.IsRunning() {
		t.Error("processor should be stopped")
	}
	if err := p.Stop(stopCtx); err != nil {
		t.Error("Stop on a stopped processor should be a no-op")
	}
}
