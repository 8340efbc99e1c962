package memory

import (
	"context"
	"sync"

	"salescharts/internal/core"
	ports "salescharts/internal/sheets"
)

var (
	_ ports.SalesReader = (*Store)(nil)
	_ ports.SalesLister = (*Store)(nil)
	_ ports.YearLister  = (*Store)(nil)
)

// Store keeps a decoded sales table in memory.
type Store struct {
	mu    sync.RWMutex
	table core.SalesTable
	years []int
}

func New(table core.SalesTable) *Store {
	s := &Store{}
	s.Replace(table)
	return s
}

// NewFromSales builds a store from rows without coercion counters.
func NewFromSales(sales []core.Sale) *Store {
	return New(core.SalesTable{Rows: sales})
}

// Load reads every row from r into a new store.
func Load(ctx context.Context, r ports.SalesReader) (*Store, error) {
	table, err := r.ReadSales(ctx)
	if err != nil {
		return nil, err
	}
	return New(table), nil
}

// Replace swaps the stored table.
func (s *Store) Replace(table core.SalesTable) {
	rows := append([]core.Sale(nil), table.Rows...)
	table.Rows = rows
	years := core.Years(rows)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = table
	s.years = years
}

func (s *Store) ReadSales(_ context.Context) (core.SalesTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.table
	out.Rows = append([]core.Sale(nil), s.table.Rows...)
	return out, nil
}

func (s *Store) ListSales(_ context.Context, year int) ([]core.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.InYear(year), nil
}

func (s *Store) ListYears(_ context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]int(nil), s.years...), nil
}

// Len returns the number of stored rows, including rows with unknown dates.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.table.Rows)
}
