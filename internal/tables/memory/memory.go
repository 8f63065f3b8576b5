// Package memory is an in-process table source used by tests and by the
// monthly derivation command to hand tables around without touching disk.
package memory

import (
	"context"
	"fmt"
	"sync"

	"mibolsillo/internal/tables"
)

type Store struct {
	mu     sync.Mutex
	tables map[tables.Name][][]string
}

var (
	_ tables.Reader = (*Store)(nil)
	_ tables.Writer = (*Store)(nil)
)

func New() *Store {
	return &Store{tables: make(map[tables.Name][][]string)}
}

// Put stores a copy of rows under name.
func (s *Store) Put(name tables.Name, rows [][]string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = cloneRows(rows)
	return s
}

func (s *Store) WriteTable(_ context.Context, name tables.Name, rows [][]string) error {
	s.Put(name, rows)
	return nil
}

// ReadTable returns a copy of the stored rows.
func (s *Store) ReadTable(_ context.Context, name tables.Name) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", tables.ErrTableNotFound, name)
	}
	return cloneRows(rows), nil
}

func cloneRows(in [][]string) [][]string {
	out := make([][]string, len(in))
	for i, row := range in {
		out[i] = append([]string(nil), row...)
	}
	return out
}
