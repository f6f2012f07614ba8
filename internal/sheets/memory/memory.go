package memory

import (
	"context"
	"sync"

	"bookkeeper/internal/core"
	ports "bookkeeper/internal/sheets"
)

var _ ports.RowSetReader = (*Store)(nil)

// Store holds fixed row-sets in memory.
type Store struct {
	mu   sync.Mutex
	sets []core.RowSet
}

func New(sets ...core.RowSet) *Store {
	s := &Store{}
	for _, rs := range sets {
		s.Add(rs)
	}
	return s
}

// Add appends a copy of rs.
func (s *Store) Add(rs core.RowSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets = append(s.sets, clone(rs))
}

// ReadRowSets returns copies of the stored row-sets in insertion order.
func (s *Store) ReadRowSets(_ context.Context) ([]core.RowSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.RowSet, len(s.sets))
	for i, rs := range s.sets {
		out[i] = clone(rs)
	}
	return out, nil
}

func clone(rs core.RowSet) core.RowSet {
	rows := make([][]string, len(rs.Rows))
	for i, r := range rs.Rows {
		rows[i] = append([]string(nil), r...)
	}
	return core.RowSet{Name: rs.Name, Rows: rows}
}
