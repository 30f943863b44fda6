package memory

import (
	"context"
	"sync"

	"kitabu/internal/export"
	"kitabu/internal/sheets"
)

// Store keeps the last rows written to each sheet. Used when no spreadsheet
// is configured and in tests.
type Store struct {
	mu     sync.Mutex
	sheets map[string][][]any
	writes int
}

var _ sheets.RowWriter = (*Store)(nil)

func New() *Store {
	return &Store{sheets: map[string][][]any{}}
}

func (s *Store) ReplaceRows(ctx context.Context, sheet string, rows []export.Row) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[sheet] = sheets.Table(rows)
	s.writes++
	return len(rows), nil
}

// Sheet returns a copy of the cells last written to name.
func (s *Store) Sheet(name string) ([][]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cells, ok := s.sheets[name]
	if !ok {
		return nil, false
	}
	out := make([][]any, len(cells))
	for i, line := range cells {
		out[i] = append([]any(nil), line...)
	}
	return out, true
}

// Writes counts ReplaceRows calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
