package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"kitabu/internal/kv"
)

// seedFiles maps ledger keys to the file names NewFromDir looks for.
var seedFiles = map[string]string{
	"expenses": "expenses.json",
	"budget":   "budget.txt",
}

// Store keeps values in process memory. Nothing survives a restart.
type Store struct {
	mu    sync.Mutex
	items map[string]string
}

var _ kv.Storage = (*Store)(nil)

func New(seed map[string]string) *Store {
	items := make(map[string]string, len(seed))
	for k, v := range seed {
		items[k] = v
	}
	return &Store{items: items}
}

// NewFromDir seeds the store from files in base (expenses.json, budget.txt).
// Missing or empty files are skipped.
func NewFromDir(base string) *Store {
	seed := map[string]string{}
	for key, name := range seedFiles {
		if v := readFile(filepath.Join(base, name)); v != "" {
			seed[key] = v
		}
	}
	return New(seed)
}

// Get returns the stored value for key.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

// Keys returns the number of stored keys.
func (s *Store) Keys() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func readFile(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
