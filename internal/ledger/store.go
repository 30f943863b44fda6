// Package ledger owns the expense collection and the budget scalar. Every
// mutation is validated by core.Validate and written through to a kv.Storage
// before it returns.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"kitabu/internal/core"
	"kitabu/internal/kv"
	"kitabu/internal/log"
)

// Storage keys.
const (
	KeyExpenses = "expenses"
	KeyBudget   = "budget"
)

const DefaultTimeout = 5 * time.Second

// DefaultBudget applies when no budget has been persisted.
var DefaultBudget = core.Money{Cents: 1_000_000}

var ErrNotFound = errors.New("expense not found")

// Clock supplies creation timestamps.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

var SystemClock Clock = ClockFunc(time.Now)

type Option func(*Store)

func WithClock(c Clock) Option { return func(s *Store) { s.clock = c } }

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentLedger) }
}

// WithTimeout bounds each storage call. Zero disables the bound.
func WithTimeout(d time.Duration) Option { return func(s *Store) { s.timeout = d } }

func WithDefaultBudget(m core.Money) Option { return func(s *Store) { s.defaultBudget = m } }

// Store is safe for concurrent use.
type Store struct {
	mu sync.Mutex

	kv            kv.Storage
	clock         Clock
	logger        *log.Logger
	timeout       time.Duration
	defaultBudget core.Money

	expenses []core.Expense
	budget   core.Money
	lastID   int64
	revision uint64

	dirty      map[string]bool
	persistErr error
}

// Open loads both keys from storage. Absent or corrupt values fall back to an
// empty ledger and the default budget; only a failing read is returned.
func Open(ctx context.Context, storage kv.Storage, opts ...Option) (*Store, error) {
	s := &Store{
		kv:            storage,
		clock:         SystemClock,
		logger:        log.New(log.DefaultConfig()).WithComponent(log.ComponentLedger),
		timeout:       DefaultTimeout,
		defaultBudget: DefaultBudget,
		dirty:         make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Create validates in, assigns an id and a timestamp and appends the record.
func (s *Store) Create(ctx context.Context, in core.Input) (core.Expense, error) {
	f, err := core.Validate(in)
	if err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	e := core.Expense{
		ID:          s.lastID,
		Description: f.Description,
		Amount:      f.Amount,
		Category:    f.Category,
		CreatedAt:   s.clock.Now(),
	}
	s.expenses = append(s.expenses, e)
	s.mutated(ctx, KeyExpenses)

	s.logger.InfoContext(ctx, "Expense created", log.NewFields().
		WithOperation(log.OpCreate).
		WithExpense(e.ID, e.Description, e.Amount.Cents, string(e.Category)).
		ToSlice()...)
	return e, nil
}

// Update replaces the fields named by p on the record with id.
func (s *Store) Update(ctx context.Context, id int64, p core.Patch) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return core.Expense{}, fmt.Errorf("update %d: %w", id, ErrNotFound)
	}
	f, err := core.Validate(p.Merge(s.expenses[i]))
	if err != nil {
		return core.Expense{}, err
	}

	e := &s.expenses[i]
	e.Description = f.Description
	e.Amount = f.Amount
	e.Category = f.Category
	s.mutated(ctx, KeyExpenses)

	s.logger.InfoContext(ctx, "Expense updated", log.NewFields().
		WithOperation(log.OpUpdate).
		WithExpense(e.ID, e.Description, e.Amount.Cents, string(e.Category)).
		ToSlice()...)
	return *e, nil
}

// Delete removes the record with id if present. Unknown ids are a no-op.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	s.expenses = append(s.expenses[:i:i], s.expenses[i+1:]...)
	s.mutated(ctx, KeyExpenses)

	s.logger.InfoContext(ctx, "Expense deleted", log.FieldOperation, log.OpDelete, log.FieldExpenseID, id)
	return nil
}

// List returns a copy of all records in insertion order.
func (s *Store) List() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, len(s.expenses))
	copy(out, s.expenses)
	return out
}

func (s *Store) Get(id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.expenses[i], nil
	}
	return core.Expense{}, fmt.Errorf("get %d: %w", id, ErrNotFound)
}

func (s *Store) Budget() core.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budget
}

// SetBudget stores m as-is, including zero and negative values.
func (s *Store) SetBudget(ctx context.Context, m core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budget = m
	s.mutated(ctx, KeyBudget)
	s.logger.InfoContext(ctx, "Budget set", log.FieldOperation, log.OpUpdate, log.FieldAmountCents, m.Cents)
	return nil
}

// Revision changes after every mutation.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// PersistErr returns the last write failure, or nil once storage has caught up.
func (s *Store) PersistErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistErr
}

func (s *Store) indexOf(id int64) int {
	for i := range s.expenses {
		if s.expenses[i].ID == id {
			return i
		}
	}
	return -1
}

// mutated marks key dirty and writes every dirty key. Callers hold s.mu.
func (s *Store) mutated(ctx context.Context, key string) {
	s.revision++
	s.dirty[key] = true
	s.flush(ctx)
}

func (s *Store) flush(ctx context.Context) {
	s.persistErr = nil
	for _, key := range []string{KeyExpenses, KeyBudget} {
		if !s.dirty[key] {
			continue
		}
		value, err := s.encode(key)
		if err == nil {
			err = s.write(ctx, key, value)
		}
		if err != nil {
			s.persistErr = fmt.Errorf("persist %s: %w", key, err)
			s.logger.WarnContext(ctx, "Persist failed, keeping in-memory state", log.NewFields().
				WithOperation(log.OpPersist).
				WithKey(key).
				WithErrorType(log.ErrorTypeStorage).
				WithError(err).
				ToSlice()...)
			continue
		}
		delete(s.dirty, key)
	}
}

func (s *Store) encode(key string) (string, error) {
	if key == KeyBudget {
		return encodeBudget(s.budget), nil
	}
	return encodeExpenses(s.expenses)
}

func (s *Store) write(ctx context.Context, key, value string) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.kv.Set(ctx, key, value)
}

func (s *Store) read(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.kv.Get(ctx, key)
}

func (s *Store) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
