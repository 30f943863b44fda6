package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"kitabu/internal/core"
	"kitabu/internal/kv"
	"kitabu/internal/kv/memory"
	"kitabu/internal/log"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// flakyStorage fails Set while failing is true.
type flakyStorage struct {
	*memory.Store
	mu      sync.Mutex
	failing bool
	sets    int
}

func (f *flakyStorage) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.failing {
		return errors.New("quota exceeded")
	}
	return f.Store.Set(ctx, key, value)
}

func (f *flakyStorage) setFailing(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = v
}

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func openStore(t *testing.T, storage kv.Storage) *Store {
	t.Helper()
	return openStoreWithClock(t, storage, &fakeClock{now: t0})
}

func openStoreWithClock(t *testing.T, storage kv.Storage, clock Clock) *Store {
	t.Helper()
	s, err := Open(context.Background(), storage, WithClock(clock), WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func mustCreate(t *testing.T, s *Store, desc, amount, cat string) core.Expense {
	t.Helper()
	e, err := s.Create(context.Background(), core.Input{Description: desc, Amount: amount, Category: cat})
	if err != nil {
		t.Fatalf("create %q: %v", desc, err)
	}
	return e
}

func TestOpenEmptyStorage(t *testing.T) {
	s := openStore(t, memory.New(nil))
	if len(s.List()) != 0 {
		t.Fatalf("expected empty ledger")
	}
	if s.Budget() != DefaultBudget {
		t.Fatalf("expected default budget, got %v", s.Budget())
	}
}

func TestCreateAssignsIDAndTimestamp(t *testing.T) {
	clock := &fakeClock{now: t0}
	s := openStoreWithClock(t, memory.New(nil), clock)
	a := mustCreate(t, s, "Lunch", "500", "Food")
	clock.Advance(time.Minute)
	b := mustCreate(t, s, "Bus", "100", "Transport")

	if a.ID == b.ID {
		t.Fatalf("ids must be unique: %d", a.ID)
	}
	if !a.CreatedAt.Equal(t0) || !b.CreatedAt.Equal(t0.Add(time.Minute)) {
		t.Fatalf("unexpected timestamps %v %v", a.CreatedAt, b.CreatedAt)
	}
	list := s.List()
	if len(list) != 2 || list[0].ID != a.ID || list[1].ID != b.ID {
		t.Fatalf("expected insertion order, got %+v", list)
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	storage := &flakyStorage{Store: memory.New(nil)}
	s := openStore(t, storage)
	rev := s.Revision()

	_, err := s.Create(context.Background(), core.Input{Description: "", Amount: "10", Category: "Food"})
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(s.List()) != 0 || s.Revision() != rev {
		t.Fatalf("no record should be added")
	}
	if storage.sets != 0 {
		t.Fatalf("no write expected, got %d", storage.sets)
	}
}

func TestUpdate(t *testing.T) {
	s := openStore(t, memory.New(nil))
	e := mustCreate(t, s, "Bus", "100", "Transport")

	amount := "120.50"
	desc := "  Night bus "
	got, err := s.Update(context.Background(), e.ID, core.Patch{Amount: &amount, Description: &desc})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.ID != e.ID || !got.CreatedAt.Equal(e.CreatedAt) {
		t.Fatalf("id and timestamp must not change: %+v", got)
	}
	if got.Description != "Night bus" || got.Amount.Cents != 12050 || got.Category != core.Transport {
		t.Fatalf("unexpected update result: %+v", got)
	}
	if stored, _ := s.Get(e.ID); stored != got {
		t.Fatalf("store not updated in place: %+v", stored)
	}
}

func TestUpdateInvalidLeavesRecord(t *testing.T) {
	s := openStore(t, memory.New(nil))
	e := mustCreate(t, s, "Bus", "100", "Transport")

	cat := "Travel"
	if _, err := s.Update(context.Background(), e.ID, core.Patch{Category: &cat}); !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if got, _ := s.Get(e.ID); got != e {
		t.Fatalf("record changed after failed update: %+v", got)
	}
}

func TestUpdateUnknownID(t *testing.T) {
	s := openStore(t, memory.New(nil))
	mustCreate(t, s, "Lunch", "500", "Food")
	before := s.List()

	amount := "10"
	_, err := s.Update(context.Background(), 999, core.Patch{Amount: &amount})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	after := s.List()
	if len(after) != len(before) || after[0] != before[0] {
		t.Fatalf("state changed: %+v", after)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	storage := &flakyStorage{Store: memory.New(nil)}
	s := openStore(t, storage)
	a := mustCreate(t, s, "Lunch", "500", "Food")
	b := mustCreate(t, s, "Bus", "100", "Transport")

	ctx := context.Background()
	if err := s.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	once := s.List()
	writes := storage.sets

	if err := s.Delete(ctx, a.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	twice := s.List()
	if len(once) != 1 || len(twice) != 1 || once[0] != twice[0] || twice[0].ID != b.ID {
		t.Fatalf("delete not idempotent: %+v vs %+v", once, twice)
	}
	if storage.sets != writes {
		t.Fatalf("no-op delete must not write")
	}
	if _, err := s.Get(a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestBudgetAcceptsAnyValue(t *testing.T) {
	s := openStore(t, memory.New(nil))
	for _, cents := range []int64{100000, 0, -5000} {
		if err := s.SetBudget(context.Background(), core.Money{Cents: cents}); err != nil {
			t.Fatalf("set budget: %v", err)
		}
		if s.Budget().Cents != cents {
			t.Fatalf("expected %d, got %d", cents, s.Budget().Cents)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	storage := memory.New(nil)
	s := openStore(t, storage)
	mustCreate(t, s, "Lunch", "500", "Food")
	mustCreate(t, s, "Bus", "100.25", "transport")
	mustCreate(t, s, "Cinema", "750", "")
	if err := s.SetBudget(context.Background(), core.Money{Cents: 250000}); err != nil {
		t.Fatalf("set budget: %v", err)
	}

	reloaded := openStore(t, storage)
	want, got := s.List(), reloaded.List()
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Description != want[i].Description ||
			got[i].Amount != want[i].Amount || got[i].Category != want[i].Category ||
			!got[i].CreatedAt.Equal(want[i].CreatedAt) {
			t.Fatalf("record %d differs: %+v vs %+v", i, got[i], want[i])
		}
	}
	if reloaded.Budget() != s.Budget() {
		t.Fatalf("budget differs: %v vs %v", reloaded.Budget(), s.Budget())
	}

	// ids keep increasing after reload
	next := mustCreate(t, reloaded, "Tea", "50", "Food")
	if next.ID <= want[len(want)-1].ID {
		t.Fatalf("expected id above %d, got %d", want[len(want)-1].ID, next.ID)
	}
}

func TestPersistedLayout(t *testing.T) {
	storage := memory.New(nil)
	s := openStore(t, storage)
	mustCreate(t, s, "Lunch", "500", "Food")

	ctx := context.Background()
	raw, ok, _ := storage.Get(ctx, KeyExpenses)
	if !ok {
		t.Fatalf("expenses not persisted")
	}
	want := `[{"id":1,"description":"Lunch","amount":500.00,"category":"Food","date":"2025-03-10T09:00:00Z"}]`
	if raw != want {
		t.Fatalf("unexpected layout:\n got %s\nwant %s", raw, want)
	}

	if err := s.SetBudget(ctx, core.Money{Cents: 100000}); err != nil {
		t.Fatalf("set budget: %v", err)
	}
	if raw, _, _ := storage.Get(ctx, KeyBudget); raw != "1000.00" {
		t.Fatalf("unexpected budget text %q", raw)
	}
}

func TestPersistFailureIsRetried(t *testing.T) {
	storage := &flakyStorage{Store: memory.New(nil)}
	s := openStore(t, storage)
	ctx := context.Background()

	storage.setFailing(true)
	e, err := s.Create(ctx, core.Input{Description: "Lunch", Amount: "500", Category: "Food"})
	if err != nil {
		t.Fatalf("write failure must not fail the operation: %v", err)
	}
	if s.PersistErr() == nil {
		t.Fatalf("expected PersistErr after failed write")
	}
	if got, _ := s.Get(e.ID); got != e {
		t.Fatalf("in-memory state must stay authoritative")
	}

	storage.setFailing(false)
	if err := s.SetBudget(ctx, core.Money{Cents: 5000}); err != nil {
		t.Fatalf("set budget: %v", err)
	}
	if s.PersistErr() != nil {
		t.Fatalf("expected recovery, got %v", s.PersistErr())
	}
	// the expenses write skipped earlier must have been retried
	reloaded := openStore(t, storage.Store)
	if len(reloaded.List()) != 1 || reloaded.Budget().Cents != 5000 {
		t.Fatalf("expected retried write, got %d records budget %v", len(reloaded.List()), reloaded.Budget())
	}
}

func TestCorruptStateLoadsEmpty(t *testing.T) {
	cases := map[string]map[string]string{
		"bad json":      {KeyExpenses: "{not json", KeyBudget: "abc"},
		"invalid entry": {KeyExpenses: `[{"id":1,"description":"","amount":5,"category":"Food","date":"2025-01-01T00:00:00Z"}]`},
		"duplicate id": {KeyExpenses: `[{"id":1,"description":"a","amount":5,"category":"Food","date":"2025-01-01T00:00:00Z"},` +
			`{"id":1,"description":"b","amount":5,"category":"Food","date":"2025-01-02T00:00:00Z"}]`},
		"bad date": {KeyExpenses: `[{"id":1,"description":"a","amount":5,"category":"Food","date":"yesterday"}]`},
	}
	for name, seed := range cases {
		t.Run(name, func(t *testing.T) {
			s := openStore(t, memory.New(seed))
			if len(s.List()) != 0 {
				t.Fatalf("expected empty ledger, got %+v", s.List())
			}
			if s.Budget() != DefaultBudget {
				t.Fatalf("expected default budget, got %v", s.Budget())
			}
		})
	}
}

func TestKeysLoadIndependently(t *testing.T) {
	s := openStore(t, memory.New(map[string]string{
		KeyExpenses: "garbage",
		KeyBudget:   "2500",
	}))
	if len(s.List()) != 0 || s.Budget().Cents != 250000 {
		t.Fatalf("budget should survive a corrupt collection: %v", s.Budget())
	}
}

func TestLoadLegacyRecords(t *testing.T) {
	seed := map[string]string{
		KeyExpenses: `[{"id":1709283600000,"description":"Lunch","amount":500,"category":"Food","date":"3/1/2024"},` +
			`{"id":1709370000000,"description":"Taxi","amount":"250.5","category":"Transport","date":"2024-03-02T09:00:00.000Z"}]`,
		KeyBudget: "1000",
	}
	s := openStore(t, memory.New(seed))
	list := s.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 legacy records, got %d", len(list))
	}
	if list[0].CreatedAt.Format("2006-01-02") != "2024-03-01" || list[1].Amount.Cents != 25050 {
		t.Fatalf("unexpected legacy parse: %+v", list)
	}
	next := mustCreate(t, s, "Tea", "1", "Food")
	if next.ID != 1709370000001 {
		t.Fatalf("expected counter to continue after largest id, got %d", next.ID)
	}
}

func TestOpenReturnsReadError(t *testing.T) {
	_, err := Open(context.Background(), failingReader{}, WithLogger(log.Discard()))
	if err == nil || !strings.Contains(err.Error(), KeyExpenses) {
		t.Fatalf("expected read error, got %v", err)
	}
}

type failingReader struct{}

func (failingReader) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("connection refused")
}

func (failingReader) Set(context.Context, string, string) error { return nil }

func TestConcurrentCreatesGetUniqueIDs(t *testing.T) {
	s := openStore(t, memory.New(nil))
	const n = 50

	var wg sync.WaitGroup
	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := s.Create(context.Background(), core.Input{Description: fmt.Sprintf("item %d", i), Amount: "1"})
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			ids <- e.ID
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
	if len(seen) != n || len(s.List()) != n {
		t.Fatalf("expected %d records, got %d", n, len(s.List()))
	}
}

func TestRevisionAdvancesOnMutation(t *testing.T) {
	s := openStore(t, memory.New(nil))
	r0 := s.Revision()
	e := mustCreate(t, s, "Lunch", "5", "Food")
	r1 := s.Revision()
	_ = s.Delete(context.Background(), 12345)
	if s.Revision() != r1 {
		t.Fatalf("no-op delete must not bump revision")
	}
	_ = s.Delete(context.Background(), e.ID)
	if !(r0 < r1 && r1 < s.Revision()) {
		t.Fatalf("revision should advance: %d %d %d", r0, r1, s.Revision())
	}
}
