package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kitabu/internal/core"
	"kitabu/internal/log"
)

// storedExpense is the persisted shape of one record.
type storedExpense struct {
	ID          int64      `json:"id"`
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	Date        string     `json:"date"`
}

// Layouts accepted for the date field, newest first.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02",
	"1/2/2006",
}

func encodeExpenses(expenses []core.Expense) (string, error) {
	out := make([]storedExpense, len(expenses))
	for i, e := range expenses {
		out[i] = storedExpense{
			ID:          e.ID,
			Description: e.Description,
			Amount:      e.Amount,
			Category:    string(e.Category),
			Date:        e.CreatedAt.Format(time.RFC3339Nano),
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode expenses: %w", err)
	}
	return string(b), nil
}

func encodeBudget(m core.Money) string {
	return m.String()
}

// decodeExpenses parses the persisted collection. Any invalid entry rejects
// the whole value.
func decodeExpenses(raw string, loc *time.Location) ([]core.Expense, error) {
	var stored []storedExpense
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("decode expenses: %w", err)
	}

	seen := make(map[int64]bool, len(stored))
	out := make([]core.Expense, 0, len(stored))
	for i, se := range stored {
		if seen[se.ID] {
			return nil, fmt.Errorf("record %d: duplicate id %d", i, se.ID)
		}
		seen[se.ID] = true

		f, err := core.Validate(core.Input{
			Description: se.Description,
			Amount:      se.Amount.String(),
			Category:    se.Category,
		})
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		created, err := parseDate(se.Date, loc)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, core.Expense{
			ID:          se.ID,
			Description: f.Description,
			Amount:      f.Amount,
			Category:    f.Category,
			CreatedAt:   created,
		})
	}
	return out, nil
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func (s *Store) load(ctx context.Context) error {
	loc := s.clock.Now().Location()

	s.expenses = nil
	raw, ok, err := s.read(ctx, KeyExpenses)
	if err != nil {
		return fmt.Errorf("load %s: %w", KeyExpenses, err)
	}
	if ok {
		expenses, err := decodeExpenses(raw, loc)
		if err != nil {
			s.warnCorrupt(ctx, KeyExpenses, err)
		} else {
			s.expenses = expenses
		}
	}
	for _, e := range s.expenses {
		if e.ID > s.lastID {
			s.lastID = e.ID
		}
	}

	s.budget = s.defaultBudget
	raw, ok, err = s.read(ctx, KeyBudget)
	if err != nil {
		return fmt.Errorf("load %s: %w", KeyBudget, err)
	}
	if ok {
		if m, err := core.ParseMoney(raw); err != nil {
			s.warnCorrupt(ctx, KeyBudget, err)
		} else {
			s.budget = m
		}
	}

	s.logger.InfoContext(ctx, "Ledger loaded",
		log.FieldOperation, log.OpLoad,
		log.FieldCount, len(s.expenses),
		log.FieldAmountCents, s.budget.Cents)
	return nil
}

func (s *Store) warnCorrupt(ctx context.Context, key string, err error) {
	s.logger.WarnContext(ctx, "Discarding unreadable persisted value", log.NewFields().
		WithOperation(log.OpLoad).
		WithKey(key).
		WithErrorType(log.ErrorTypeCorrupt).
		WithError(err).
		ToSlice()...)
}
