package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Entertainment Category = "Entertainment"
	Bills         Category = "Bills"
	Shopping      Category = "Shopping"
	Health        Category = "Health"
	Other         Category = "Other"
)

// MaxDescriptionLength bounds a description after trimming.
const MaxDescriptionLength = 200

type (
	Category string

	// Expense is a single recorded transaction. ID and CreatedAt are assigned by
	// the ledger and never change afterwards.
	Expense struct {
		ID          int64
		Description string
		Amount      Money
		Category    Category
		CreatedAt   time.Time
	}

	// Input is a proposed record as it arrives from a form, a request body or
	// the command line. Amount stays textual until validated.
	Input struct {
		Description string
		Amount      string
		Category    string
	}

	// Patch carries the replaceable fields of an update. Nil fields keep the
	// current value.
	Patch struct {
		Description *string
		Amount      *string
		Category    *string
	}

	// Fields is the normalized result of a successful validation.
	Fields struct {
		Description string
		Amount      Money
		Category    Category
	}
)

var (
	ErrInvalidInput = errors.New("invalid input")

	ErrEmptyDescription   = fmt.Errorf("%w: empty description", ErrInvalidInput)
	ErrDescriptionTooLong = fmt.Errorf("%w: description too long (max %d characters)", ErrInvalidInput, MaxDescriptionLength)
	ErrInvalidAmount      = fmt.Errorf("%w: amount must be a positive number", ErrInvalidInput)
	ErrUnknownCategory    = fmt.Errorf("%w: unknown category", ErrInvalidInput)
)

// Categories lists every category in display order.
var Categories = []Category{Food, Transport, Entertainment, Bills, Shopping, Health, Other}

var glyphs = map[Category]string{
	Food:          "🍔",
	Transport:     "🚗",
	Entertainment: "🎮",
	Bills:         "💡",
	Shopping:      "🛍️",
	Health:        "⚕️",
	Other:         "📦",
}

// ParseCategory matches s case-insensitively against the known categories.
// A blank value maps to Other.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Other, nil
	}
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	_, ok := glyphs[c]
	return ok
}

// Glyph returns the emoji shown next to the category name.
func (c Category) Glyph() string {
	return glyphs[c]
}

// Index returns the position of c in Categories, or len(Categories) if unknown.
func (c Category) Index() int {
	for i, v := range Categories {
		if v == c {
			return i
		}
	}
	return len(Categories)
}

// Validate checks and normalizes a proposed record. Every error it returns
// wraps ErrInvalidInput.
func Validate(in Input) (Fields, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return Fields{}, ErrEmptyDescription
	}
	if len([]rune(desc)) > MaxDescriptionLength {
		return Fields{}, ErrDescriptionTooLong
	}
	cents, err := ParseDecimalToCents(in.Amount)
	if err != nil {
		return Fields{}, err
	}
	cat, err := ParseCategory(in.Category)
	if err != nil {
		return Fields{}, err
	}
	return Fields{
		Description: desc,
		Amount:      Money{Cents: cents},
		Category:    cat,
	}, nil
}

// Merge overlays the patch on an existing expense and returns the input that
// has to pass validation before the update is applied.
func (p Patch) Merge(e Expense) Input {
	in := Input{
		Description: e.Description,
		Amount:      e.Amount.String(),
		Category:    string(e.Category),
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Amount != nil {
		in.Amount = *p.Amount
	}
	if p.Category != nil {
		in.Category = *p.Category
	}
	return in
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Description == nil && p.Amount == nil && p.Category == nil
}
