package http

import (
	"fmt"
	"net/http"
	"time"

	"kitabu/internal/analytics"
	"kitabu/internal/core"
)

// expenseView is the wire shape of a record.
type expenseView struct {
	ID          int64         `json:"id"`
	Description string        `json:"description"`
	Amount      core.Money    `json:"amount"`
	Category    core.Category `json:"category"`
	Date        string        `json:"date"`
}

func newExpenseView(e core.Expense) expenseView {
	return expenseView{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount,
		Category:    e.Category,
		Date:        e.CreatedAt.Format(time.RFC3339),
	}
}

func newExpenseViews(records []core.Expense) []expenseView {
	out := make([]expenseView, len(records))
	for i, e := range records {
		out[i] = newExpenseView(e)
	}
	return out
}

type expenseListView struct {
	Window   string        `json:"window"`
	Count    int           `json:"count"`
	Expenses []expenseView `json:"expenses"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	kind, err := parseWindow(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	records := analytics.Filter(s.store.List(), kind, s.clock.Now())
	NewJSONResponse().JSON(expenseListView{
		Window:   kind.String(),
		Count:    len(records),
		Expenses: newExpenseViews(records),
	}).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	e, err := s.store.Create(r.Context(), parser.Input())
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).JSON(newExpenseView(e)).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	e, err := s.store.Get(id)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewJSONResponse().JSON(newExpenseView(e)).Write(w)
}

// handleUpdateExpense applies the fields present in the body. PUT and PATCH
// behave the same; omitted fields keep their value.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	patch := parser.Patch()
	if patch.IsEmpty() {
		UnprocessableEntityError("no fields to update").Write(w)
		return
	}

	e, err := s.store.Update(r.Context(), id, patch)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewJSONResponse().JSON(newExpenseView(e)).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type budgetView struct {
	Budget core.Money `json:"budget"`
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(budgetView{Budget: s.store.Budget()}).Write(w)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if !parser.Has("budget") {
		UnprocessableEntityError("budget is required").Write(w)
		return
	}
	m, err := core.ParseMoney(parser.Get("budget"))
	if err != nil {
		ErrorFor(r, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)).Write(w)
		return
	}
	if err := s.store.SetBudget(r.Context(), m); err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewJSONResponse().JSON(budgetView{Budget: m}).Write(w)
}
