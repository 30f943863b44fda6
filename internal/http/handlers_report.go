package http

import (
	"errors"
	"net/http"
	"strconv"

	"kitabu/internal/analytics"
	"kitabu/internal/charts"
	"kitabu/internal/core"
	"kitabu/internal/log"
)

type summaryView struct {
	Window     string                `json:"window"`
	Count      int                   `json:"count"`
	Total      core.Money            `json:"total"`
	Budget     core.Money            `json:"budget"`
	Status     analytics.Status      `json:"status"`
	Categories []core.CategoryAmount `json:"categories"`
}

// handleSummary evaluates the budget against the window's total.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	kind, err := parseWindow(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	records := analytics.Filter(s.store.List(), kind, s.clock.Now())
	total := analytics.TotalAmount(records)
	budget := s.store.Budget()

	NewJSONResponse().JSON(summaryView{
		Window:     kind.String(),
		Count:      len(records),
		Total:      total,
		Budget:     budget,
		Status:     analytics.BudgetStatus(total, budget),
		Categories: analytics.SortedCategoryTotals(records),
	}).Write(w)
}

type trendView struct {
	Months []core.MonthAmount `json:"months"`
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	NewJSONResponse().JSON(trendView{
		Months: analytics.MonthlyTrend(s.store.List(), limit),
	}).Write(w)
}

// handleTrendChart renders the trend as PNG. Renders are cached per store
// revision so any mutation invalidates them.
func (s *Server) handleTrendChart(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	key := "trend:" + strconv.FormatUint(s.store.Revision(), 10) + ":" + strconv.Itoa(limit)
	png, hit, err := s.chartCache.GetOrCompute(key, func() ([]byte, error) {
		return s.charts.TrendPNG(analytics.MonthlyTrend(s.store.List(), limit))
	})
	if errors.Is(err, charts.ErrNoData) {
		NotFoundError("no expenses to chart").Write(w)
		return
	}
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	log.FromContext(r.Context()).DebugContext(r.Context(), "Trend chart served",
		"cache_hit", hit, log.FieldCount, limit)

	NewJSONResponse().
		Header("Content-Type", "image/png").
		Header("Cache-Control", "no-cache").
		Raw(png).
		Write(w)
}
