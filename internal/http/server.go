package http

import (
	"context"
	"net/http"
	"time"

	"kitabu/internal/amqp"
	"kitabu/internal/analytics"
	"kitabu/internal/cache"
	"kitabu/internal/charts"
	"kitabu/internal/export"
	"kitabu/internal/ledger"
	"kitabu/internal/log"
	"kitabu/internal/middleware/ratelimit"
	"kitabu/internal/middleware/security"
	"kitabu/internal/middleware/trace"
	"kitabu/internal/worker"
)

const (
	chartCacheSize     = 32
	chartCacheTTL      = 10 * time.Minute
	cacheSweepInterval = 5 * time.Minute
)

// Publisher enqueues export jobs for the worker.
type Publisher interface {
	PublishExportRequest(ctx context.Context, msg *amqp.ExportRequestMessage) error
}

// Exporter runs an export inline.
type Exporter interface {
	Export(ctx context.Context, kind analytics.WindowKind, formats []export.Format, toSheets bool) (worker.Result, error)
}

// Config wires the server's collaborators. Publisher, Exporter and Health
// are optional.
type Config struct {
	Addr               string
	Store              *ledger.Store
	Clock              ledger.Clock
	Logger             *log.Logger
	Currency           string
	RateLimitPerMinute int
	Publisher          Publisher
	Exporter           Exporter
	Health             func(context.Context) error
}

// Server serves the JSON API over a ledger store.
type Server struct {
	http.Server
	store        *ledger.Store
	clock        ledger.Clock
	logger       *log.Logger
	currency     string
	charts       *charts.Generator
	chartCache   *cache.LRUCache[[]byte]
	cacheManager *cache.Manager
	publisher    Publisher
	exporter     Exporter
	health       func(context.Context) error
	limiter      *ratelimit.Limiter
	detector     *security.Detector
	trace        *trace.Middleware
}

// NewServer builds the routes and middleware chain. Call Shutdown to stop
// the background cleanup goroutines.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	clock := cfg.Clock
	if clock == nil {
		clock = ledger.SystemClock
	}

	s := &Server{
		store:      cfg.Store,
		clock:      clock,
		logger:     logger,
		currency:   cfg.Currency,
		charts:     charts.NewGenerator(cfg.Currency),
		chartCache: cache.NewLRUCache[[]byte](chartCacheSize, chartCacheTTL),
		publisher:  cfg.Publisher,
		exporter:   cfg.Exporter,
		health:     cfg.Health,
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		detector:   security.NewDetector(),
	}
	s.cacheManager = cache.NewManager(logger)
	s.cacheManager.Register(s.chartCache)
	s.cacheManager.StartCleanup(cacheSweepInterval)
	s.trace = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PATCH /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /api/budget", s.handleGetBudget)
	mux.HandleFunc("PUT /api/budget", s.handleSetBudget)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/trend", s.handleTrend)
	mux.HandleFunc("GET /api/trend.png", s.handleTrendChart)

	mux.HandleFunc("GET /api/export", s.handleExportDownload)
	mux.HandleFunc("POST /api/export/sheets", s.handleExportSheets)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	})

	var handler http.Handler = mux
	handler = limit(handler)
	handler = s.detector.Middleware(logger, false)(handler)
	handler = headers.Middleware(handler)
	handler = s.trace.Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown drains connections and stops background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	s.cacheManager.Stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

// handleReadyz fails while the backend is unreachable or the last persist
// did not land.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ServiceUnavailableError("storage unavailable").Write(w)
			return
		}
	}
	if err := s.store.PersistErr(); err != nil {
		ServiceUnavailableError("unsaved changes: " + err.Error()).Write(w)
		return
	}
	NewJSONResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}
