package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/returns-insights/pkg/interceptors"
	"github.com/FACorreiaa/returns-insights/pkg/telemetry"
)

// RouterConfig holds what the router needs besides the handler.
type RouterConfig struct {
	Logger         *slog.Logger
	Metrics        *telemetry.Metrics // nil hides /metrics
	AllowedOrigins []string
	RateLimiter    *interceptors.RateLimiter // nil disables limiting
}

// NewRouter wires the middleware chain and every route.
func NewRouter(h *DashboardHandler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(
		interceptors.Recoverer(logger),
		interceptors.Logging(logger, cfg.Metrics),
		interceptors.CORS(cfg.AllowedOrigins),
	)

	r.Get("/healthz", Health)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware)
		}

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.CreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Delete("/", h.DeleteSession)
				r.Get("/metrics", h.Metrics)
				r.Get("/windows", h.Windows)
				r.Get("/quality", h.Quality)
				r.Get("/channels", h.Channels)
				r.Route("/analysis", func(r chi.Router) {
					r.Get("/delivery", h.DeliveryMethods)
					r.Get("/advertising", h.Advertising)
					r.Get("/skus", h.SKURisk)
					r.Get("/reasons", h.Reasons)
				})
				r.Get("/simulation", h.Simulation)
				r.Get("/returns/search", h.SearchReturns)
				r.Get("/export.xlsx", h.ExportWorkbook)
				r.Get("/export.csv", h.ExportCSV)
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", h.ListReports)
			r.Get("/{id}", h.DownloadReport)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		interceptors.WriteError(w, http.StatusNotFound, "not_found", "route not found")
	})
	return r
}
