package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter mounts the HTML pages, the JSON API under /api/v1 and /health.
// requestTimeout bounds every request, including a synchronous scrape.
func NewRouter(h *Handlers, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", h.Health)

	// Pages
	r.Get("/", h.AdsPage)
	r.Post("/category", h.SelectCategory)
	r.Post("/scrape", h.Scrape)
	r.Post("/refresh", h.Refresh)
	r.Get("/export/{format}", h.ExportFile)
	r.Get("/dashboard", h.DashboardPage)
	r.Get("/dashboard/charts", h.DashboardCharts)

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:*", "https://localhost:*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))

		r.Get("/ads", h.ListAds)
		r.Post("/scrape", h.StartScrape)
		r.Get("/export", h.Export)
		r.Get("/dashboard", h.Dashboard)
	})

	return r
}
