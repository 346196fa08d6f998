package api

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/maltedev/classifieds-dashboard/internal/dashboard/charts"
	"github.com/maltedev/classifieds-dashboard/internal/dashboard/state"
	"github.com/maltedev/classifieds-dashboard/internal/dashboard/views"
	"github.com/maltedev/classifieds-dashboard/internal/models"
)

type Handlers struct {
	ads       *views.AdsView
	dashboard *views.DashboardView
	pages     *pages
	checks    []healthCheck
	logger    *slog.Logger
}

type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

func NewHandlers(ads *views.AdsView, dashboard *views.DashboardView, adBaseURL string, logger *slog.Logger) (*Handlers, error) {
	p, err := parsePages(adBaseURL)
	if err != nil {
		return nil, err
	}
	return &Handlers{
		ads:       ads,
		dashboard: dashboard,
		pages:     p,
		logger:    logger.With("component", "api"),
	}, nil
}

// AdsPage loads the list and renders the card grid.
func (h *Handlers) AdsPage(w http.ResponseWriter, r *http.Request) {
	s, err := h.ads.Load(r.Context())
	h.renderAds(w, statusFor(err), s)
}

// SelectCategory stores the category used by the next scrape.
func (h *Handlers) SelectCategory(w http.ResponseWriter, r *http.Request) {
	category, err := models.ParseCategory(r.FormValue("category"))
	if err != nil {
		h.renderAdsWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.ads.SelectCategory(category)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Scrape starts a scrape for the submitted (or currently selected) category
// and renders the reloaded list.
func (h *Handlers) Scrape(w http.ResponseWriter, r *http.Request) {
	category := h.ads.Snapshot().Category
	if v := r.FormValue("category"); v != "" {
		c, err := models.ParseCategory(v)
		if err != nil {
			h.renderAdsWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		category = c
	}

	s, _, err := h.ads.Scrape(r.Context(), category)
	h.renderAds(w, statusFor(err), s)
}

// Refresh reloads the list, bypassing the cache.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	s, err := h.ads.Refresh(r.Context())
	h.renderAds(w, statusFor(err), s)
}

// ExportFile streams an export as an attachment, or renders the ads page
// with the error banner when the export fails.
func (h *Handlers) ExportFile(w http.ResponseWriter, r *http.Request) {
	format, err := models.ParseExportFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.renderAdsWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	blob, err := h.ads.Export(r.Context(), format)
	if err != nil {
		h.renderAds(w, http.StatusBadGateway, h.ads.Snapshot())
		return
	}
	h.sendBlob(w, blob)
}

// DashboardPage applies the filters from the query string and renders the
// summary cards with the embedded charts.
func (h *Handlers) DashboardPage(w http.ResponseWriter, r *http.Request) {
	filters, err := state.ParseFilters(r.URL.Query())
	if err != nil {
		s := h.dashboard.Snapshot()
		h.renderDashboard(w, http.StatusBadRequest, s, err.Error())
		return
	}

	s, err := h.dashboard.Apply(r.Context(), filters)
	h.renderDashboard(w, statusFor(err), s, "")
}

// DashboardCharts renders the chart page for the filters in the query string.
func (h *Handlers) DashboardCharts(w http.ResponseWriter, r *http.Request) {
	filters, err := state.ParseFilters(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s, err := h.dashboard.Apply(r.Context(), filters)
	if err != nil {
		http.Error(w, views.MsgDashboardFailed, http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := charts.Render(w, s.Report); err != nil {
		h.logger.Error("failed to render charts", "error", err)
	}
}

// AdsResponse is the JSON form of the ads list.
type AdsResponse struct {
	Ads      []models.Ad     `json:"ads"`
	Count    int             `json:"count"`
	Category models.Category `json:"category"`
	LoadedAt time.Time       `json:"loaded_at"`
}

// ListAds handles GET /api/v1/ads
func (h *Handlers) ListAds(w http.ResponseWriter, r *http.Request) {
	s, err := h.ads.Load(r.Context())
	if err != nil {
		h.respondError(w, http.StatusBadGateway, views.MsgFetchFailed)
		return
	}
	ads := s.Ads
	if ads == nil {
		ads = []models.Ad{}
	}
	h.respondJSON(w, http.StatusOK, AdsResponse{
		Ads:      ads,
		Count:    len(ads),
		Category: s.Category,
		LoadedAt: s.LoadedAt,
	})
}

// ScrapeResponse reports a finished scrape run.
type ScrapeResponse struct {
	RunID    string          `json:"run_id"`
	Category models.Category `json:"category"`
	Message  string          `json:"message"`
	AdsCount int             `json:"ads_count"`
}

// StartScrape handles POST /api/v1/scrape?category=
func (h *Handlers) StartScrape(w http.ResponseWriter, r *http.Request) {
	category, err := models.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s, run, err := h.ads.Scrape(r.Context(), category)
	if run == nil {
		h.respondError(w, http.StatusBadGateway, views.MsgScrapeFailed)
		return
	}
	if err != nil {
		// the scrape went through but the reload did not
		h.respondError(w, http.StatusBadGateway, views.MsgFetchFailed)
		return
	}

	h.respondJSON(w, http.StatusOK, ScrapeResponse{
		RunID:    run.ID,
		Category: run.Category,
		Message:  s.Notice,
		AdsCount: len(s.Ads),
	})
}

// Export handles GET /api/v1/export?format=
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	format, err := models.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	blob, err := h.ads.Export(r.Context(), format)
	if err != nil {
		h.respondError(w, http.StatusBadGateway, views.MsgExportFailed)
		return
	}
	h.sendBlob(w, blob)
}

// Dashboard handles GET /api/v1/dashboard
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	filters, err := state.ParseFilters(r.URL.Query())
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s, err := h.dashboard.Apply(r.Context(), filters)
	if err != nil {
		h.respondError(w, http.StatusBadGateway, views.MsgDashboardFailed)
		return
	}
	h.respondJSON(w, http.StatusOK, s)
}

// AddHealthCheck registers a dependency probed by /health.
func (h *Handlers) AddHealthCheck(name string, check func(ctx context.Context) error) {
	h.checks = append(h.checks, healthCheck{name: name, check: check})
}

// Health reports "ok" when every registered dependency answers.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	health := map[string]interface{}{"status": "ok"}
	deps := make(map[string]string, len(h.checks))
	status := http.StatusOK

	for _, c := range h.checks {
		if err := c.check(ctx); err != nil {
			h.logger.Warn("health check failed", "dependency", c.name, "error", err)
			deps[c.name] = "error"
			health["status"] = "error"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[c.name] = "ok"
	}
	if len(deps) > 0 {
		health["dependencies"] = deps
	}

	h.respondJSON(w, status, health)
}

func (h *Handlers) renderAds(w http.ResponseWriter, status int, s state.AdsState) {
	h.render(w, status, h.pages.ads, adsPage{
		Title:      "Ads",
		Error:      s.Error,
		Notice:     s.Notice,
		State:      s,
		Categories: []models.Category{models.CategoryRealEstate, models.CategoryVehicles},
		Formats:    []models.ExportFormat{models.FormatCSV, models.FormatJSON, models.FormatExcel},
	})
}

func (h *Handlers) renderAdsWithError(w http.ResponseWriter, status int, msg string) {
	s := h.ads.Snapshot()
	s.Error = msg
	h.renderAds(w, status, s)
}

func (h *Handlers) renderDashboard(w http.ResponseWriter, status int, s state.DashboardState, errMsg string) {
	if errMsg == "" {
		errMsg = s.Error
	}
	h.render(w, status, h.pages.dashboard, dashboardPage{
		Title:      "Dashboard",
		Error:      errMsg,
		State:      s,
		DateRanges: []state.DateRange{state.DateRangeAll, state.DateRangeWeek, state.DateRangeMonth, state.DateRangeYear},
		ChartSrc:   template.URL("/dashboard/charts?" + s.Filters.Values().Encode()),
	})
}

func (h *Handlers) sendBlob(w http.ResponseWriter, blob *models.Blob) {
	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": blob.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(blob.Data); err != nil {
		h.logger.Debug("failed to write export", "error", err)
	}
}

func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, models.ErrInvalidCategory) || errors.Is(err, models.ErrInvalidFormat) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

// Helper methods
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
