package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/maltedev/classifieds-dashboard/internal/dashboard/state"
	"github.com/maltedev/classifieds-dashboard/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

type pages struct {
	ads       *template.Template
	dashboard *template.Template
}

type adsPage struct {
	Title      string
	Error      string
	Notice     string
	State      state.AdsState
	Categories []models.Category
	Formats    []models.ExportFormat
}

type dashboardPage struct {
	Title      string
	Error      string
	Notice     string
	State      state.DashboardState
	DateRanges []state.DateRange
	ChartSrc   template.URL
}

func parsePages(adBaseURL string) (*pages, error) {
	funcs := template.FuncMap{
		"adURL":   func(ad models.Ad) string { return ad.AbsoluteURL(adBaseURL) },
		"price":   formatPrice,
		"surface": func(v *float64) string { return formatNumber(*v) + " m²" },
		"average": formatAverage,
		"number":  func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
		"deref":   deref,
		"excerpt": excerpt,
		"date":    func(t time.Time) string { return t.Format("02 Jan 2006") },
		"upper":   strings.ToUpper,
	}

	parse := func(page string) (*template.Template, error) {
		t, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", page, err)
		}
		return t, nil
	}

	ads, err := parse("ads.html")
	if err != nil {
		return nil, err
	}
	dashboard, err := parse("dashboard.html")
	if err != nil {
		return nil, err
	}
	return &pages{ads: ads, dashboard: dashboard}, nil
}

// render executes the layout into a buffer first so a template error never
// leaves a half-written page behind.
func (h *Handlers) render(w http.ResponseWriter, status int, t *template.Template, data any) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error("failed to render page", "error", err, "template", t.Name())
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Debug("failed to write page", "error", err)
	}
}

func formatPrice(v *float64) string {
	if v == nil {
		return "Price not specified"
	}
	return formatNumber(*v) + " TND"
}

func formatAverage(v *float64, unit string) string {
	if v == nil {
		return "N/A"
	}
	return formatNumber(*v) + unit
}

// formatNumber rounds to an integer and groups thousands with spaces.
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', 0, 64)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n])) + "…"
}
