// Package views drives the ads and dashboard pages: each user action issues
// a query or command, and its outcome is dispatched to the state reducers.
package views

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/classifieds-dashboard/internal/adstore"
	"github.com/maltedev/classifieds-dashboard/internal/dashboard/state"
	"github.com/maltedev/classifieds-dashboard/internal/export"
	"github.com/maltedev/classifieds-dashboard/internal/models"
	"github.com/maltedev/classifieds-dashboard/internal/scraperclient"
)

const (
	MsgFetchFailed  = "Failed to fetch ads"
	MsgScrapeFailed = "Failed to start scraping"
	MsgExportFailed = "Failed to export data"
)

// Scraper starts a scrape run on the backend.
type Scraper interface {
	Scrape(ctx context.Context, category models.Category) (*scraperclient.Run, error)
}

// Invalidator drops cached listings.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type AdsDeps struct {
	State    *state.Store
	Store    adstore.Store
	Scraper  Scraper
	Exporter export.Exporter
	// Cache is optional; it is invalidated after every successful scrape.
	Cache Invalidator
}

type AdsView struct {
	deps   AdsDeps
	now    func() time.Time
	logger *slog.Logger
}

func NewAdsView(deps AdsDeps, logger *slog.Logger) *AdsView {
	return &AdsView{
		deps:   deps,
		now:    time.Now,
		logger: logger.With("component", "ads_view"),
	}
}

// Snapshot returns the current ads page state.
func (v *AdsView) Snapshot() state.AdsState {
	return v.deps.State.Ads()
}

// Load fetches every ad, newest first.
func (v *AdsView) Load(ctx context.Context) (state.AdsState, error) {
	return v.load(ctx, false)
}

// Refresh reloads the list, bypassing any cache.
func (v *AdsView) Refresh(ctx context.Context) (state.AdsState, error) {
	return v.load(ctx, true)
}

func (v *AdsView) load(ctx context.Context, fresh bool) (state.AdsState, error) {
	seq := v.deps.State.Begin()
	v.deps.State.DispatchAds(state.FetchStarted{Seq: seq})

	ads, err := v.deps.Store.List(ctx, adstore.Query{Fresh: fresh})
	if err != nil {
		v.logger.Error("failed to fetch ads", "error", err, "seq", seq)
		s := v.deps.State.DispatchAds(state.FetchFailed{
			Seq:   seq,
			Error: fmt.Sprintf("%s: %v", MsgFetchFailed, err),
		})
		return s, fmt.Errorf("failed to fetch ads: %w", err)
	}

	v.logger.Debug("ads loaded", "count", len(ads), "seq", seq, "fresh", fresh)
	return v.deps.State.DispatchAds(state.FetchSucceeded{Seq: seq, Ads: ads, At: v.now()}), nil
}

// SelectCategory sets the category used by the next scrape. The displayed
// list is unaffected.
func (v *AdsView) SelectCategory(c models.Category) state.AdsState {
	return v.deps.State.DispatchAds(state.CategorySelected{Category: c})
}

// Scrape runs the backend scraper for category and then reloads the list.
// It is not retried on failure.
func (v *AdsView) Scrape(ctx context.Context, category models.Category) (state.AdsState, *scraperclient.Run, error) {
	v.deps.State.DispatchAds(state.CategorySelected{Category: category})
	v.deps.State.DispatchAds(state.ScrapeStarted{})

	run, err := v.deps.Scraper.Scrape(ctx, category)
	if err != nil {
		v.logger.Error("failed to start scraping", "error", err, "category", category)
		s := v.deps.State.DispatchAds(state.ScrapeFailed{Error: MsgScrapeFailed})
		return s, nil, fmt.Errorf("failed to start scraping: %w", err)
	}

	if v.deps.Cache != nil {
		if err := v.deps.Cache.Invalidate(ctx); err != nil {
			v.logger.Warn("failed to invalidate ads cache", "error", err, "run_id", run.ID)
		}
	}

	msg := run.Message
	if msg == "" {
		msg = fmt.Sprintf("Scraping of %s completed", category.Label())
	}
	v.deps.State.DispatchAds(state.ScrapeSucceeded{Message: msg})

	s, err := v.Refresh(ctx)
	return s, run, err
}

// Export produces the download for format.
func (v *AdsView) Export(ctx context.Context, format models.ExportFormat) (*models.Blob, error) {
	blob, err := v.deps.Exporter.Export(ctx, format)
	if err != nil {
		v.logger.Error("failed to export data", "error", err, "format", format)
		v.deps.State.DispatchAds(state.ExportFailed{Error: MsgExportFailed})
		return nil, fmt.Errorf("failed to export data: %w", err)
	}
	return blob, nil
}
