// Command adsreport prints the dashboard aggregates as terminal tables.
//
// Usage:
//
//	adsreport -csv annonces.csv -type Appartement -range month
//	adsreport                    # reads the store configured in the environment
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/maltedev/classifieds-dashboard/internal/adstore"
	"github.com/maltedev/classifieds-dashboard/internal/analytics"
	"github.com/maltedev/classifieds-dashboard/internal/dashboard/config"
	"github.com/maltedev/classifieds-dashboard/internal/dashboard/state"
	"github.com/maltedev/classifieds-dashboard/internal/database"
)

func main() {
	var (
		csvPath      = flag.String("csv", "", "Read ads from this CSV file instead of the configured store")
		propertyType = flag.String("type", state.AllOption, "Property type filter")
		location     = flag.String("location", state.AllOption, "Location filter")
		minPrice     = flag.Float64("min-price", 0, "Minimum price (0 = no bound)")
		maxPrice     = flag.Float64("max-price", state.MaxPriceUnbounded, "Maximum price (1000000 = no bound)")
		dateRange    = flag.String("range", string(state.DateRangeAll), "Date range: all, week, month or year")
		verbose      = flag.Bool("v", false, "Debug logging")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	filters, err := state.ParseFilters(map[string][]string{
		"property_type": {*propertyType},
		"location":      {*location},
		"min_price":     {strconv.FormatFloat(*minPrice, 'f', -1, 64)},
		"max_price":     {strconv.FormatFloat(*maxPrice, 'f', -1, 64)},
		"date_range":    {*dateRange},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := openStore(ctx, *csvPath, logger)
	if err != nil {
		logger.Error("failed to open ad store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	ads, err := store.List(ctx, filters.Query(time.Now()))
	if err != nil {
		logger.Error("failed to fetch ads", "error", err)
		os.Exit(1)
	}

	writeReport(os.Stdout, analytics.Compute(ads), filters)
}

// openStore returns a CSV store when path is set, otherwise the store
// configured in the environment.
func openStore(ctx context.Context, path string, logger *slog.Logger) (adstore.Store, func(), error) {
	noop := func() {}
	if path != "" {
		return adstore.NewCSVStore(path, logger), noop, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, noop, err
	}

	switch cfg.Store.Backend {
	case config.BackendPostgres:
		db, err := database.New(ctx, database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Database: cfg.Database.Name,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: 2,
		})
		if err != nil {
			return nil, noop, err
		}
		return adstore.NewPostgresStore(db, cfg.Database.Table, logger), db.Close, nil
	case config.BackendCSV:
		return adstore.NewCSVStore(cfg.Store.CSVPath, logger), noop, nil
	}

	rest, err := adstore.NewRESTStore(adstore.RESTConfig{
		BaseURL: cfg.Supabase.URL,
		APIKey:  cfg.Supabase.AnonKey,
		Table:   cfg.Supabase.Table,
	}, &http.Client{Timeout: 30 * time.Second}, logger)
	return rest, noop, err
}

func writeReport(w io.Writer, report analytics.Report, filters state.Filters) {
	fmt.Fprintf(w, "Filters: type=%s location=%s price=%s..%s range=%s\n",
		filters.PropertyType, filters.Location,
		formatAmount(filters.MinPrice), formatAmount(filters.MaxPrice), filters.DateRange)

	s := report.Summary
	summary := newTable(w, "Summary")
	summary.AppendHeader(table.Row{"Total listings", "Average price", "Average surface", "Locations"})
	summary.AppendRow(table.Row{s.TotalListings, formatMean(s.AveragePrice, ""), formatMean(s.AverageSurface, " m²"), s.Locations})
	summary.Render()

	types := newTable(w, "Property types")
	types.AppendHeader(table.Row{"Type", "Listings"})
	for _, c := range report.PropertyTypes {
		types.AppendRow(table.Row{c.Name, c.Value})
	}
	types.AppendFooter(table.Row{"Total", s.TotalListings})
	types.Render()

	writeBuckets(w, "Price distribution", report.PriceRanges)
	writeBuckets(w, "Surface distribution", report.SurfaceRanges)

	locations := newTable(w, "Top locations")
	locations.AppendHeader(table.Row{"#", "Location", "Listings"})
	for i, c := range report.LocationDistribution {
		locations.AppendRow(table.Row{i + 1, c.Name, c.Value})
	}
	locations.Render()

	avg := newTable(w, "Average price by type")
	avg.AppendHeader(table.Row{"Type", "Average price", "Priced listings"})
	for _, a := range report.AveragePriceByType {
		avg.AppendRow(table.Row{a.Type, formatAmount(a.AvgPrice), a.Count})
	}
	avg.Render()

	timeline := newTable(w, "Scraping timeline")
	timeline.AppendHeader(table.Row{"Date", "Ads"})
	for _, d := range report.ScrapingTimeline {
		timeline.AppendRow(table.Row{d.Date, d.Count})
	}
	timeline.Render()

	fmt.Fprintf(w, "%d listings carry both a price and a surface\n", len(report.PriceVsSurface))
}

func writeBuckets(w io.Writer, title string, buckets [5]analytics.Bucket) {
	t := newTable(w, title)
	t.AppendHeader(table.Row{"Range", "Listings"})
	total := 0
	for _, b := range buckets {
		t.AppendRow(table.Row{b.Range, b.Count})
		total += b.Count
	}
	t.AppendFooter(table.Row{"Total", total})
	t.Render()
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(title)
	t.Style().Title.Align = text.AlignLeft
	return t
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}

func formatMean(v *float64, unit string) string {
	if v == nil {
		return "N/A"
	}
	return formatAmount(*v) + unit
}
