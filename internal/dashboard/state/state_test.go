package state

import (
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/classifieds-dashboard/internal/analytics"
	"github.com/maltedev/classifieds-dashboard/internal/models"
)

func ads(ids ...string) []models.Ad {
	out := make([]models.Ad, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Ad{ID: id, Title: "ad " + id})
	}
	return out
}

func TestReduceAdsAppliesLatestOnly(t *testing.T) {
	s := InitialAds()
	s = ReduceAds(s, FetchStarted{Seq: 1})
	s = ReduceAds(s, FetchStarted{Seq: 2})
	require.True(t, s.Loading)

	// the second request resolves first
	s = ReduceAds(s, FetchSucceeded{Seq: 2, Ads: ads("new")})
	assert.False(t, s.Loading)
	assert.Equal(t, "new", s.Ads[0].ID)

	// the late first response is dropped
	s = ReduceAds(s, FetchSucceeded{Seq: 1, Ads: ads("old")})
	assert.Equal(t, "new", s.Ads[0].ID)

	s = ReduceAds(s, FetchFailed{Seq: 1, Error: "Failed to fetch ads"})
	assert.Empty(t, s.Error, "stale failures are dropped too")
}

func TestReduceAdsIgnoresOutOfOrderStart(t *testing.T) {
	s := ReduceAds(InitialAds(), FetchStarted{Seq: 5})
	s = ReduceAds(s, FetchStarted{Seq: 3})
	assert.Equal(t, uint64(5), s.Seq)

	s = ReduceAds(s, FetchSucceeded{Seq: 3, Ads: ads("a")})
	assert.True(t, s.Loading)
	assert.Empty(t, s.Ads)
}

func TestReduceAdsFailureKeepsLastGoodData(t *testing.T) {
	s := ReduceAds(InitialAds(), FetchStarted{Seq: 1})
	s = ReduceAds(s, FetchSucceeded{Seq: 1, Ads: ads("a", "b")})
	s = ReduceAds(s, FetchStarted{Seq: 2})
	s = ReduceAds(s, FetchFailed{Seq: 2, Error: "Failed to fetch ads: timeout"})

	assert.False(t, s.Loading)
	assert.Equal(t, "Failed to fetch ads: timeout", s.Error)
	assert.Len(t, s.Ads, 2)

	s = ReduceAds(s, FetchStarted{Seq: 3})
	s = ReduceAds(s, FetchSucceeded{Seq: 3, Ads: ads("c")})
	assert.Empty(t, s.Error, "a successful load clears the banner")
}

func TestReduceAdsScrapeLifecycle(t *testing.T) {
	s := InitialAds()
	assert.Equal(t, models.CategoryRealEstate, s.Category)

	s = ReduceAds(s, CategorySelected{Category: models.CategoryVehicles})
	s = ReduceAds(s, ScrapeStarted{})
	assert.True(t, s.Scraping)

	failed := ReduceAds(s, ScrapeFailed{Error: "Failed to start scraping"})
	assert.False(t, failed.Scraping)
	assert.Equal(t, "Failed to start scraping", failed.Error)

	ok := ReduceAds(s, ScrapeSucceeded{Message: "12 ads scraped"})
	assert.False(t, ok.Scraping)
	assert.Equal(t, "12 ads scraped", ok.Notice)
	assert.Equal(t, models.CategoryVehicles, ok.Category)

	assert.True(t, s.Scraping, "reducers never modify their input")
}

func TestReduceAdsExportFailure(t *testing.T) {
	s := ReduceAds(InitialAds(), ExportFailed{Error: "Failed to export data"})
	assert.Equal(t, "Failed to export data", s.Error)
}

func TestReduceDashboard(t *testing.T) {
	filters := DefaultFilters()
	filters.PropertyType = "Terrain"

	s := ReduceDashboard(InitialDashboard(), DashboardFetchStarted{Seq: 1, Filters: DefaultFilters()})
	s = ReduceDashboard(s, DashboardFetchStarted{Seq: 2, Filters: filters})
	assert.Equal(t, "Terrain", s.Filters.PropertyType)

	newer := analytics.Report{Summary: analytics.Summary{TotalListings: 3}}
	older := analytics.Report{Summary: analytics.Summary{TotalListings: 99}}

	s = ReduceDashboard(s, DashboardFetchSucceeded{Seq: 2, Report: newer})
	s = ReduceDashboard(s, DashboardFetchSucceeded{Seq: 1, Report: older})
	assert.Equal(t, 3, s.Report.Summary.TotalListings)
	assert.False(t, s.Loading)

	s = ReduceDashboard(s, DashboardFetchStarted{Seq: 3, Filters: filters})
	s = ReduceDashboard(s, DashboardFetchFailed{Seq: 3, Error: "Failed to load dashboard data"})
	assert.Equal(t, "Failed to load dashboard data", s.Error)
	assert.Equal(t, 3, s.Report.Summary.TotalListings)
}

func TestStoreBeginIsMonotonic(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	seen := make(chan uint64, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- store.Begin()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[uint64]bool)
	for n := range seen {
		unique[n] = true
	}
	assert.Len(t, unique, 100)
	assert.Equal(t, uint64(101), store.Begin())
}

func TestStoreDispatch(t *testing.T) {
	store := NewStore()

	first := store.Begin()
	second := store.Begin()
	store.DispatchAds(FetchStarted{Seq: first})
	store.DispatchAds(FetchStarted{Seq: second})
	store.DispatchAds(FetchSucceeded{Seq: second, Ads: ads("b"), At: time.Now()})
	got := store.DispatchAds(FetchSucceeded{Seq: first, Ads: ads("a")})

	assert.Equal(t, "b", got.Ads[0].ID)
	assert.Equal(t, got, store.Ads())
	assert.Equal(t, DefaultFilters(), store.Dashboard().Filters)
}

func TestParseFilters(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    Filters
		wantErr bool
	}{
		{"empty", "", DefaultFilters(), false},
		{"all fields", "property_type=Terrain&location=Sousse&min_price=1000&max_price=90000&date_range=Week",
			Filters{PropertyType: "Terrain", Location: "Sousse", MinPrice: 1000, MaxPrice: 90000, DateRange: DateRangeWeek}, false},
		{"blank values keep defaults", "property_type=&min_price=", DefaultFilters(), false},
		{"bad number", "min_price=cheap", Filters{}, true},
		{"negative", "max_price=-1", Filters{}, true},
		{"bad range", "date_range=decade", Filters{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			got, err := ParseFilters(v)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFiltersValuesRoundTrip(t *testing.T) {
	f := Filters{PropertyType: "Maison/Villa", Location: "La Marsa", MinPrice: 250000.5, MaxPrice: 800000, DateRange: DateRangeYear}
	got, err := ParseFilters(f.Values())
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestFiltersQuery(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 30, 45, 0, time.UTC)

	q := DefaultFilters().Query(now)
	assert.Empty(t, q.PropertyType)
	assert.Empty(t, q.Location)
	assert.Nil(t, q.MinPrice, "min price 0 adds no predicate")
	assert.Nil(t, q.MaxPrice, "max price at the ceiling adds no predicate")
	assert.Nil(t, q.CreatedAfter)

	f := Filters{PropertyType: "Appartement", Location: "all", MinPrice: 1, MaxPrice: 999999, DateRange: DateRangeMonth}
	q = f.Query(now)
	assert.Equal(t, "Appartement", q.PropertyType)
	assert.Empty(t, q.Location)
	require.NotNil(t, q.MinPrice)
	assert.Equal(t, 1.0, *q.MinPrice)
	require.NotNil(t, q.MaxPrice)
	assert.Equal(t, 999999.0, *q.MaxPrice)
	require.NotNil(t, q.CreatedAfter)
	assert.Equal(t, time.Date(2025, 2, 8, 12, 30, 0, 0, time.UTC), *q.CreatedAfter)
}
