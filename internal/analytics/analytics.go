// Package analytics derives the dashboard's read-only aggregate views from a
// slice of ads. Every function is pure: it neither retains nor modifies its
// input, so the same slice always yields the same report.
package analytics

import (
	"math"
	"sort"

	"github.com/maltedev/classifieds-dashboard/internal/models"
)

// UnknownLabel groups ads whose property type or location is missing.
const UnknownLabel = "Unknown"

// TopLocationsLimit is how many locations the location distribution keeps.
const TopLocationsLimit = 5

// TimelineDateLayout is the calendar-date key of the scraping timeline.
const TimelineDateLayout = "2006-01-02"

// Range is a lower-closed, upper-open numeric interval.
type Range struct {
	Label string
	Min   float64
	Max   float64
}

// Contains reports whether v falls in [Min, Max).
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v < r.Max
}

var (
	PriceRanges = [5]Range{
		{Label: "0-100k", Min: 0, Max: 100000},
		{Label: "100k-200k", Min: 100000, Max: 200000},
		{Label: "200k-300k", Min: 200000, Max: 300000},
		{Label: "300k-500k", Min: 300000, Max: 500000},
		{Label: "500k+", Min: 500000, Max: math.Inf(1)},
	}

	SurfaceRanges = [5]Range{
		{Label: "0-50m²", Min: 0, Max: 50},
		{Label: "50-100m²", Min: 50, Max: 100},
		{Label: "100-150m²", Min: 100, Max: 150},
		{Label: "150-200m²", Min: 150, Max: 200},
		{Label: "200m²+", Min: 200, Max: math.Inf(1)},
	}
)

// Count is a named tally, used for the pie and location charts.
type Count struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Bucket is one histogram bar.
type Bucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// Point is one ad in the price vs surface scatter series.
type Point struct {
	Surface float64 `json:"surface"`
	Price   float64 `json:"price"`
	Title   string  `json:"title"`
}

// TypeAverage is the mean price of one property type.
type TypeAverage struct {
	Type     string  `json:"type"`
	AvgPrice float64 `json:"avg_price"`
	Count    int     `json:"count"`
}

// DateCount is one day of the scraping timeline.
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Summary backs the dashboard's summary cards. Means are nil when no ad
// carries the value.
type Summary struct {
	TotalListings  int      `json:"total_listings"`
	AveragePrice   *float64 `json:"average_price"`
	AverageSurface *float64 `json:"average_surface"`
	Locations      int      `json:"locations"`
}

// Options are the values offered by the dashboard's filter dropdowns.
type Options struct {
	PropertyTypes []string `json:"property_types"`
	Locations     []string `json:"locations"`
}

// Report bundles every aggregate the dashboard charts.
type Report struct {
	PropertyTypes        []Count       `json:"property_types"`
	PriceRanges          [5]Bucket     `json:"price_ranges"`
	SurfaceRanges        [5]Bucket     `json:"surface_ranges"`
	LocationDistribution []Count       `json:"location_distribution"`
	ScrapingTimeline     []DateCount   `json:"scraping_timeline"`
	PriceVsSurface       []Point       `json:"price_vs_surface"`
	AveragePriceByType   []TypeAverage `json:"average_price_by_type"`
	Summary              Summary       `json:"summary"`
}

// Compute builds the full report for ads.
func Compute(ads []models.Ad) Report {
	return Report{
		PropertyTypes:        PropertyTypeCounts(ads),
		PriceRanges:          PriceHistogram(ads),
		SurfaceRanges:        SurfaceHistogram(ads),
		LocationDistribution: TopLocations(ads, TopLocationsLimit),
		ScrapingTimeline:     Timeline(ads),
		PriceVsSurface:       PriceVsSurface(ads),
		AveragePriceByType:   AveragePriceByType(ads),
		Summary:              Summarize(ads),
	}
}

// PropertyTypeCounts counts ads per property type, missing types under
// UnknownLabel, ordered by count descending then name.
func PropertyTypeCounts(ads []models.Ad) []Count {
	counts := make(map[string]int)
	for i := range ads {
		counts[ads[i].PropertyTypeOr(UnknownLabel)]++
	}
	return sortedCounts(counts)
}

// PriceHistogram buckets known prices into PriceRanges.
func PriceHistogram(ads []models.Ad) [5]Bucket {
	return histogram(PriceRanges, ads, func(a *models.Ad) *float64 { return a.Price })
}

// SurfaceHistogram buckets known surfaces into SurfaceRanges.
func SurfaceHistogram(ads []models.Ad) [5]Bucket {
	return histogram(SurfaceRanges, ads, func(a *models.Ad) *float64 { return a.Surface })
}

func histogram(ranges [5]Range, ads []models.Ad, value func(*models.Ad) *float64) [5]Bucket {
	var buckets [5]Bucket
	for i, r := range ranges {
		buckets[i].Range = r.Label
	}
	for i := range ads {
		v := value(&ads[i])
		if v == nil {
			continue
		}
		for j, r := range ranges {
			if r.Contains(*v) {
				buckets[j].Count++
				break
			}
		}
	}
	return buckets
}

// TopLocations returns the n most frequent locations. Equal counts are
// ordered by location name so the result is deterministic.
func TopLocations(ads []models.Ad, n int) []Count {
	counts := make(map[string]int)
	for i := range ads {
		counts[ads[i].LocationOr(UnknownLabel)]++
	}
	sorted := sortedCounts(counts)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// PriceVsSurface returns one point per ad carrying both a price and a surface,
// in input order.
func PriceVsSurface(ads []models.Ad) []Point {
	points := make([]Point, 0, len(ads))
	for i := range ads {
		a := &ads[i]
		if !a.HasPrice() || !a.HasSurface() {
			continue
		}
		points = append(points, Point{Surface: *a.Surface, Price: *a.Price, Title: a.Title})
	}
	return points
}

// AveragePriceByType averages the price of ads that have both a property type
// and a price. Results are ordered by type name.
func AveragePriceByType(ads []models.Ad) []TypeAverage {
	type acc struct {
		sum   float64
		count int
	}
	groups := make(map[string]*acc)
	for i := range ads {
		a := &ads[i]
		typ := a.PropertyTypeOr("")
		if typ == "" || !a.HasPrice() {
			continue
		}
		g, ok := groups[typ]
		if !ok {
			g = &acc{}
			groups[typ] = g
		}
		g.sum += *a.Price
		g.count++
	}

	result := make([]TypeAverage, 0, len(groups))
	for typ, g := range groups {
		result = append(result, TypeAverage{Type: typ, AvgPrice: g.sum / float64(g.count), Count: g.count})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Type < result[j].Type
	})
	return result
}

// Timeline counts ads per UTC calendar day of CreatedAt, oldest day first.
// Ads without a creation time are skipped.
func Timeline(ads []models.Ad) []DateCount {
	counts := make(map[string]int)
	for i := range ads {
		if ads[i].CreatedAt.IsZero() {
			continue
		}
		counts[ads[i].CreatedAt.UTC().Format(TimelineDateLayout)]++
	}

	timeline := make([]DateCount, 0, len(counts))
	for date, n := range counts {
		timeline = append(timeline, DateCount{Date: date, Count: n})
	}
	// ISO dates sort chronologically as strings.
	sort.Slice(timeline, func(i, j int) bool {
		return timeline[i].Date < timeline[j].Date
	})
	return timeline
}

// Summarize computes the summary card values.
func Summarize(ads []models.Ad) Summary {
	s := Summary{TotalListings: len(ads)}

	var priceSum, surfaceSum float64
	var priceN, surfaceN int
	locations := make(map[string]struct{})

	for i := range ads {
		a := &ads[i]
		if a.HasPrice() {
			priceSum += *a.Price
			priceN++
		}
		if a.HasSurface() {
			surfaceSum += *a.Surface
			surfaceN++
		}
		if loc := a.LocationOr(""); loc != "" {
			locations[loc] = struct{}{}
		}
	}

	if priceN > 0 {
		avg := priceSum / float64(priceN)
		s.AveragePrice = &avg
	}
	if surfaceN > 0 {
		avg := surfaceSum / float64(surfaceN)
		s.AverageSurface = &avg
	}
	s.Locations = len(locations)
	return s
}

// FilterOptions lists the property types and locations present in ads, each
// prefixed with "all" and in first-seen order.
func FilterOptions(ads []models.Ad) Options {
	opts := Options{
		PropertyTypes: []string{"all"},
		Locations:     []string{"all"},
	}
	seenTypes := make(map[string]struct{})
	seenLocs := make(map[string]struct{})

	for i := range ads {
		if typ := ads[i].PropertyTypeOr(""); typ != "" {
			if _, ok := seenTypes[typ]; !ok {
				seenTypes[typ] = struct{}{}
				opts.PropertyTypes = append(opts.PropertyTypes, typ)
			}
		}
		if loc := ads[i].LocationOr(""); loc != "" {
			if _, ok := seenLocs[loc]; !ok {
				seenLocs[loc] = struct{}{}
				opts.Locations = append(opts.Locations, loc)
			}
		}
	}
	return opts
}

func sortedCounts(counts map[string]int) []Count {
	result := make([]Count, 0, len(counts))
	for name, n := range counts {
		result = append(result, Count{Name: name, Value: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Value != result[j].Value {
			return result[i].Value > result[j].Value
		}
		return result[i].Name < result[j].Name
	})
	return result
}
