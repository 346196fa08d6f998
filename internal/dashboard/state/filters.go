package state

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/maltedev/classifieds-dashboard/internal/adstore"
)

// AllOption is the dropdown value meaning "no predicate".
const AllOption = "all"

// MaxPriceUnbounded is the slider ceiling; a max price at or above it adds
// no upper bound.
const MaxPriceUnbounded = 1_000_000

type DateRange string

const (
	DateRangeAll   DateRange = "all"
	DateRangeWeek  DateRange = "week"
	DateRangeMonth DateRange = "month"
	DateRangeYear  DateRange = "year"
)

// Window is how far back the range reaches; zero for DateRangeAll.
func (d DateRange) Window() time.Duration {
	switch d {
	case DateRangeWeek:
		return 7 * 24 * time.Hour
	case DateRangeMonth:
		return 30 * 24 * time.Hour
	case DateRangeYear:
		return 365 * 24 * time.Hour
	}
	return 0
}

// Filters is the dashboard's filter form.
type Filters struct {
	PropertyType string    `json:"property_type"`
	Location     string    `json:"location"`
	MinPrice     float64   `json:"min_price"`
	MaxPrice     float64   `json:"max_price"`
	DateRange    DateRange `json:"date_range"`
}

func DefaultFilters() Filters {
	return Filters{
		PropertyType: AllOption,
		Location:     AllOption,
		MinPrice:     0,
		MaxPrice:     MaxPriceUnbounded,
		DateRange:    DateRangeAll,
	}
}

// ParseFilters reads filters from a query string. Missing or empty keys keep
// their defaults.
func ParseFilters(v url.Values) (Filters, error) {
	f := DefaultFilters()

	if s := strings.TrimSpace(v.Get("property_type")); s != "" {
		f.PropertyType = s
	}
	if s := strings.TrimSpace(v.Get("location")); s != "" {
		f.Location = s
	}
	if s := strings.TrimSpace(v.Get("min_price")); s != "" {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid min_price %q", s)
		}
		f.MinPrice = n
	}
	if s := strings.TrimSpace(v.Get("max_price")); s != "" {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid max_price %q", s)
		}
		f.MaxPrice = n
	}
	if s := strings.TrimSpace(v.Get("date_range")); s != "" {
		switch d := DateRange(strings.ToLower(s)); d {
		case DateRangeAll, DateRangeWeek, DateRangeMonth, DateRangeYear:
			f.DateRange = d
		default:
			return f, fmt.Errorf("invalid date_range %q", s)
		}
	}
	return f, nil
}

// Values encodes f as a query string, the inverse of ParseFilters.
func (f Filters) Values() url.Values {
	return url.Values{
		"property_type": {f.PropertyType},
		"location":      {f.Location},
		"min_price":     {strconv.FormatFloat(f.MinPrice, 'f', -1, 64)},
		"max_price":     {strconv.FormatFloat(f.MaxPrice, 'f', -1, 64)},
		"date_range":    {string(f.DateRange)},
	}
}

// Query converts f into store predicates relative to now. The date window
// start is truncated to the minute so repeated loads share cache entries.
func (f Filters) Query(now time.Time) adstore.Query {
	var q adstore.Query
	if f.PropertyType != "" && f.PropertyType != AllOption {
		q.PropertyType = f.PropertyType
	}
	if f.Location != "" && f.Location != AllOption {
		q.Location = f.Location
	}
	if f.MinPrice > 0 {
		lo := f.MinPrice
		q.MinPrice = &lo
	}
	if f.MaxPrice < MaxPriceUnbounded {
		hi := f.MaxPrice
		q.MaxPrice = &hi
	}
	if w := f.DateRange.Window(); w > 0 {
		after := now.UTC().Add(-w).Truncate(time.Minute)
		q.CreatedAfter = &after
	}
	return q
}
