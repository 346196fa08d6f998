// Package adstore reads ads from the backing store. The dashboard never
// writes ads; they are appended by the scraper backend.
package adstore

import (
	"context"
	"time"

	"github.com/maltedev/classifieds-dashboard/internal/models"
)

// DefaultTable is the table the scraper backend appends ads to.
const DefaultTable = "ads"

// Store lists ads matching a query, newest first.
type Store interface {
	List(ctx context.Context, q Query) ([]models.Ad, error)
}

// Query holds the row predicates the dashboard uses. Zero-valued fields add
// no predicate.
type Query struct {
	PropertyType string
	Location     string
	MinPrice     *float64
	MaxPrice     *float64
	CreatedAfter *time.Time
	// Fresh asks caching stores to skip their cache for this call.
	Fresh bool
}

// Match evaluates the query against a single ad, with the same semantics the
// SQL and REST backends apply server-side: a range predicate on price never
// matches an ad whose price is unknown.
func (q Query) Match(ad *models.Ad) bool {
	if q.PropertyType != "" && (ad.PropertyType == nil || *ad.PropertyType != q.PropertyType) {
		return false
	}
	if q.Location != "" && (ad.Location == nil || *ad.Location != q.Location) {
		return false
	}
	if q.MinPrice != nil && (ad.Price == nil || *ad.Price < *q.MinPrice) {
		return false
	}
	if q.MaxPrice != nil && (ad.Price == nil || *ad.Price > *q.MaxPrice) {
		return false
	}
	if q.CreatedAfter != nil && ad.CreatedAt.Before(*q.CreatedAfter) {
		return false
	}
	return true
}
