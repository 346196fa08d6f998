package adstore

import (
	"testing"
	"time"

	"github.com/maltedev/classifieds-dashboard/internal/models"
)

func TestQueryMatch(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	ad := models.Ad{
		Price:        models.Float(150000),
		PropertyType: models.String("Appartement"),
		Location:     models.String("Tunis"),
		CreatedAt:    now.Add(-time.Hour),
	}
	unpriced := models.Ad{PropertyType: models.String("Appartement"), CreatedAt: now}
	old := ad
	old.CreatedAt = now.Add(-30 * 24 * time.Hour)

	tests := []struct {
		name     string
		query    Query
		ad       models.Ad
		expected bool
	}{
		{"Empty query matches", Query{}, ad, true},
		{"Type equality", Query{PropertyType: "Appartement"}, ad, true},
		{"Type mismatch", Query{PropertyType: "Terrain"}, ad, false},
		{"Location mismatch", Query{Location: "Sfax"}, ad, false},
		{"Location on nil location", Query{Location: "Tunis"}, unpriced, false},
		{"Min price inclusive", Query{MinPrice: models.Float(150000)}, ad, true},
		{"Max price inclusive", Query{MaxPrice: models.Float(150000)}, ad, true},
		{"Below min", Query{MinPrice: models.Float(150001)}, ad, false},
		{"Price range excludes unknown price", Query{MinPrice: models.Float(0)}, unpriced, false},
		{"Recent ad inside window", Query{CreatedAfter: &weekAgo}, ad, true},
		{"Old ad outside window", Query{CreatedAfter: &weekAgo}, old, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.query.Match(&tt.ad); got != tt.expected {
				t.Errorf("Match() = %v, want %v", got, tt.expected)
			}
		})
	}
}
