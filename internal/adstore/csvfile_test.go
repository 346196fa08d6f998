package adstore

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/classifieds-dashboard/internal/models"
)

// Shape written by the scraper backend with pandas: no id, no created_at.
const scraperCSV = `title,price,category,property_type,location,surface,description,contact,publication_date,url,source_website
Appartement S+2,180000.0,immobilier,Appartement,Tunis,95.0,Bel appartement 95 m2,,2025-03-10T09:15:00.123456,https://www.ballouchi.com/a/1,ballouchi.com
Terrain agricole,,immobilier,Terrain,Sousse,,,,2025-03-08T10:00:00,https://www.ballouchi.com/a/2,ballouchi.com
Villa avec piscine,650000.0,immobilier,Maison/Villa,,NaN,"Villa, 320 m2",98 765 432,2025-03-11T07:30:00,https://www.ballouchi.com/a/3,ballouchi.com
`

func TestReadCSVScraperOutput(t *testing.T) {
	fallback := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ads, err := ReadCSV(strings.NewReader(scraperCSV), fallback)
	require.NoError(t, err)
	require.Len(t, ads, 3)

	assert.Equal(t, "1", ads[0].ID)
	assert.Equal(t, "Appartement S+2", ads[0].Title)
	require.NotNil(t, ads[0].Price)
	assert.Equal(t, 180000.0, *ads[0].Price)
	assert.Nil(t, ads[0].Contact)
	assert.Equal(t, time.Date(2025, 3, 10, 9, 15, 0, 123456000, time.UTC), ads[0].CreatedAt)

	assert.Nil(t, ads[1].Price, "empty price cell must be unknown")
	assert.Nil(t, ads[1].Surface)

	assert.Nil(t, ads[2].Surface, "NaN surface must be unknown")
	assert.Nil(t, ads[2].Location)
	require.NotNil(t, ads[2].Description)
	assert.Equal(t, "Villa, 320 m2", *ads[2].Description)
}

func TestReadCSVEmptyInput(t *testing.T) {
	ads, err := ReadCSV(strings.NewReader(""), time.Now())
	require.NoError(t, err)
	assert.Empty(t, ads)
}

func TestReadCSVRejectsBadNumbers(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("title,price\nx,cheap\n"), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestCSVStoreListFiltersAndSorts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annonces.csv")
	require.NoError(t, os.WriteFile(path, []byte(scraperCSV), 0644))

	store := NewCSVStore(path, slog.Default())

	ads, err := store.List(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, ads, 3)
	assert.Equal(t, "Villa avec piscine", ads[0].Title, "newest first")
	assert.Equal(t, "Terrain agricole", ads[2].Title)

	ads, err = store.List(context.Background(), Query{MinPrice: models.Float(100000)})
	require.NoError(t, err)
	require.Len(t, ads, 2)
	for _, ad := range ads {
		assert.NotNil(t, ad.Price)
	}
}

func TestCSVStoreMissingFile(t *testing.T) {
	store := NewCSVStore(filepath.Join(t.TempDir(), "missing.csv"), slog.Default())
	_, err := store.List(context.Background(), Query{})
	assert.Error(t, err)
}
