package charts

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/classifieds-dashboard/internal/analytics"
	"github.com/maltedev/classifieds-dashboard/internal/models"
)

func sampleReport() analytics.Report {
	created := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	return analytics.Compute([]models.Ad{
		{ID: "1", Title: "Duplex Menzah", Price: models.Float(150000), Surface: models.Float(80),
			PropertyType: models.String("Appartement"), Location: models.String("Tunis"), CreatedAt: created},
		{ID: "2", Title: "Villa Hammamet", Price: models.Float(650000), Surface: models.Float(320),
			PropertyType: models.String("Maison/Villa"), Location: models.String("Nabeul"), CreatedAt: created},
	})
}

func TestNewPageHoldsSixCharts(t *testing.T) {
	page := NewPage(sampleReport())
	assert.Len(t, page.Charts, 6)
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport()))

	html := buf.String()
	for _, title := range []string{
		"Property Types",
		"Price Distribution",
		"Price vs Surface",
		"Average Price by Type",
		"Surface Distribution",
		"Scraping Timeline",
	} {
		assert.Contains(t, html, title)
	}
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "Duplex Menzah")
	assert.Contains(t, html, "2025-03-10")
	assert.Contains(t, html, "300k-500k")
}

func TestRenderEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, analytics.Compute(nil)))
	assert.Contains(t, buf.String(), "Scraping Timeline")
}

func TestBars(t *testing.T) {
	labels, data := bars(sampleReport().PriceRanges)
	assert.Equal(t, []string{"0-100k", "100k-200k", "200k-300k", "300k-500k", "500k+"}, labels)
	require.Len(t, data, 5)
	assert.Equal(t, 1, data[1].Value)
	assert.Equal(t, 1, data[4].Value)
	assert.Equal(t, 0, data[0].Value)
}
