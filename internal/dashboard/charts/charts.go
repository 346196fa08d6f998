// Package charts renders the dashboard aggregates as an ECharts page.
package charts

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/maltedev/classifieds-dashboard/internal/analytics"
)

const (
	chartWidth  = "560px"
	chartHeight = "360px"
)

// Render writes a standalone HTML page holding all six charts.
func Render(w io.Writer, report analytics.Report) error {
	return NewPage(report).Render(w)
}

// NewPage lays out the six charts: property-type pie, price histogram,
// price vs surface scatter, average price by type, surface area chart and
// the scraping timeline.
func NewPage(report analytics.Report) *components.Page {
	page := components.NewPage()
	page.PageTitle = "Classifieds Dashboard"
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(
		PropertyTypes(report.PropertyTypes),
		PriceDistribution(report.PriceRanges),
		PriceVsSurface(report.PriceVsSurface),
		AveragePriceByType(report.AveragePriceByType),
		SurfaceDistribution(report.SurfaceRanges),
		Timeline(report.ScrapingTimeline),
	)
	return page
}

func PropertyTypes(counts []analytics.Count) *charts.Pie {
	data := make([]opts.PieData, 0, len(counts))
	for _, c := range counts {
		data = append(data, opts.PieData{Name: c.Name, Value: c.Value})
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(size()),
		charts.WithTitleOpts(opts.Title{Title: "Property Types"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "item", Formatter: "{b}: {c} ({d}%)"}),
	)
	pie.AddSeries("Property types", data).
		SetSeriesOptions(charts.WithPieChartOpts(opts.PieChart{Radius: []string{"35%", "70%"}}))
	return pie
}

func PriceDistribution(buckets [5]analytics.Bucket) *charts.Bar {
	labels, data := bars(buckets)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(size()),
		charts.WithTitleOpts(opts.Title{Title: "Price Distribution"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Listings"}),
	)
	bar.SetXAxis(labels).AddSeries("Listings", data)
	return bar
}

func PriceVsSurface(points []analytics.Point) *charts.Scatter {
	data := make([]opts.ScatterData, 0, len(points))
	for _, p := range points {
		data = append(data, opts.ScatterData{Name: p.Title, Value: []float64{p.Surface, p.Price}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(size()),
		charts.WithTitleOpts(opts.Title{Title: "Price vs Surface"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "item"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Surface (m²)"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Price"}),
	)
	scatter.AddSeries("Listings", data)
	return scatter
}

func AveragePriceByType(avgs []analytics.TypeAverage) *charts.Bar {
	labels := make([]string, 0, len(avgs))
	data := make([]opts.BarData, 0, len(avgs))
	for _, a := range avgs {
		labels = append(labels, a.Type)
		data = append(data, opts.BarData{Name: a.Type, Value: a.AvgPrice})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(size()),
		charts.WithTitleOpts(opts.Title{Title: "Average Price by Type"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Average price"}),
	)
	bar.SetXAxis(labels).AddSeries("Average price", data)
	return bar
}

func SurfaceDistribution(buckets [5]analytics.Bucket) *charts.Line {
	labels, bardata := bars(buckets)
	data := make([]opts.LineData, 0, len(bardata))
	for _, b := range bardata {
		data = append(data, opts.LineData{Name: b.Name, Value: b.Value})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(size()),
		charts.WithTitleOpts(opts.Title{Title: "Surface Distribution"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Listings"}),
	)
	line.SetXAxis(labels).
		AddSeries("Listings", data).
		SetSeriesOptions(charts.WithAreaStyleOpts(opts.AreaStyle{}))
	return line
}

func Timeline(days []analytics.DateCount) *charts.Line {
	labels := make([]string, 0, len(days))
	data := make([]opts.LineData, 0, len(days))
	for _, d := range days {
		labels = append(labels, d.Date)
		data = append(data, opts.LineData{Name: d.Date, Value: d.Count})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(size()),
		charts.WithTitleOpts(opts.Title{Title: "Scraping Timeline"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Ads scraped"}),
	)
	line.SetXAxis(labels).AddSeries("Ads scraped", data)
	return line
}

func bars(buckets [5]analytics.Bucket) ([]string, []opts.BarData) {
	labels := make([]string, 0, len(buckets))
	data := make([]opts.BarData, 0, len(buckets))
	for _, b := range buckets {
		labels = append(labels, b.Range)
		data = append(data, opts.BarData{Name: b.Range, Value: b.Count})
	}
	return labels, data
}

func size() opts.Initialization {
	return opts.Initialization{Width: chartWidth, Height: chartHeight}
}
