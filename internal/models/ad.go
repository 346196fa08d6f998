package models

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidFormat   = errors.New("invalid export format")
)

// Ad is a single scraped classified listing as stored by the scraper backend.
// Every pointer field may be nil and must then be read as "unknown", never as zero.
type Ad struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Price           *float64   `json:"price"`
	Category        string     `json:"category"`
	PropertyType    *string    `json:"property_type"`
	Location        *string    `json:"location"`
	Surface         *float64   `json:"surface"`
	Description     *string    `json:"description"`
	Contact         *string    `json:"contact"`
	PublicationDate *time.Time `json:"publication_date"`
	URL             string     `json:"url"`
	SourceWebsite   string     `json:"source_website"`
	CreatedAt       time.Time  `json:"created_at"`
}

// HasPrice reports whether the price is known.
func (a *Ad) HasPrice() bool {
	return a.Price != nil
}

// HasSurface reports whether the surface is known.
func (a *Ad) HasSurface() bool {
	return a.Surface != nil
}

// PropertyTypeOr returns the property type, or fallback when it is nil or blank.
func (a *Ad) PropertyTypeOr(fallback string) string {
	return valueOr(a.PropertyType, fallback)
}

// LocationOr returns the location, or fallback when it is nil or blank.
func (a *Ad) LocationOr(fallback string) string {
	return valueOr(a.Location, fallback)
}

// AbsoluteURL resolves a site-relative ad URL against base.
func (a *Ad) AbsoluteURL(base string) string {
	if a.URL == "" || base == "" {
		return a.URL
	}
	u, err := url.Parse(a.URL)
	if err != nil || u.IsAbs() {
		return a.URL
	}
	b, err := url.Parse(base)
	if err != nil {
		return a.URL
	}
	return b.ResolveReference(u).String()
}

func valueOr(s *string, fallback string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return fallback
	}
	return *s
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}

// Category selects which section of the classifieds site the scraper crawls.
type Category string

const (
	CategoryVehicles   Category = "vehicules"
	CategoryRealEstate Category = "immobilier"
)

func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryVehicles, CategoryRealEstate:
		return c, nil
	case "":
		return CategoryRealEstate, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// Label is the human-readable name shown in the category selector.
func (c Category) Label() string {
	if c == CategoryVehicles {
		return "Vehicles"
	}
	return "Real Estate"
}

// ExportFormat is one of the file formats the export endpoint produces.
type ExportFormat string

const (
	FormatCSV   ExportFormat = "csv"
	FormatJSON  ExportFormat = "json"
	FormatExcel ExportFormat = "excel"
)

func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatExcel:
		return f, nil
	case "xlsx":
		return FormatExcel, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
}

// Extension is the file extension used for downloads.
func (f ExportFormat) Extension() string {
	if f == FormatExcel {
		return "xlsx"
	}
	return string(f)
}

func (f ExportFormat) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Filename is the download name for an export in this format.
func (f ExportFormat) Filename() string {
	return "annonces." + f.Extension()
}

// CSVColumns is the column order of the annonces.csv file written by the
// scraper backend, extended with id and created_at for local exports.
var CSVColumns = []string{
	"id", "title", "price", "category", "property_type", "location", "surface",
	"description", "contact", "publication_date", "url", "source_website", "created_at",
}
