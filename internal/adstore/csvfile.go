package adstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/maltedev/classifieds-dashboard/internal/models"
)

// CSVStore serves ads from the annonces.csv file the scraper backend writes.
// The file is re-read on every call so new scrapes show up without a restart.
type CSVStore struct {
	path   string
	logger *slog.Logger
}

func NewCSVStore(path string, logger *slog.Logger) *CSVStore {
	return &CSVStore{
		path:   path,
		logger: logger.With("component", "csv_store"),
	}
}

func (s *CSVStore) List(ctx context.Context, q Query) ([]models.Ad, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", s.path, err)
	}
	defer f.Close()

	// Rows without created_at fall back to the file's modification time.
	fallback := time.Now()
	if info, err := f.Stat(); err == nil {
		fallback = info.ModTime()
	}

	all, err := ReadCSV(f, fallback)
	if err != nil {
		return nil, fmt.Errorf("csv: read %q: %w", s.path, err)
	}

	ads := make([]models.Ad, 0, len(all))
	for i := range all {
		if q.Match(&all[i]) {
			ads = append(ads, all[i])
		}
	}
	sort.SliceStable(ads, func(i, j int) bool {
		return ads[i].CreatedAt.After(ads[j].CreatedAt)
	})

	s.logger.Debug("rows read", "total", len(all), "matched", len(ads))
	return ads, nil
}

// ReadCSV parses ads from CSV with a header row. Columns are matched by name;
// unknown columns are ignored and empty cells become unknown values. When the
// file carries no id column the 1-based row number is used.
func ReadCSV(r io.Reader, fallback time.Time) ([]models.Ad, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}

	var ads []models.Ad
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}

		cell := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		ad := models.Ad{
			ID:            cell("id"),
			Title:         cell("title"),
			Category:      cell("category"),
			PropertyType:  optString(cell("property_type")),
			Location:      optString(cell("location")),
			Description:   optString(cell("description")),
			Contact:       optString(cell("contact")),
			URL:           cell("url"),
			SourceWebsite: cell("source_website"),
			CreatedAt:     fallback,
		}
		if ad.ID == "" {
			ad.ID = strconv.Itoa(line)
		}
		if ad.Price, err = optFloat(cell("price")); err != nil {
			return nil, fmt.Errorf("line %d: price: %w", line+1, err)
		}
		if ad.Surface, err = optFloat(cell("surface")); err != nil {
			return nil, fmt.Errorf("line %d: surface: %w", line+1, err)
		}
		if v := cell("publication_date"); v != "" {
			t, err := ParseTimestamp(v)
			if err != nil {
				return nil, fmt.Errorf("line %d: publication_date: %w", line+1, err)
			}
			ad.PublicationDate = &t
			ad.CreatedAt = t
		}
		if v := cell("created_at"); v != "" {
			t, err := ParseTimestamp(v)
			if err != nil {
				return nil, fmt.Errorf("line %d: created_at: %w", line+1, err)
			}
			ad.CreatedAt = t
		}

		ads = append(ads, ad)
	}
	return ads, nil
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// optFloat treats empty cells and pandas' NaN as unknown.
func optFloat(s string) (*float64, error) {
	if s == "" || strings.EqualFold(s, "nan") {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
