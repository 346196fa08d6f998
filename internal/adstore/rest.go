package adstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/maltedev/classifieds-dashboard/internal/models"
)

// RESTConfig points the store at a Supabase project (or any PostgREST server).
type RESTConfig struct {
	BaseURL string
	APIKey  string
	Table   string
}

// RESTStore queries the ads table through the PostgREST API exposed by
// Supabase at <BaseURL>/rest/v1/<table>.
type RESTStore struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *slog.Logger
}

func NewRESTStore(cfg RESTConfig, client *http.Client, logger *slog.Logger) (*RESTStore, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("supabase: base url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("supabase: parse base url: %w", err)
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &RESTStore{
		endpoint: base.JoinPath("rest", "v1", cfg.Table).String(),
		apiKey:   cfg.APIKey,
		client:   client,
		logger:   logger.With("component", "rest_store"),
	}, nil
}

// List fetches matching rows ordered by created_at descending.
func (s *RESTStore) List(ctx context.Context, q Query) ([]models.Ad, error) {
	reqURL := s.endpoint + "?" + restParams(q).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("apikey", s.apiKey)
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("supabase: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var rows []restRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("supabase: decode rows: %w", err)
	}

	ads := make([]models.Ad, 0, len(rows))
	for _, r := range rows {
		ad, err := r.toAd()
		if err != nil {
			s.logger.Warn("skipping malformed row", "error", err)
			continue
		}
		ads = append(ads, ad)
	}

	s.logger.Debug("rows fetched", "count", len(ads))
	return ads, nil
}

// restParams translates a query into PostgREST operators.
func restParams(q Query) url.Values {
	v := url.Values{}
	v.Set("select", "*")
	if q.PropertyType != "" {
		v.Add("property_type", "eq."+q.PropertyType)
	}
	if q.Location != "" {
		v.Add("location", "eq."+q.Location)
	}
	if q.MinPrice != nil {
		v.Add("price", "gte."+formatFloat(*q.MinPrice))
	}
	if q.MaxPrice != nil {
		v.Add("price", "lte."+formatFloat(*q.MaxPrice))
	}
	if q.CreatedAfter != nil {
		v.Add("created_at", "gte."+q.CreatedAfter.UTC().Format(time.RFC3339))
	}
	v.Set("order", "created_at.desc")
	return v
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// restRow mirrors the JSON PostgREST returns; ids may be numbers or uuids
// and timestamps may lack a zone.
type restRow struct {
	ID              json.RawMessage `json:"id"`
	Title           string          `json:"title"`
	Price           *float64        `json:"price"`
	Category        string          `json:"category"`
	PropertyType    *string         `json:"property_type"`
	Location        *string         `json:"location"`
	Surface         *float64        `json:"surface"`
	Description     *string         `json:"description"`
	Contact         *string         `json:"contact"`
	PublicationDate *string         `json:"publication_date"`
	URL             string          `json:"url"`
	SourceWebsite   string          `json:"source_website"`
	CreatedAt       *string         `json:"created_at"`
}

func (r restRow) toAd() (models.Ad, error) {
	ad := models.Ad{
		ID:            rawID(r.ID),
		Title:         r.Title,
		Price:         r.Price,
		Category:      r.Category,
		PropertyType:  r.PropertyType,
		Location:      r.Location,
		Surface:       r.Surface,
		Description:   r.Description,
		Contact:       r.Contact,
		URL:           r.URL,
		SourceWebsite: r.SourceWebsite,
	}

	if r.PublicationDate != nil && *r.PublicationDate != "" {
		t, err := ParseTimestamp(*r.PublicationDate)
		if err != nil {
			return ad, fmt.Errorf("row %s: publication_date: %w", ad.ID, err)
		}
		ad.PublicationDate = &t
	}
	if r.CreatedAt != nil && *r.CreatedAt != "" {
		t, err := ParseTimestamp(*r.CreatedAt)
		if err != nil {
			return ad, fmt.Errorf("row %s: created_at: %w", ad.ID, err)
		}
		ad.CreatedAt = t
	}
	return ad, nil
}

func rawID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp accepts the timestamp shapes Postgres, PostgREST and the
// scraper's CSV output produce. Values without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
