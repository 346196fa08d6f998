package scraperclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maltedev/classifieds-dashboard/internal/models"
)

// ErrUnexpectedStatus is returned when the scraper backend answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected status from scraper backend")

// Client talks to the external scraper backend. It never retries.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Run describes one scrape request sent to the backend.
type Run struct {
	ID         string          `json:"run_id"`
	Category   models.Category `json:"category"`
	Message    string          `json:"message,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

func New(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("scraper url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid scraper url: %w", err)
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("component", "scraper_client"),
	}, nil
}

// Scrape asks the backend to crawl category. The call blocks until the
// backend has finished and stored the new ads.
func (c *Client) Scrape(ctx context.Context, category models.Category) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		Category:  category,
		StartedAt: time.Now(),
	}

	endpoint := c.baseURL + "/scrape?" + url.Values{"category": {string(category)}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build scrape request: %w", err)
	}
	req.Header.Set("X-Request-ID", run.ID)

	c.logger.Info("starting scrape", "run_id", run.ID, "category", category)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scrape request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read scrape response: %w", err)
	}
	if err := checkStatus(resp, body); err != nil {
		return nil, err
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		run.Message = payload.Message
	}
	run.FinishedAt = time.Now()

	c.logger.Info("scrape completed",
		"run_id", run.ID,
		"category", category,
		"duration", run.FinishedAt.Sub(run.StartedAt),
		"message", run.Message,
	)
	return run, nil
}

// Export downloads the backend's export in format. The backend decides the
// actual content type; the filename comes from Content-Disposition when set.
func (c *Client) Export(ctx context.Context, format models.ExportFormat) (*models.Blob, error) {
	endpoint := c.baseURL + "/export?" + url.Values{"format": {string(format)}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build export request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("export request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}
	if err := checkStatus(resp, data); err != nil {
		return nil, err
	}

	blob := &models.Blob{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    format.Filename(),
	}
	if blob.ContentType == "" {
		blob.ContentType = format.ContentType()
	}
	if name := attachmentName(resp.Header.Get("Content-Disposition")); name != "" {
		blob.Filename = name
	}

	c.logger.Debug("export downloaded", "format", format, "bytes", len(data), "filename", blob.Filename)
	return blob, nil
}

func checkStatus(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg := bytes.TrimSpace(body)
	if len(msg) > 256 {
		msg = msg[:256]
	}
	return fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, msg)
}

func attachmentName(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}
