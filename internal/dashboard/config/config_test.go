package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://abc.supabase.co")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, BackendSupabase, cfg.Store.Backend)
	assert.Equal(t, "ads", cfg.Supabase.Table)
	assert.Equal(t, "", cfg.Redis.Addr, "cache is off by default")
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, "http://localhost:8000", cfg.Scraper.URL)
	assert.Equal(t, 120*time.Second, cfg.Scraper.Timeout)
	assert.Equal(t, ExportFromBackend, cfg.Export.Source)
	assert.Equal(t, "https://www.ballouchi.com", cfg.Server.AdBaseURL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_MAX_CONNS", "4")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("SCRAPER_TIMEOUT", "not-a-duration")
	t.Setenv("EXPORT_SOURCE", "local")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, int32(4), cfg.Database.MaxConns)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, 120*time.Second, cfg.Scraper.Timeout, "malformed values fall back to the default")
	assert.Equal(t, ExportLocal, cfg.Export.Source)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Store:    StoreConfig{Backend: BackendSupabase, CSVPath: "annonces.csv"},
			Supabase: SupabaseConfig{URL: "https://abc.supabase.co"},
			Database: DatabaseConfig{Host: "localhost", Name: "classifieds", MaxConns: 10},
			Scraper:  ScraperConfig{URL: "http://localhost:8000"},
			Export:   ExportConfig{Source: ExportFromBackend},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"missing supabase url", func(c *Config) { c.Supabase.URL = "" }, "SUPABASE_URL is required"},
		{"relative supabase url", func(c *Config) { c.Supabase.URL = "abc.supabase.co" }, "invalid SUPABASE_URL"},
		{"postgres needs host", func(c *Config) {
			c.Store.Backend = BackendPostgres
			c.Database.Host = ""
		}, "database host is required"},
		{"postgres ok without supabase", func(c *Config) {
			c.Store.Backend = BackendPostgres
			c.Supabase.URL = ""
		}, ""},
		{"csv needs path", func(c *Config) {
			c.Store.Backend = BackendCSV
			c.Store.CSVPath = ""
		}, "CSV_PATH is required"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "mysql" }, "unknown STORE_BACKEND"},
		{"missing scraper url", func(c *Config) { c.Scraper.URL = "" }, "SCRAPER_URL is required"},
		{"unknown export source", func(c *Config) { c.Export.Source = "s3" }, "unknown EXPORT_SOURCE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LoggingConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "component", "test")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)

	buf.Reset()
	logger = LoggingConfig{Level: "loud", Format: "TEXT"}.NewLogger(&buf)
	logger.Debug("hidden")
	logger.Info("shown")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.NotContains(t, buf.String(), "hidden")
}
