package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TITLE_FILTERS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 100, cfg.Store.ChunkSize)
	assert.Equal(t, 4, cfg.Scrape.Concurrency)
	assert.Equal(t, 15*time.Second, cfg.Scrape.Timeout())
	assert.Equal(t, 20, cfg.Scrape.PageSize)
	assert.True(t, cfg.Scrape.RespectRobots)
	assert.Equal(t, 30, cfg.Server.IntervalMins)
	assert.Empty(t, cfg.Filters.Titles)
	assert.Empty(t, cfg.Sites.File)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
store:
  driver: sqlite
  database_url: file:jobs.db
scrape:
  concurrency: 8
  page_size: 50
filters:
  titles: ["engineer", "developer"]
`), 0o600))
	t.Setenv("AGGREGATOR_SCRAPE_PAGE_SIZE", "100")
	t.Setenv("AGGREGATOR_SITES_FILE", "sites.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "file:jobs.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 8, cfg.Scrape.Concurrency)
	assert.Equal(t, 100, cfg.Scrape.PageSize)
	assert.Equal(t, "sites.yaml", cfg.Sites.File)
	assert.Equal(t, []string{"engineer", "developer"}, cfg.Filters.Titles)
}

func TestLoad_DotEnvAndLegacyFilters(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DATABASE_URL=postgres://env/db\n"), 0o600))
	t.Setenv("TITLE_FILTERS", " Software Engineer, ,Data ")
	// godotenv does not override variables that are already set.
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/db", cfg.Store.DatabaseURL)
	assert.Equal(t, []string{"Software Engineer", "Data"}, cfg.Filters.Titles)
}

func TestNewLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger, err := newLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "site_id", "acme")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"site_id":"acme"`)

	buf.Reset()
	_, err = newLogger(LogConfig{Level: "debug", Format: "text"}, &buf)
	require.NoError(t, err)
	slog.Debug("via default")
	assert.Contains(t, buf.String(), "msg=\"via default\"")

	_, err = newLogger(LogConfig{Level: "loud"}, &buf)
	assert.Error(t, err)
}
