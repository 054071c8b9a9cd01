package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
}

func TestLoadDefaults(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "sitefinder.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "https://customsearch.googleapis.com/customsearch/v1", cfg.CSE.BaseURL)
	assert.Equal(t, []string{"cse", "browser", "ddg"}, cfg.Search.Backends)
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.True(t, cfg.Search.Cache)
	assert.Equal(t, 168, cfg.Search.CacheTTLHours)
	assert.Equal(t, 4, cfg.Search.RateLimitSecs)
	assert.Equal(t, 3, cfg.Search.Retries)
	assert.Equal(t, 2, cfg.Browser.PoolSize)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 1000, cfg.Browser.NavWaitMS)
	assert.Equal(t, 30, cfg.Browser.TimeoutSecs)
	assert.Equal(t, "free_ip_list.csv", cfg.Proxy.Source)
	assert.Equal(t, 3, cfg.Proxy.PerAttempt)
	assert.Equal(t, 5, cfg.Resolve.Concurrency)
	assert.Equal(t, 2, cfg.Scrape.Workers)
	assert.Equal(t, "google_results.csv", cfg.Scrape.Results)
	assert.Equal(t, "cant_find_urls.csv", cfg.Scrape.NotFound)
	assert.Equal(t, 2, cfg.LinkedIn.Workers)
	assert.Equal(t, "linkedin_urls.csv", cfg.LinkedIn.Output)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	chTempDir(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/sitefinder
search:
  backends: [ddg]
  max_results: 5
log:
  level: debug
  format: console
server:
  port: 9090
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/sitefinder", cfg.Store.DatabaseURL)
	assert.Equal(t, []string{"ddg"}, cfg.Search.Backends)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, 5, cfg.Resolve.Concurrency)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chTempDir(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("SITEFINDER_STORE_DRIVER", "postgres")
	t.Setenv("SITEFINDER_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chTempDir(t)

	t.Setenv("SITEFINDER_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadLegacyCredentialEnvNames(t *testing.T) {
	chTempDir(t)

	t.Setenv("GOOGLE_CUSTOM_SEARCH_API_KEY", "legacy-key")
	t.Setenv("CUSTOM_SEARCH_ENGINE_ID", "legacy-engine")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", cfg.CSE.APIKey)
	assert.Equal(t, "legacy-engine", cfg.CSE.EngineID)
}

func TestLoadPrefixedCredentialsWinOverLegacy(t *testing.T) {
	chTempDir(t)

	t.Setenv("SITEFINDER_CSE_API_KEY", "new-key")
	t.Setenv("GOOGLE_CUSTOM_SEARCH_API_KEY", "legacy-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "new-key", cfg.CSE.APIKey)
}

func TestLoadDotEnvFile(t *testing.T) {
	chTempDir(t)
	// godotenv sets process env vars; drop the one this test plants.
	t.Cleanup(func() { os.Unsetenv("SITEFINDER_CSE_API_KEY") }) //nolint:errcheck

	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("SITEFINDER_CSE_API_KEY=dotenv-key\n"), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dotenv-key", cfg.CSE.APIKey)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func TestInitLoggerWithFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "sitefinder.log")

	err := InitLogger(LogConfig{Level: "info", Format: "json", File: logFile})
	require.NoError(t, err)

	zap.L().Info("test entry")
	_ = zap.L().Sync() // stderr sync fails on some platforms; file writes are unbuffered

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "test entry")
}

// validDefaults returns a Config with defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Search.MaxResults = 10
	cfg.Search.CacheTTLHours = 168
	cfg.Browser.PoolSize = 2
	cfg.Proxy.PerAttempt = 3
	cfg.Resolve.Concurrency = 5
	cfg.Scrape.Workers = 2
	cfg.LinkedIn.Workers = 2
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateResolve_OK(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("resolve"))
}

func TestValidateResolve_ConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Resolve.Concurrency = 0
	err := cfg.Validate("resolve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve.concurrency must be between 1 and 50")

	cfg.Resolve.Concurrency = 51
	err = cfg.Validate("resolve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve.concurrency must be between 1 and 50")

	cfg.Resolve.Concurrency = 50
	assert.NoError(t, cfg.Validate("resolve"))
}

func TestValidateResolve_MaxResults(t *testing.T) {
	cfg := validDefaults()
	cfg.Search.MaxResults = 11

	err := cfg.Validate("resolve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.max_results must be between 1 and 10")
}

func TestValidateScrape_PoolSize(t *testing.T) {
	cfg := validDefaults()
	cfg.Browser.PoolSize = 0

	err := cfg.Validate("scrape")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "browser.pool_size must be between 1 and 16")
}

func TestValidateRun_ChecksBothPasses(t *testing.T) {
	cfg := validDefaults()
	cfg.Resolve.Concurrency = 0
	cfg.Scrape.Workers = 0

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve.concurrency")
	assert.Contains(t, err.Error(), "scrape.workers")
}

func TestValidateLinkedIn_ProxyBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Proxy.PerAttempt = 11

	err := cfg.Validate("linkedin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "proxy.per_attempt must be between 0 and 10")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be between 1 and 65535")
}

func TestValidateUnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "oracle"

	err := cfg.Validate("resolve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
