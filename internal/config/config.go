// Package config loads sitefinder settings from config.yaml, the
// environment, and an optional .env file.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	CSE      CSEConfig      `yaml:"cse" mapstructure:"cse"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Browser  BrowserConfig  `yaml:"browser" mapstructure:"browser"`
	Proxy    ProxyConfig    `yaml:"proxy" mapstructure:"proxy"`
	Resolve  ResolveConfig  `yaml:"resolve" mapstructure:"resolve"`
	Scrape   ScrapeConfig   `yaml:"scrape" mapstructure:"scrape"`
	LinkedIn LinkedInConfig `yaml:"linkedin" mapstructure:"linkedin"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the cache and result store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// CSEConfig holds Google Custom Search API credentials.
type CSEConfig struct {
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
	EngineID string `yaml:"engine_id" mapstructure:"engine_id"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
}

// SearchConfig configures the search backend chain.
type SearchConfig struct {
	Backends      []string `yaml:"backends" mapstructure:"backends"`
	MaxResults    int      `yaml:"max_results" mapstructure:"max_results"`
	Cache         bool     `yaml:"cache" mapstructure:"cache"`
	CacheTTLHours int      `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	RateLimitSecs int      `yaml:"rate_limit_secs" mapstructure:"rate_limit_secs"`
	Retries       int      `yaml:"retries" mapstructure:"retries"`
}

// BrowserConfig configures the headless Chrome pool.
type BrowserConfig struct {
	PoolSize    int    `yaml:"pool_size" mapstructure:"pool_size"`
	Headless    bool   `yaml:"headless" mapstructure:"headless"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	NavWaitMS   int    `yaml:"nav_wait_ms" mapstructure:"nav_wait_ms"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ProxyConfig configures the proxy list for LinkedIn lookups.
type ProxyConfig struct {
	Source     string `yaml:"source" mapstructure:"source"`
	PerAttempt int    `yaml:"per_attempt" mapstructure:"per_attempt"`
}

// ResolveConfig configures the API resolution pass.
type ResolveConfig struct {
	Concurrency    int    `yaml:"concurrency" mapstructure:"concurrency"`
	DictionaryPath string `yaml:"dictionary_path" mapstructure:"dictionary_path"`
	RulesPath      string `yaml:"rules_path" mapstructure:"rules_path"`
}

// ScrapeConfig configures the browser scrape pass.
type ScrapeConfig struct {
	Workers  int    `yaml:"workers" mapstructure:"workers"`
	Results  string `yaml:"results" mapstructure:"results"`
	NotFound string `yaml:"notfound" mapstructure:"notfound"`
}

// LinkedInConfig configures the LinkedIn URL lookup pass.
type LinkedInConfig struct {
	Workers int    `yaml:"workers" mapstructure:"workers"`
	Output  string `yaml:"output" mapstructure:"output"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging. File, when set, is added to the output
// paths so logs land on stderr and in the file.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	File   string `yaml:"file" mapstructure:"file"`
}

// Load reads configuration from .env, config file, and environment.
func Load() (*Config, error) {
	// .env is optional; real env vars win over it.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SITEFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Legacy credential names still work alongside the prefixed ones.
	v.BindEnv("cse.api_key", "SITEFINDER_CSE_API_KEY", "GOOGLE_CUSTOM_SEARCH_API_KEY") //nolint:errcheck
	v.BindEnv("cse.engine_id", "SITEFINDER_CSE_ENGINE_ID", "CUSTOM_SEARCH_ENGINE_ID")  //nolint:errcheck

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "sitefinder.db")
	v.SetDefault("cse.base_url", "https://customsearch.googleapis.com/customsearch/v1")
	v.SetDefault("search.backends", []string{"cse", "browser", "ddg"})
	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.cache", true)
	v.SetDefault("search.cache_ttl_hours", 168)
	v.SetDefault("search.rate_limit_secs", 4)
	v.SetDefault("search.retries", 3)
	v.SetDefault("browser.pool_size", 2)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.nav_wait_ms", 1000)
	v.SetDefault("browser.timeout_secs", 30)
	v.SetDefault("proxy.source", "free_ip_list.csv")
	v.SetDefault("proxy.per_attempt", 3)
	v.SetDefault("resolve.concurrency", 5)
	v.SetDefault("scrape.workers", 2)
	v.SetDefault("scrape.results", "google_results.csv")
	v.SetDefault("scrape.notfound", "cant_find_urls.csv")
	v.SetDefault("linkedin.workers", 2)
	v.SetDefault("linkedin.output", "linkedin_urls.csv")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for the given command mode. API
// credentials are checked separately at the command layer, since the
// chain can run without the CSE backend.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "", "sqlite", "postgres":
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}

	checkResolve := func() {
		if c.Resolve.Concurrency < 1 || c.Resolve.Concurrency > 50 {
			problems = append(problems, "resolve.concurrency must be between 1 and 50")
		}
		if c.Search.MaxResults < 1 || c.Search.MaxResults > 10 {
			problems = append(problems, "search.max_results must be between 1 and 10")
		}
		if c.Search.CacheTTLHours < 0 {
			problems = append(problems, "search.cache_ttl_hours must be >= 0")
		}
	}
	checkScrape := func() {
		if c.Scrape.Workers < 1 || c.Scrape.Workers > 20 {
			problems = append(problems, "scrape.workers must be between 1 and 20")
		}
		if c.Browser.PoolSize < 1 || c.Browser.PoolSize > 16 {
			problems = append(problems, "browser.pool_size must be between 1 and 16")
		}
	}

	switch mode {
	case "resolve":
		checkResolve()
	case "scrape":
		checkScrape()
	case "run":
		checkResolve()
		checkScrape()
	case "linkedin":
		if c.LinkedIn.Workers < 1 || c.LinkedIn.Workers > 20 {
			problems = append(problems, "linkedin.workers must be between 1 and 20")
		}
		if c.Proxy.PerAttempt < 0 || c.Proxy.PerAttempt > 10 {
			problems = append(problems, "proxy.per_attempt must be between 0 and 10")
		}
	case "serve":
		checkResolve()
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be between 1 and 65535")
		}
	case "cache":
	default:
		return eris.Errorf("config: unknown mode: %s", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	if cfg.File != "" {
		zapCfg.OutputPaths = append(zapCfg.OutputPaths, cfg.File)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
