package main

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/sitefinder/internal/browser"
	"github.com/sells-group/sitefinder/internal/quota"
	"github.com/sells-group/sitefinder/internal/rank"
	"github.com/sells-group/sitefinder/internal/resilience"
	"github.com/sells-group/sitefinder/internal/search"
	"github.com/sells-group/sitefinder/internal/store"
	"github.com/sells-group/sitefinder/pkg/cse"
)

// searchEnv holds the wired search stack shared by the resolve, run,
// and serve commands. Close releases the browser pool and the store;
// both are nil when the chain never needed them.
type searchEnv struct {
	Store store.Store
	Pool  *browser.Pool
	Chain *search.Chain
	Usage *quota.Tracker
}

func (se *searchEnv) Close() {
	if se.Pool != nil {
		se.Pool.Close()
	}
	if se.Store != nil {
		if err := se.Store.Close(); err != nil {
			zap.L().Warn("store close failed", zap.Error(err))
		}
	}
}

// initStore opens the configured store backend and runs migrations.
func initStore(ctx context.Context) (store.Store, error) {
	return store.New(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL, &store.PoolConfig{
		MaxConns: cfg.Store.MaxConns,
		MinConns: cfg.Store.MinConns,
	})
}

// initSearchEnv builds the fallback chain for the given backend names.
// Each backend is wrapped in the store-backed cache when caching is on,
// so a hit on any backend is reusable across runs. The Chrome pool is
// only started when the browser backend is in the chain.
func initSearchEnv(ctx context.Context, backends []string, headless bool) (*searchEnv, error) {
	env := &searchEnv{Usage: quota.NewTracker(quota.DefaultRates())}

	if cfg.Search.Cache {
		st, err := initStore(ctx)
		if err != nil {
			return nil, err
		}
		env.Store = st
	}

	ttl := time.Duration(cfg.Search.CacheTTLHours) * time.Hour

	searchers := make([]search.Searcher, 0, len(backends))
	for _, name := range backends {
		var s search.Searcher
		switch name {
		case "cse":
			client := cse.NewClient(cfg.CSE.APIKey, cfg.CSE.EngineID, cse.WithBaseURL(cfg.CSE.BaseURL))
			s = search.NewCSE(client)
		case "browser":
			if env.Pool == nil {
				pool, err := browser.NewPool(ctx, browser.Config{
					Size:      cfg.Browser.PoolSize,
					Headless:  headless,
					UserAgent: cfg.Browser.UserAgent,
					NavWait:   time.Duration(cfg.Browser.NavWaitMS) * time.Millisecond,
					Timeout:   time.Duration(cfg.Browser.TimeoutSecs) * time.Second,
				})
				if err != nil {
					env.Close()
					return nil, err
				}
				env.Pool = pool
			}
			s = search.NewGoogleBrowser(env.Pool, search.WithGoogleRateLimit(queryLimiter()))
		case "ddg":
			s = search.NewDuckDuckGo()
		default:
			env.Close()
			return nil, eris.Errorf("unknown search backend %q (want cse, browser, or ddg)", name)
		}
		s = quota.Metered(s, env.Usage)
		if env.Store != nil {
			s = search.NewCached(s, env.Store, ttl)
		}
		searchers = append(searchers, s)
	}

	retry := resilience.FromConfig(cfg.Search.Retries)
	env.Chain = search.NewChain(searchers, search.WithRetryConfig(retry))
	return env, nil
}

// printUsage reports outbound query counts after a batch run, plus the
// estimated spend when the CSE free tier was exceeded.
func printUsage(env *searchEnv) {
	counts := env.Usage.Counts()
	if len(counts) == 0 {
		return
	}

	backends := make([]string, 0, len(counts))
	for backend := range counts {
		backends = append(backends, backend)
	}
	slices.Sort(backends)

	parts := make([]string, 0, len(counts))
	for _, backend := range backends {
		parts = append(parts, fmt.Sprintf("%s=%d", backend, counts[backend]))
	}
	fmt.Printf("Search queries: %s\n", strings.Join(parts, " "))

	if cost := env.Usage.EstimatedCost(); cost > 0 {
		fmt.Printf("Estimated CSE cost: $%.2f\n", cost)
	}
}

// queryLimiter paces browser-driven Google queries. Google blocks
// clients that query faster than roughly one request every few seconds.
func queryLimiter() *rate.Limiter {
	secs := cfg.Search.RateLimitSecs
	if secs <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Duration(secs)*time.Second), 1)
}

// chainBackends returns the backend names to chain. An explicit
// --backend flag selects exactly that backend; "auto" (or empty) takes
// the configured order, silently dropping cse when its credentials are
// missing. Asking for cse by name without credentials is an error.
func chainBackends(flag string) ([]string, error) {
	if flag != "" && flag != "auto" {
		if flag == "cse" {
			if err := validateCSEKeys(); err != nil {
				return nil, err
			}
		}
		return []string{flag}, nil
	}

	out := make([]string, 0, len(cfg.Search.Backends))
	for _, name := range cfg.Search.Backends {
		if name == "cse" && validateCSEKeys() != nil {
			zap.L().Warn("cse credentials missing, skipping cse backend",
				zap.String("hint", "set SITEFINDER_CSE_API_KEY and SITEFINDER_CSE_ENGINE_ID"))
			continue
		}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil, eris.New("no usable search backends configured")
	}
	return out, nil
}

// validateCSEKeys checks the Google Custom Search credentials.
func validateCSEKeys() error {
	var missing []string
	if cfg.CSE.APIKey == "" {
		missing = append(missing, "SITEFINDER_CSE_API_KEY")
	}
	if cfg.CSE.EngineID == "" {
		missing = append(missing, "SITEFINDER_CSE_ENGINE_ID")
	}
	if len(missing) > 0 {
		return eris.Errorf("cse: missing credentials:\n  %s\n\nSet them in the environment or a .env file.",
			strings.Join(missing, "\n  "))
	}
	return nil
}

// newMatcher builds the ranking matcher from the configured dictionary
// and rules. Both degrade to defaults with a warning; neither is fatal.
func newMatcher() (*rank.Matcher, *rank.Rules) {
	var opts []rank.Option

	dictPath := cfg.Resolve.DictionaryPath
	if dictPath == "" {
		dictPath = rank.DefaultDictionaryPath
	}
	check, err := rank.LoadDictionary(dictPath)
	if err != nil {
		zap.L().Warn("dictionary unavailable, treating all words as known", zap.Error(err))
	} else {
		opts = append(opts, rank.WithWordChecker(check))
	}

	rules := rank.DefaultRules()
	if cfg.Resolve.RulesPath != "" {
		loaded, err := rank.LoadRules(cfg.Resolve.RulesPath)
		if err != nil {
			zap.L().Warn("rules file unreadable, using built-in rules", zap.Error(err))
		} else {
			rules = loaded
		}
	}
	if len(rules.Stoplist) > 0 {
		opts = append(opts, rank.WithStoplist(rules.Stoplist))
	}

	return rank.NewMatcher(opts...), rules
}
