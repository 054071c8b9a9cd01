package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sells-group/sitefinder/internal/config"
)

// The helpers under test read the package-level cfg, so these tests
// swap it in and out instead of running in parallel.
func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	old := cfg
	cfg = c
	t.Cleanup(func() { cfg = old })
}

func TestValidateCSEKeys(t *testing.T) {
	withConfig(t, &config.Config{})

	err := validateCSEKeys()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SITEFINDER_CSE_API_KEY")
	assert.Contains(t, err.Error(), "SITEFINDER_CSE_ENGINE_ID")

	cfg.CSE.APIKey = "key"
	err = validateCSEKeys()
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SITEFINDER_CSE_API_KEY")
	assert.Contains(t, err.Error(), "SITEFINDER_CSE_ENGINE_ID")

	cfg.CSE.EngineID = "engine"
	assert.NoError(t, validateCSEKeys())
}

func TestChainBackendsExplicit(t *testing.T) {
	withConfig(t, &config.Config{})

	backends, err := chainBackends("ddg")
	require.NoError(t, err)
	assert.Equal(t, []string{"ddg"}, backends)
}

func TestChainBackendsExplicitCSERequiresKeys(t *testing.T) {
	withConfig(t, &config.Config{})

	_, err := chainBackends("cse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing credentials")
}

func TestChainBackendsAutoDropsUnusableCSE(t *testing.T) {
	c := &config.Config{}
	c.Search.Backends = []string{"cse", "browser", "ddg"}
	withConfig(t, c)

	backends, err := chainBackends("auto")
	require.NoError(t, err)
	assert.Equal(t, []string{"browser", "ddg"}, backends)
}

func TestChainBackendsAutoKeepsCSEWithKeys(t *testing.T) {
	c := &config.Config{}
	c.Search.Backends = []string{"cse", "ddg"}
	c.CSE.APIKey = "key"
	c.CSE.EngineID = "engine"
	withConfig(t, c)

	backends, err := chainBackends("")
	require.NoError(t, err)
	assert.Equal(t, []string{"cse", "ddg"}, backends)
}

func TestChainBackendsAutoNothingUsable(t *testing.T) {
	c := &config.Config{}
	c.Search.Backends = []string{"cse"}
	withConfig(t, c)

	_, err := chainBackends("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable search backends")
}

func TestQueryLimiter(t *testing.T) {
	c := &config.Config{}
	c.Search.RateLimitSecs = 4
	withConfig(t, c)
	assert.Equal(t, rate.Every(4*time.Second), queryLimiter().Limit())

	cfg.Search.RateLimitSecs = 0
	assert.Equal(t, rate.Inf, queryLimiter().Limit())
}

func TestNewMatcherLoadsRules(t *testing.T) {
	dir := t.TempDir()

	dictPath := filepath.Join(dir, "words")
	require.NoError(t, os.WriteFile(dictPath, []byte("steel\nacme\n"), 0o644))

	rulesPath := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(rulesPath, []byte("stoplist:\n  - widgets\n"), 0o644))

	c := &config.Config{}
	c.Resolve.DictionaryPath = dictPath
	c.Resolve.RulesPath = rulesPath
	withConfig(t, c)

	matcher, rules := newMatcher()
	require.NotNil(t, matcher)
	require.NotNil(t, rules)
	assert.Equal(t, []string{"widgets"}, rules.Stoplist)
}

func TestNewMatcherDegradesWithoutFiles(t *testing.T) {
	c := &config.Config{}
	c.Resolve.DictionaryPath = filepath.Join(t.TempDir(), "missing")
	c.Resolve.RulesPath = filepath.Join(t.TempDir(), "missing.yaml")
	withConfig(t, c)

	matcher, rules := newMatcher()
	require.NotNil(t, matcher)
	require.NotNil(t, rules)
	assert.NotEmpty(t, rules.Blocklist)
}
