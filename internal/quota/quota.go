// Package quota counts outbound queries per search backend and prices
// the metered ones. Google Custom Search is the only paid backend: a
// daily free allowance, then a flat rate per thousand queries.
package quota

import (
	"maps"
	"sync"
)

// Rates holds per-backend pricing configuration.
type Rates struct {
	CSE CSERate `yaml:"cse" mapstructure:"cse"`
}

// CSERate holds Google Custom Search pricing.
type CSERate struct {
	FreePerDay  int     `yaml:"free_per_day" mapstructure:"free_per_day"`
	PerThousand float64 `yaml:"per_thousand" mapstructure:"per_thousand"`
}

// DefaultRates returns published Google Custom Search pricing.
func DefaultRates() Rates {
	return Rates{
		CSE: CSERate{FreePerDay: 100, PerThousand: 5.00},
	}
}

// Tracker counts queries per backend. Safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	counts map[string]int64
	rates  Rates
}

// NewTracker creates a Tracker with the given rates.
func NewTracker(rates Rates) *Tracker {
	return &Tracker{counts: make(map[string]int64), rates: rates}
}

// Record adds n queries against a backend.
func (t *Tracker) Record(backend string, n int) {
	if n <= 0 {
		return
	}
	t.mu.Lock()
	t.counts[backend] += int64(n)
	t.mu.Unlock()
}

// Count returns the queries recorded against one backend.
func (t *Tracker) Count(backend string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[backend]
}

// Counts returns a snapshot of every backend's count.
func (t *Tracker) Counts() map[string]int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return maps.Clone(t.counts)
}

// EstimatedCost prices the recorded usage. Only queries beyond the CSE
// free allowance cost anything; the browser and ddg backends are free.
func (t *Tracker) EstimatedCost() float64 {
	over := t.Count("cse") - int64(t.rates.CSE.FreePerDay)
	if over <= 0 {
		return 0
	}
	return float64(over) * t.rates.CSE.PerThousand / 1000
}
