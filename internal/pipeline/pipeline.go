// Package pipeline runs the batch flows over company lists: resolving
// names to websites through the search chain, the browser scrape pass,
// and LinkedIn company-page lookup. Every flow has the same shape: an
// errgroup bounded by the configured concurrency, per-item failures
// logged and recorded without aborting the batch, and rows flushed to
// their writers as they land.
package pipeline

import "time"

// Summary totals one batch run.
type Summary struct {
	// Processed counts every input item the run looked at.
	Processed int64
	// Succeeded counts items whose lookup completed without error.
	Succeeded int64
	// Failed counts items whose lookup errored on every attempt.
	Failed int64
	// NotFound counts items that completed but produced no usable URL.
	NotFound int64

	Elapsed time.Duration
}
