package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/sitefinder/internal/model"
	"github.com/sells-group/sitefinder/internal/output"
	"github.com/sells-group/sitefinder/internal/rank"
	"github.com/sells-group/sitefinder/internal/search"
	"github.com/sells-group/sitefinder/internal/store"
)

// Resolver turns company names into best-guess websites: search hits are
// filtered against the blocklist, ranked, and matched against the name.
// The matcher and rules are read-only after construction, so one Resolver
// serves any number of concurrent companies.
type Resolver struct {
	searcher   search.Searcher
	matcher    *rank.Matcher
	rules      *rank.Rules
	maxResults int
}

// NewResolver builds a Resolver over the given search backend. A nil
// rules keeps the built-in blocklist; maxResults <= 0 defaults to 10.
func NewResolver(searcher search.Searcher, matcher *rank.Matcher, rules *rank.Rules, maxResults int) *Resolver {
	if rules == nil {
		rules = rank.DefaultRules()
	}
	if maxResults <= 0 {
		maxResults = 10
	}
	return &Resolver{
		searcher:   searcher,
		matcher:    matcher,
		rules:      rules,
		maxResults: maxResults,
	}
}

// ResolveOne resolves a single company name. A clean search with no
// usable hits is not an error: the resolution comes back with an empty
// URL and the no-match reason.
func (r *Resolver) ResolveOne(ctx context.Context, company string) (model.Resolution, error) {
	start := time.Now()

	hits, err := r.searcher.Search(ctx, company, r.maxResults)
	if err != nil {
		return model.Resolution{}, eris.Wrapf(err, "pipeline: search %q", company)
	}

	res := r.MatchURLs(company, model.HitURLs(hits))
	res.Backend = r.searcher.Name()
	res.Elapsed = time.Since(start)
	return res, nil
}

// MatchURLs skips the search step and matches a company against
// caller-supplied candidate URLs, with the same blocklist filtering
// ResolveOne applies to search hits.
func (r *Resolver) MatchURLs(company string, urls []string) model.Resolution {
	start := time.Now()

	kept := make([]string, 0, len(urls))
	for _, u := range urls {
		if r.rules.Blocked(rank.Domain(u)) {
			continue
		}
		kept = append(kept, u)
	}

	match := r.matcher.Resolve(company, kept)

	return model.Resolution{
		Company:    company,
		BestURL:    match.Domain,
		Confidence: match.Confidence,
		Reason:     match.Reason,
		Elapsed:    time.Since(start),
	}
}

// ResolveOptions shape one batch resolve run.
type ResolveOptions struct {
	// Concurrency bounds simultaneous companies. <= 0 means serial.
	Concurrency int

	// RunID groups stored resolutions; only read when Store is set.
	RunID string

	// Results receives one row per input company. nil skips CSV output.
	Results *output.ResolutionWriter

	// Store persists resolutions when non-nil. Persistence failures are
	// logged, never fatal.
	Store store.Store
}

// ResolveAll resolves every company concurrently. Each input company
// produces exactly one output row; a company whose search errors out
// still gets a no-match row so the output covers the whole input.
func (r *Resolver) ResolveAll(ctx context.Context, companies []model.Company, opts ResolveOptions) (*Summary, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	start := time.Now()
	total := len(companies)
	if total == 0 {
		zap.L().Info("no companies to resolve")
		return &Summary{}, nil
	}

	zap.L().Info("resolving companies",
		zap.Int("companies", total),
		zap.Int("concurrency", opts.Concurrency),
		zap.String("backend", r.searcher.Name()),
	)

	var processed, succeeded, failed, notFound atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for _, company := range companies {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			log := zap.L().With(zap.String("company", company.Name))

			res, err := r.ResolveOne(gctx, company.Name)
			n := processed.Add(1)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				log.Error("resolve failed", zap.Error(err))
				res = model.Resolution{
					Company: company.Name,
					Reason:  model.MatchNone,
					Backend: r.searcher.Name(),
				}
			} else {
				succeeded.Add(1)
				log.Info("company resolved",
					zap.String("progress", fmt.Sprintf("%d/%d", n, total)),
					zap.String("best_url", res.BestURL),
					zap.String("reason", string(res.Reason)),
					zap.Duration("elapsed", res.Elapsed),
				)
			}
			if res.BestURL == "" {
				notFound.Add(1)
			}

			if opts.Results != nil {
				if werr := opts.Results.Write(res); werr != nil {
					return eris.Wrap(werr, "pipeline: write resolution")
				}
			}
			if opts.Store != nil {
				if serr := opts.Store.SaveResolution(gctx, opts.RunID, res); serr != nil {
					log.Warn("resolution not persisted", zap.Error(serr))
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: resolve batch")
	}

	summary := &Summary{
		Processed: processed.Load(),
		Succeeded: succeeded.Load(),
		Failed:    failed.Load(),
		NotFound:  notFound.Load(),
		Elapsed:   time.Since(start),
	}
	zap.L().Info("resolve complete",
		zap.Int64("processed", summary.Processed),
		zap.Int64("succeeded", summary.Succeeded),
		zap.Int64("failed", summary.Failed),
		zap.Int64("not_found", summary.NotFound),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}
