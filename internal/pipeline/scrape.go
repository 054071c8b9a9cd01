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
	"github.com/sells-group/sitefinder/internal/search"
)

// Scraper runs the browser pass: each company name goes through the
// browser-backed searcher and its top hits become output rows that keep
// the input columns.
type Scraper struct {
	searcher search.Searcher
	maxURLs  int
}

// NewScraper builds a Scraper recording up to maxURLs hits per company.
// maxURLs <= 0 defaults to 1, the single best hit.
func NewScraper(searcher search.Searcher, maxURLs int) *Scraper {
	if maxURLs <= 0 {
		maxURLs = 1
	}
	return &Scraper{searcher: searcher, maxURLs: maxURLs}
}

// ScrapeOptions shape one batch scrape run.
type ScrapeOptions struct {
	// Workers bounds simultaneous companies. <= 0 means serial.
	Workers int

	// Results receives one row per found URL. nil skips result output.
	Results *output.ScrapeWriter

	// NotFound receives the original input row of every company without
	// usable hits, so its file can feed back in as input. nil skips it.
	NotFound *output.NotFoundWriter
}

// ScrapeAll searches every company concurrently. A company whose search
// errors or returns nothing lands in the not-found output with its input
// row intact.
func (s *Scraper) ScrapeAll(ctx context.Context, companies []model.Company, opts ScrapeOptions) (*Summary, error) {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	start := time.Now()
	total := len(companies)
	if total == 0 {
		zap.L().Info("no companies to scrape")
		return &Summary{}, nil
	}

	zap.L().Info("scraping companies",
		zap.Int("companies", total),
		zap.Int("workers", opts.Workers),
		zap.String("backend", s.searcher.Name()),
	)

	var processed, succeeded, failed, notFound atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for _, company := range companies {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			log := zap.L().With(zap.String("company", company.Name))

			hits, err := s.searcher.Search(gctx, company.Name, s.maxURLs)
			n := processed.Add(1)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				log.Error("scrape failed", zap.Error(err))
			} else {
				succeeded.Add(1)
			}

			if len(hits) == 0 {
				notFound.Add(1)
				if opts.NotFound != nil {
					if werr := opts.NotFound.Write(company.Fields); werr != nil {
						return eris.Wrap(werr, "pipeline: write not-found row")
					}
				}
				if err == nil {
					log.Info("no urls found",
						zap.String("progress", fmt.Sprintf("%d/%d", n, total)),
					)
				}
				return nil
			}

			if opts.Results != nil {
				for _, hit := range hits {
					if werr := opts.Results.Write(company.Fields, hit.URL); werr != nil {
						return eris.Wrap(werr, "pipeline: write scrape row")
					}
				}
			}
			log.Info("company scraped",
				zap.String("progress", fmt.Sprintf("%d/%d", n, total)),
				zap.Int("urls", len(hits)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: scrape batch")
	}

	summary := &Summary{
		Processed: processed.Load(),
		Succeeded: succeeded.Load(),
		Failed:    failed.Load(),
		NotFound:  notFound.Load(),
		Elapsed:   time.Since(start),
	}
	zap.L().Info("scrape complete",
		zap.Int64("processed", summary.Processed),
		zap.Int64("succeeded", summary.Succeeded),
		zap.Int64("failed", summary.Failed),
		zap.Int64("not_found", summary.NotFound),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}
