package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/sitefinder/internal/browser"
	"github.com/sells-group/sitefinder/internal/model"
	"github.com/sells-group/sitefinder/internal/output"
	"github.com/sells-group/sitefinder/internal/proxy"
	"github.com/sells-group/sitefinder/internal/search"
)

// FetchFunc loads a URL through a dedicated browser session. It matches
// browser.FetchOnce.
type FetchFunc func(ctx context.Context, url string, opts browser.FetchOpts) (string, error)

// LinkedInFinder looks up LinkedIn company pages by running a
// site-restricted Google search per website. Each website gets its own
// attempt list from the rotation; Chrome applies proxies per process, so
// every attempt is a fresh browser session.
type LinkedInFinder struct {
	fetch    FetchFunc
	rotation *proxy.Rotation
	opts     browser.FetchOpts
}

// NewLinkedInFinder builds a finder. A nil fetch uses browser.FetchOnce;
// a nil rotation means direct connections only.
func NewLinkedInFinder(fetch FetchFunc, rotation *proxy.Rotation, opts browser.FetchOpts) *LinkedInFinder {
	if fetch == nil {
		fetch = browser.FetchOnce
	}
	if rotation == nil {
		rotation = proxy.NewRotation(nil, 0)
	}
	return &LinkedInFinder{fetch: fetch, rotation: rotation, opts: opts}
}

// FindOne looks up one website's LinkedIn company page. The first
// attempt that renders a usable results page settles the outcome, found
// or not; later proxies only cover fetch failures and blocked pages.
// When every attempt fails the result carries the error sentinel.
func (f *LinkedInFinder) FindOne(ctx context.Context, website string) model.LinkedInResult {
	query := search.LinkedInQuery(website)
	target := "https://www.google.com/search?q=" + url.QueryEscape(query)

	for _, p := range f.rotation.Attempts() {
		if ctx.Err() != nil {
			break
		}

		label := model.ProxyDirect
		if !p.Direct() {
			label = p.URL
		}
		log := zap.L().With(
			zap.String("website", website),
			zap.String("proxy", label),
		)

		opts := f.opts
		opts.Proxy = p.URL

		page, err := f.fetch(ctx, target, opts)
		if err != nil {
			log.Warn("linkedin fetch failed", zap.Error(err))
			continue
		}

		hits, err := search.ParseGoogleSERP(page, 0)
		if err != nil {
			log.Warn("linkedin serp unreadable", zap.Error(err))
			continue
		}
		if len(hits) == 0 && search.IsBlockedPage(page) {
			log.Warn("linkedin serp blocked")
			continue
		}

		if link := companyPageURL(hits); link != "" {
			return model.LinkedInResult{Website: website, LinkedInURL: link, ProxyUsed: label}
		}
		return model.LinkedInResult{Website: website, LinkedInURL: model.LinkedInNotFound, ProxyUsed: label}
	}

	return model.LinkedInResult{Website: website, LinkedInURL: model.LinkedInError, ProxyUsed: model.ProxyNone}
}

// LinkedInOptions shape one batch lookup run.
type LinkedInOptions struct {
	// Workers bounds simultaneous websites. <= 0 means serial.
	Workers int

	// Results receives one row per website. nil skips CSV output.
	Results *output.LinkedInWriter
}

// FindAll looks up every website concurrently. Sentinel outcomes are
// rows like any other, so the output always covers the whole input.
func (f *LinkedInFinder) FindAll(ctx context.Context, websites []string, opts LinkedInOptions) (*Summary, error) {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	start := time.Now()
	total := len(websites)
	if total == 0 {
		zap.L().Info("no websites to look up")
		return &Summary{}, nil
	}

	zap.L().Info("finding linkedin pages",
		zap.Int("websites", total),
		zap.Int("workers", opts.Workers),
		zap.Int("proxies", f.rotation.Size()),
	)

	var processed, succeeded, failed, notFound atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for _, website := range websites {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			res := f.FindOne(gctx, website)
			if gctx.Err() != nil {
				return gctx.Err()
			}

			n := processed.Add(1)
			switch {
			case res.Found():
				succeeded.Add(1)
			case res.LinkedInURL == model.LinkedInError:
				failed.Add(1)
			default:
				notFound.Add(1)
			}
			zap.L().Info("website processed",
				zap.String("progress", fmt.Sprintf("%d/%d", n, total)),
				zap.String("website", website),
				zap.String("linkedin_url", res.LinkedInURL),
				zap.String("proxy", res.ProxyUsed),
			)

			if opts.Results != nil {
				if werr := opts.Results.Write(res); werr != nil {
					return eris.Wrap(werr, "pipeline: write linkedin row")
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: linkedin batch")
	}

	summary := &Summary{
		Processed: processed.Load(),
		Succeeded: succeeded.Load(),
		Failed:    failed.Load(),
		NotFound:  notFound.Load(),
		Elapsed:   time.Since(start),
	}
	zap.L().Info("linkedin lookup complete",
		zap.Int64("processed", summary.Processed),
		zap.Int64("succeeded", summary.Succeeded),
		zap.Int64("failed", summary.Failed),
		zap.Int64("not_found", summary.NotFound),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

// companyPageURL returns the first hit that is a LinkedIn company page:
// a linkedin.com host with a /company/ path.
func companyPageURL(hits []model.SearchHit) string {
	for _, hit := range hits {
		u, err := url.Parse(hit.URL)
		if err != nil {
			continue
		}
		host := strings.ToLower(u.Hostname())
		if host != "linkedin.com" && !strings.HasSuffix(host, ".linkedin.com") {
			continue
		}
		if !strings.HasPrefix(u.Path, "/company/") {
			continue
		}
		return hit.URL
	}
	return ""
}
