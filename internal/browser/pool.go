// Package browser manages headless Chrome sessions for fetching
// JavaScript-rendered pages.
package browser

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultUserAgent mimics a current desktop Chrome on Linux.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36"

// Config controls a Pool.
type Config struct {
	// Size is the number of warm tabs, which bounds concurrent fetches.
	Size int

	// Headless runs Chrome without a display. On by default; turn off
	// for debugging a scrape interactively.
	Headless bool

	// UserAgent overrides DefaultUserAgent.
	UserAgent string

	// NavWait is the settle time after navigation before the DOM is
	// read, giving result pages time to render.
	NavWait time.Duration

	// Timeout caps a single fetch.
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Size <= 0 {
		c.Size = 2
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.NavWait <= 0 {
		c.NavWait = time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// Pool keeps a fixed set of warm Chrome tabs sharing one browser process.
type Pool struct {
	cfg         Config
	allocCancel context.CancelFunc
	tabs        chan context.Context
	cancels     []context.CancelFunc
}

// NewPool starts Chrome and warms cfg.Size tabs. Close must be called to
// release the browser process.
func NewPool(ctx context.Context, cfg Config) (*Pool, error) {
	cfg = cfg.withDefaults()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(cfg.UserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)

	p := &Pool{
		cfg:         cfg,
		allocCancel: allocCancel,
		tabs:        make(chan context.Context, cfg.Size),
	}

	for range cfg.Size {
		tab, cancel := chromedp.NewContext(allocCtx)
		if err := chromedp.Run(tab, chromedp.Navigate("about:blank")); err != nil {
			cancel()
			p.Close()
			return nil, eris.Wrap(err, "browser: start tab")
		}
		p.tabs <- tab
		p.cancels = append(p.cancels, cancel)
	}

	zap.L().Info("browser pool ready",
		zap.Int("tabs", cfg.Size),
		zap.Bool("headless", cfg.Headless),
	)
	return p, nil
}

// FetchHTML loads a URL in a pooled tab and returns the rendered page.
func (p *Pool) FetchHTML(ctx context.Context, url string) (string, error) {
	var tab context.Context
	select {
	case tab = <-p.tabs:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer p.release(tab)

	runCtx, cancel := context.WithTimeout(tab, p.cfg.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(p.cfg.NavWait),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", eris.Wrapf(err, "browser: fetch %s", url)
	}
	return html, nil
}

// release clears per-page state before the tab goes back in the channel.
func (p *Pool) release(tab context.Context) {
	refreshCtx, cancel := context.WithTimeout(tab, 3*time.Second)
	defer cancel()
	_ = chromedp.Run(refreshCtx,
		network.ClearBrowserCookies(),
		chromedp.Navigate("about:blank"),
	)
	p.tabs <- tab
}

// Close shuts down every tab and the browser process.
func (p *Pool) Close() {
	for _, cancel := range p.cancels {
		cancel()
	}
	p.cancels = nil
	if p.allocCancel != nil {
		p.allocCancel()
	}
	for len(p.tabs) > 0 {
		<-p.tabs
	}
}
