package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
)

// FetchOpts shape a one-off browser session.
type FetchOpts struct {
	Headless  bool
	UserAgent string

	// Proxy is a scheme://host:port egress for the whole session.
	// Empty means a direct connection.
	Proxy string

	NavWait time.Duration
	Timeout time.Duration
}

func (o FetchOpts) withDefaults() FetchOpts {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.NavWait <= 0 {
		o.NavWait = time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 45 * time.Second
	}
	return o
}

// FetchOnce opens a dedicated browser, loads the URL, and tears the
// browser down again. Chrome applies a proxy per process, not per tab,
// so rotating egress means paying for a fresh process each attempt.
func FetchOnce(ctx context.Context, url string, opts FetchOpts) (string, error) {
	opts = opts.withDefaults()

	aopts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(opts.UserAgent),
	)
	if opts.Proxy != "" {
		aopts = append(aopts, chromedp.ProxyServer(opts.Proxy))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, aopts...)
	defer allocCancel()

	tab, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	runCtx, rcancel := context.WithTimeout(tab, opts.Timeout)
	defer rcancel()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(opts.NavWait),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", eris.Wrapf(err, "browser: fetch %s", url)
	}
	return html, nil
}
