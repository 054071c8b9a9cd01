package search

import "strings"

// blockIndicators are phrases engines serve on interstitial pages in
// place of results.
var blockIndicators = []string{
	"unusual traffic from your computer",
	"detected unusual traffic",
	"/sorry/index",
	"captcha-form",
	"g-recaptcha",
	"before you continue to google",
}

// IsBlockedPage reports whether the page looks like a captcha, consent,
// or rate-limit interstitial. Callers should check results first; a page
// that parsed into hits is never treated as blocked.
func IsBlockedPage(html string) bool {
	lower := strings.ToLower(html)
	for _, ind := range blockIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}
