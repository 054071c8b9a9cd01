package search

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/sitefinder/internal/model"
)

// ParseGoogleSERP extracts organic results from a rendered Google
// results page. Duplicate links collapse to their first position.
func ParseGoogleSERP(html string, max int) ([]model.SearchHit, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "search: parse serp")
	}

	var hits []model.SearchHit
	seen := make(map[string]struct{})

	doc.Find("div.g").Each(func(_ int, sel *goquery.Selection) {
		if max > 0 && len(hits) >= max {
			return
		}

		title := strings.TrimSpace(sel.Find("h3").First().Text())
		href, _ := sel.Find("a").First().Attr("href")
		link := cleanGoogleHref(href)
		if title == "" || link == "" {
			return
		}
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}

		hits = append(hits, model.SearchHit{
			Title:   title,
			URL:     link,
			Snippet: strings.TrimSpace(sel.Find("div.VwiC3b").First().Text()),
			Rank:    len(hits),
		})
	})

	return hits, nil
}

// cleanGoogleHref unwraps /url?q= redirect hrefs and drops anything that
// is not an http(s) target.
func cleanGoogleHref(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "/url?") {
		u, err := url.Parse(href)
		if err != nil {
			return ""
		}
		if q := u.Query().Get("q"); q != "" {
			href = q
		}
	}
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		return ""
	}
	return href
}
