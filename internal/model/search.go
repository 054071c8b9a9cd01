package model

// SearchHit is one organic result returned by a search backend.
type SearchHit struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
	Rank    int    `json:"rank"` // 0-based position in the result page
}

// HitURLs projects hits onto their URLs in page order.
func HitURLs(hits []SearchHit) []string {
	urls := make([]string, 0, len(hits))
	for _, h := range hits {
		urls = append(urls, h.URL)
	}
	return urls
}
