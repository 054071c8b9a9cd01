package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ddgFixture = `<html><body>
<div class="result results_links web-result">
  <h2 class="result__title">
    <a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.acme.com%2F&amp;rut=abc123">Acme Corporation</a>
  </h2>
  <a class="result__snippet" href="#">Acme makes everything.</a>
</div>
<div class="result results_links web-result">
  <h2 class="result__title">
    <a rel="nofollow" class="result__a" href="https://www.beta-industries.com/">Beta Industries</a>
  </h2>
</div>
<div class="result">
  <h2 class="result__title">
    <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.acme.com%2F&amp;rut=dup">Acme again</a>
  </h2>
</div>
</body></html>`

func TestDuckDuckGoSearch(t *testing.T) {
	t.Parallel()

	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(ddgFixture))
	}))
	defer srv.Close()

	d := NewDuckDuckGo(WithDDGBaseURL(srv.URL))
	hits, err := d.Search(context.Background(), "Acme Corporation", 10)
	require.NoError(t, err)

	assert.Equal(t, "Acme Corporation", gotQuery)
	assert.NotEmpty(t, gotUA)

	// Redirect link decoded, duplicate dropped, direct link kept.
	require.Len(t, hits, 2)
	assert.Equal(t, "https://www.acme.com/", hits[0].URL)
	assert.Equal(t, "Acme Corporation", hits[0].Title)
	assert.Equal(t, "Acme makes everything.", hits[0].Snippet)
	assert.Equal(t, 0, hits[0].Rank)
	assert.Equal(t, "https://www.beta-industries.com/", hits[1].URL)
	assert.Equal(t, 1, hits[1].Rank)
}

func TestDuckDuckGoSearchMax(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(ddgFixture))
	}))
	defer srv.Close()

	d := NewDuckDuckGo(WithDDGBaseURL(srv.URL))
	hits, err := d.Search(context.Background(), "acme", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "https://www.acme.com/", hits[0].URL)
}

func TestDuckDuckGoBlocked(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	d := NewDuckDuckGo(WithDDGBaseURL(srv.URL))
	_, err := d.Search(context.Background(), "acme", 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBlocked))
}

func TestDuckDuckGoServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDuckDuckGo(WithDDGBaseURL(srv.URL))
	_, err := d.Search(context.Background(), "acme", 10)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrBlocked))
	assert.Contains(t, err.Error(), "500")
}

func TestDecodeDDGRedirect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		href string
		want string
	}{
		{
			"protocol relative redirect",
			"//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.acme.com%2Fabout&rut=x",
			"https://www.acme.com/about",
		},
		{
			"direct link untouched",
			"https://www.acme.com/",
			"https://www.acme.com/",
		},
		{
			"no uddg param",
			"https://duckduckgo.com/l/?other=1",
			"https://duckduckgo.com/l/?other=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, decodeDDGRedirect(tt.href))
		})
	}
}
