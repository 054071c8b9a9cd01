package cse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_Success(t *testing.T) {
	t.Parallel()

	want := SearchResponse{
		Items: []Item{
			{
				Title:       "Acme Corp - Official Site",
				Link:        "https://www.acme.com/",
				Snippet:     "Acme Corp makes everything.",
				DisplayLink: "www.acme.com",
			},
			{
				Title:       "Acme Corp | LinkedIn",
				Link:        "https://www.linkedin.com/company/acme",
				Snippet:     "Acme Corp on LinkedIn.",
				DisplayLink: "www.linkedin.com",
			},
		},
		SearchInformation: SearchInformation{TotalResults: "2", SearchTime: 0.21},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "test-cx", r.URL.Query().Get("cx"))
		assert.Equal(t, "Acme Corp", r.URL.Query().Get("q"))
		assert.Equal(t, "10", r.URL.Query().Get("num"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	client := NewClient("test-key", "test-cx", WithBaseURL(srv.URL))
	got, err := client.Search(context.Background(), "Acme Corp")

	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, want.Items[0].Link, got.Items[0].Link)
	assert.Equal(t, want.Items[1].DisplayLink, got.Items[1].DisplayLink)
	assert.Equal(t, "2", got.SearchInformation.TotalResults)
}

func TestSearch_WithNum(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("num"))
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", "test-cx", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "Acme", WithNum(5))

	require.NoError(t, err)
}

func TestSearch_NumClamped(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("num"))
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", "test-cx", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "Acme", WithNum(50))

	require.NoError(t, err)
}

func TestSearch_NoItems(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The API omits "items" entirely when nothing matched.
		w.Write([]byte(`{"searchInformation":{"totalResults":"0"}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", "test-cx", WithBaseURL(srv.URL))
	got, err := client.Search(context.Background(), "zzz no such company zzz")

	require.NoError(t, err)
	assert.Empty(t, got.Items)
	assert.Empty(t, got.Links())
}

func TestSearch_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", "test-cx", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "Acme")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestSearch_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"items":[{"link":"https://acme.com"}]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", "test-cx", WithBaseURL(srv.URL))
	got, err := client.Search(context.Background(), "Acme")

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []string{"https://acme.com"}, got.Links())
}

func TestSearch_MalformedJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	client := NewClient("test-key", "test-cx", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "Acme")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestSearch_ContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", "test-cx", WithBaseURL(srv.URL))
	_, err := client.Search(ctx, "Acme")

	require.Error(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := NewClient("my-key", "my-cx")
	hc := c.(*httpClient)

	assert.Equal(t, "my-key", hc.apiKey)
	assert.Equal(t, "my-cx", hc.engineID)
	assert.Equal(t, defaultBaseURL, hc.baseURL)
	assert.NotNil(t, hc.http)
	assert.Equal(t, 15*time.Second, hc.http.Timeout)
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	customClient := &http.Client{}
	c := NewClient("test-key", "test-cx", WithHTTPClient(customClient))
	hc := c.(*httpClient)
	assert.Equal(t, customClient, hc.http)
}
