package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSearcher_RequiresAPIKey(t *testing.T) {
	_, err := NewSearcher("")
	assert.ErrorIs(t, err, ErrAPIKeyRequired)
}

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "latest go release", req["query"])

		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"url": "https://go.dev/blog", "content": "Go 1.25 released"},
				{"url": "https://example.com", "content": "other"},
			},
		})
	}))
	defer server.Close()

	searcher, err := NewSearcher("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	hits, err := searcher.Search(context.Background(), "latest go release")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "https://go.dev/blog", hits[0].URL)
	assert.Equal(t, "Go 1.25 released", hits[0].Content)
}

func TestSearch_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	searcher, err := NewSearcher("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = searcher.Search(context.Background(), "query")
	assert.Error(t, err)
}
