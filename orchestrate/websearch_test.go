package orchestrate

import (
	"context"
	"strings"
	"testing"

	"github.com/poiesic/answerit/ai"
	"github.com/poiesic/answerit/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSearch_OneSlotPerTask(t *testing.T) {
	adapter := NewWebSearchAdapter(mock.NewMockWebSearcher())

	results := adapter.Search(context.Background(), []string{"first topic", "second topic"})
	require.Len(t, results, 2)
	assert.Contains(t, results[0].Content, "first topic")
	assert.Contains(t, results[1].Content, "second topic")
}

func TestWebSearch_FirstContentBearingHitWins(t *testing.T) {
	searcher := mock.NewMockWebSearcher()
	searcher.SearchFunc = func(ctx context.Context, query string) ([]ai.SearchHit, error) {
		return []ai.SearchHit{
			{URL: "https://a.example", Content: ""},
			{URL: "", Content: "orphan content"},
			{URL: "https://b.example", Content: "useful content"},
			{URL: "https://c.example", Content: "later content"},
		}, nil
	}
	adapter := NewWebSearchAdapter(searcher)

	results := adapter.Search(context.Background(), []string{"topic"})
	require.Len(t, results, 1)
	assert.Equal(t, "https://b.example", results[0].URL)
	assert.Equal(t, "useful content", results[0].Content)
}

func TestWebSearch_ErrorYieldsSentinel(t *testing.T) {
	searcher := mock.NewMockWebSearcher()
	searcher.SearchFunc = func(ctx context.Context, query string) ([]ai.SearchHit, error) {
		if strings.Contains(query, "broken") {
			return nil, assert.AnError
		}
		return []ai.SearchHit{{URL: "https://ok.example", Content: "fine"}}, nil
	}
	adapter := NewWebSearchAdapter(searcher)

	results := adapter.Search(context.Background(), []string{"broken topic", "healthy topic"})
	require.Len(t, results, 2)

	// The failing task gets the sentinel; its sibling is unaffected.
	assert.Equal(t, "N/A", results[0].URL)
	assert.Equal(t, "search failed", results[0].Content)
	assert.Equal(t, "https://ok.example", results[1].URL)
}

func TestWebSearch_NoHits(t *testing.T) {
	searcher := mock.NewMockWebSearcher()
	searcher.SearchFunc = func(ctx context.Context, query string) ([]ai.SearchHit, error) {
		return nil, nil
	}
	adapter := NewWebSearchAdapter(searcher)

	results := adapter.Search(context.Background(), []string{"topic"})
	require.Len(t, results, 1)
	assert.Equal(t, "N/A", results[0].URL)
	assert.Equal(t, "no results found", results[0].Content)
}
