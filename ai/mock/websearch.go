package mock

import (
	"context"

	"github.com/poiesic/answerit/ai"
)

// MockWebSearcher is a test double for ai.WebSearcher.
// It allows custom behavior injection via function fields.
type MockWebSearcher struct {
	// SearchFunc is called by Search if set.
	// If nil, returns a single deterministic hit echoing the query.
	SearchFunc func(ctx context.Context, query string) ([]ai.SearchHit, error)

	callCount int
}

// NewMockWebSearcher creates a mock web searcher with default behavior.
func NewMockWebSearcher() *MockWebSearcher {
	return &MockWebSearcher{}
}

// Search returns deterministic hits for the query.
func (m *MockWebSearcher) Search(ctx context.Context, query string) ([]ai.SearchHit, error) {
	m.callCount++

	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query)
	}

	return []ai.SearchHit{
		{URL: "https://example.com/result", Content: "web content about " + query},
	}, nil
}

// CallCount returns how many search calls were made.
func (m *MockWebSearcher) CallCount() int {
	return m.callCount
}
