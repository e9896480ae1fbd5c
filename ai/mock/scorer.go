package mock

import (
	"context"
	"strings"
)

// MockScorer is a test double for ai.RelevanceScorer.
// It allows custom behavior injection via function fields.
type MockScorer struct {
	// ScoreFunc is called by Score if set.
	// If nil, uses default word-overlap behavior.
	ScoreFunc func(ctx context.Context, query string, candidates []string) ([]float32, error)

	callCount int
}

// NewMockScorer creates a mock scorer with default deterministic behavior.
func NewMockScorer() *MockScorer {
	return &MockScorer{}
}

// Score returns deterministic relevance scores. The default scores each
// candidate by the fraction of query words it contains, which is enough
// for ordering assertions without a model.
func (m *MockScorer) Score(ctx context.Context, query string, candidates []string) ([]float32, error) {
	m.callCount++

	if m.ScoreFunc != nil {
		return m.ScoreFunc(ctx, query, candidates)
	}

	queryWords := strings.Fields(strings.ToLower(query))
	scores := make([]float32, len(candidates))
	for i, candidate := range candidates {
		lower := strings.ToLower(candidate)
		if len(queryWords) == 0 {
			continue
		}
		matched := 0
		for _, w := range queryWords {
			if strings.Contains(lower, w) {
				matched++
			}
		}
		scores[i] = float32(matched) / float32(len(queryWords))
	}
	return scores, nil
}

// CallCount returns how many scoring calls were made.
func (m *MockScorer) CallCount() int {
	return m.callCount
}
