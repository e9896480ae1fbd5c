package retrieval

import (
	"context"
	"testing"

	"github.com/poiesic/answerit/ai/mock"
	"github.com/poiesic/answerit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDynamicTopK_Bounds(t *testing.T) {
	k := DynamicTopK(2, 10)
	assert.GreaterOrEqual(t, k, 2)
	assert.LessOrEqual(t, k, 10)
}

func TestDynamicTopK_Caps(t *testing.T) {
	// Never more than the pool holds.
	assert.LessOrEqual(t, DynamicTopK(1, 3), 3)
	// Never more than the absolute limit.
	assert.LessOrEqual(t, DynamicTopK(10, 200), 15)
	// Empty pool yields zero.
	assert.Equal(t, 0, DynamicTopK(3, 0))
}

func TestRerank_OrdersByRelevance(t *testing.T) {
	reranker := NewReranker(mock.NewMockScorer())

	docs := []core.Document{
		{Content: "nothing related at all"},
		{Content: "the project deadline is in june"},
		{Content: "deadline"},
	}

	top := reranker.Rerank(context.Background(), "project deadline", docs, 1)
	require.NotEmpty(t, top)
	assert.Equal(t, "the project deadline is in june", top[0].Content)
}

func TestRerank_ThresholdDropsNoise(t *testing.T) {
	scorer := mock.NewMockScorer()
	scorer.ScoreFunc = func(ctx context.Context, query string, candidates []string) ([]float32, error) {
		scores := make([]float32, len(candidates))
		for i := range candidates {
			scores[i] = 0.01
		}
		return scores, nil
	}
	reranker := NewReranker(scorer)

	docs := []core.Document{{Content: "a"}, {Content: "b"}}
	assert.Empty(t, reranker.Rerank(context.Background(), "query", docs, 1))
}

func TestRerank_EmptyInput(t *testing.T) {
	reranker := NewReranker(mock.NewMockScorer())
	assert.Empty(t, reranker.Rerank(context.Background(), "query", nil, 1))
}

func TestRerank_ScorerFailureKeepsFusedOrder(t *testing.T) {
	scorer := mock.NewMockScorer()
	scorer.ScoreFunc = func(ctx context.Context, query string, candidates []string) ([]float32, error) {
		return nil, assert.AnError
	}
	reranker := NewReranker(scorer)

	docs := []core.Document{{Content: "first"}, {Content: "second"}, {Content: "third"}}
	top := reranker.Rerank(context.Background(), "query", docs, 1)
	require.NotEmpty(t, top)
	assert.Equal(t, "first", top[0].Content)
}

func TestRerank_Batching(t *testing.T) {
	calls := 0
	scorer := mock.NewMockScorer()
	scorer.ScoreFunc = func(ctx context.Context, query string, candidates []string) ([]float32, error) {
		calls++
		assert.LessOrEqual(t, len(candidates), 2)
		scores := make([]float32, len(candidates))
		for i := range scores {
			scores[i] = 0.5
		}
		return scores, nil
	}
	reranker := NewReranker(scorer, WithBatchSize(2))

	docs := []core.Document{
		{Content: "a"}, {Content: "b"}, {Content: "c"}, {Content: "d"}, {Content: "e"},
	}
	top := reranker.Rerank(context.Background(), "query", docs, 1)
	assert.NotEmpty(t, top)
	assert.Equal(t, 3, calls)
}
