package retrieval

import (
	"context"
	"log/slog"
	"math"
	"slices"

	"github.com/poiesic/answerit/ai"
	"github.com/poiesic/answerit/core"
)

const (
	// defaultScoreThreshold drops near-zero-relevance chunks before ranking.
	defaultScoreThreshold = 0.1

	// defaultBatchSize bounds how many candidates go to the scorer per call.
	defaultBatchSize = 32

	// maxTopK caps the context size regardless of pool size.
	maxTopK = 15
)

// Reranker orders a fused document pool by relevance to the original
// user query and keeps a dynamically sized top slice.
type Reranker struct {
	scorer    ai.RelevanceScorer
	threshold float32
	batchSize int
	logger    *slog.Logger
}

// RerankerOption configures a Reranker.
type RerankerOption func(*Reranker)

// WithScoreThreshold overrides the minimum relevance score.
func WithScoreThreshold(threshold float32) RerankerOption {
	return func(r *Reranker) {
		r.threshold = threshold
	}
}

// WithBatchSize overrides the scorer batch size.
func WithBatchSize(size int) RerankerOption {
	return func(r *Reranker) {
		r.batchSize = size
	}
}

// NewReranker creates a reranker over a relevance scorer.
func NewReranker(scorer ai.RelevanceScorer, opts ...RerankerOption) *Reranker {
	r := &Reranker{
		scorer:    scorer,
		threshold: defaultScoreThreshold,
		batchSize: defaultBatchSize,
		logger:    slog.Default().With("component", "reranker"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DynamicTopK computes how many documents survive reranking:
// round(numTasks^1.25 + numRetrieved^0.35), at least one slot per task,
// capped by the pool size and the absolute context limit. The formula
// grows sub-linearly with pool size; the constants are tunable.
func DynamicTopK(numTasks, numRetrieved int) int {
	if numRetrieved <= 0 {
		return 0
	}
	if numTasks < 1 {
		numTasks = 1
	}

	k := int(math.Round(math.Pow(float64(numTasks), 1.25) + math.Pow(float64(numRetrieved), 0.35)))
	if k < numTasks {
		k = numTasks
	}
	limit := min(numRetrieved, maxTopK)
	if k > limit {
		k = limit
	}
	return k
}

// Rerank scores every document against the original user query, drops
// those below the relevance threshold, and returns the top slice ordered
// by score descending. Empty input yields empty output. A scorer failure
// degrades to the fused order truncated to the same size; reranking is
// never fatal to a turn.
func (r *Reranker) Rerank(ctx context.Context, query string, docs []core.Document, numTasks int) []core.Document {
	if len(docs) == 0 {
		return nil
	}

	k := DynamicTopK(numTasks, len(docs))

	scores, err := r.scoreBatched(ctx, query, docs)
	if err != nil {
		r.logger.Warn("relevance scoring failed, keeping fused order",
			"error", err,
			"docs", len(docs))
		if len(docs) > k {
			return docs[:k]
		}
		return docs
	}

	type scored struct {
		doc   core.Document
		score float32
	}
	var kept []scored
	for i, doc := range docs {
		if scores[i] >= r.threshold {
			kept = append(kept, scored{doc: doc, score: scores[i]})
		}
	}

	slices.SortStableFunc(kept, func(a, b scored) int {
		if a.score > b.score {
			return -1
		}
		if a.score < b.score {
			return 1
		}
		return 0
	})

	if len(kept) > k {
		kept = kept[:k]
	}
	results := make([]core.Document, len(kept))
	for i, s := range kept {
		results[i] = s.doc
	}
	return results
}

// scoreBatched runs the scorer over the candidates in fixed-size batches.
func (r *Reranker) scoreBatched(ctx context.Context, query string, docs []core.Document) ([]float32, error) {
	scores := make([]float32, 0, len(docs))
	for start := 0; start < len(docs); start += r.batchSize {
		end := min(start+r.batchSize, len(docs))
		batch := make([]string, 0, end-start)
		for _, doc := range docs[start:end] {
			batch = append(batch, doc.Content)
		}
		batchScores, err := r.scorer.Score(ctx, query, batch)
		if err != nil {
			return nil, err
		}
		scores = append(scores, batchScores...)
	}
	return scores, nil
}
