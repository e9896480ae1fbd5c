package openai

import (
	"context"
	"log/slog"
	"math"

	"github.com/poiesic/answerit/ai"
)

// Scorer implements ai.RelevanceScorer over the embedding service.
// It scores a (query, candidate) pair by cosine similarity of their
// embeddings, batching all candidates into a single embedding call.
type Scorer struct {
	embedder ai.Embedder
	logger   *slog.Logger
}

// newScorer is an internal constructor that returns the concrete type.
// The embedder is shared with the provider's embedding service so the
// backend's cache is reused.
func newScorer(embedder ai.Embedder) *Scorer {
	return &Scorer{
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-scorer"),
	}
}

// NewScorer creates a relevance scorer backed by the given embedder.
//
// Returns ai.RelevanceScorer interface to enforce abstraction.
func NewScorer(embedder ai.Embedder) ai.RelevanceScorer {
	return newScorer(embedder)
}

// Score returns one cosine-similarity score per candidate, in input order.
func (s *Scorer) Score(ctx context.Context, query string, candidates []string) ([]float32, error) {
	if len(candidates) == 0 {
		return []float32{}, nil
	}

	queryVec, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("failed to embed query", "err", err)
		return nil, err
	}

	candidateVecs, err := s.embedder.EmbedTexts(ctx, candidates)
	if err != nil {
		s.logger.Error("failed to embed candidates", "count", len(candidates), "err", err)
		return nil, err
	}

	scores := make([]float32, len(candidates))
	for i, vec := range candidateVecs {
		scores[i] = cosineSimilarity(queryVec, vec)
	}
	return scores, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths are truncated to the shorter vector.
func cosineSimilarity(a, b []float32) float32 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	if minLen == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
