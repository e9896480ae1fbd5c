package orchestrate

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/answerit/ai"
)

// Intent thresholds. Retrieval is stricter than search: a false positive
// there triggers index lookups, which cost more than a wasted web query.
const (
	defaultRetrievalThreshold = 0.6
	defaultSearchThreshold    = 0.5
)

// Prototype phrases scored against the query to detect each intent.
var (
	retrievalPrototypes = []string{
		"summarize the attached pdf",
		"read the uploaded document",
		"check the attachment",
		"according to the attached file",
		"open the doc",
	}
	searchPrototypes = []string{
		"search the web",
		"latest news updates",
		"find recent information",
		"look this up online",
		"browse the internet",
	}
)

// Keyword vocabularies for the fallback path when the scorer is down.
var (
	retrievalKeywords = []string{"pdf", "document", "doc", "file", "attachment"}
	searchKeywords    = []string{"search", "latest", "updates", "recent", "web", "internet"}
)

// IntentClassifier decides whether a turn needs document retrieval or
// web search. Flags only ever escalate: a caller-set true is never
// downgraded.
type IntentClassifier struct {
	scorer             ai.RelevanceScorer
	retrievalThreshold float32
	searchThreshold    float32
	logger             *slog.Logger
}

// IntentOption configures an IntentClassifier.
type IntentOption func(*IntentClassifier)

// WithIntentThresholds overrides the per-flag score thresholds.
func WithIntentThresholds(retrieval, search float32) IntentOption {
	return func(c *IntentClassifier) {
		c.retrievalThreshold = retrieval
		c.searchThreshold = search
	}
}

// NewIntentClassifier creates a classifier over a relevance scorer.
func NewIntentClassifier(scorer ai.RelevanceScorer, opts ...IntentOption) *IntentClassifier {
	c := &IntentClassifier{
		scorer:             scorer,
		retrievalThreshold: defaultRetrievalThreshold,
		searchThreshold:    defaultSearchThreshold,
		logger:             slog.Default().With("component", "intent"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the escalated flags for a query. Already-true flags
// pass through untouched; when both are true no scoring happens at all.
// A scorer failure falls back to keyword matching and never propagates.
func (c *IntentClassifier) Classify(ctx context.Context, query string, doRetrieval, doSearch bool) (bool, bool) {
	if doRetrieval && doSearch {
		return true, true
	}

	if !doRetrieval {
		doRetrieval = c.matches(ctx, query, retrievalPrototypes, retrievalKeywords, c.retrievalThreshold)
	}
	if !doSearch {
		doSearch = c.matches(ctx, query, searchPrototypes, searchKeywords, c.searchThreshold)
	}
	return doRetrieval, doSearch
}

// matches scores the query against one intent's prototype set and
// compares the best score to the threshold. If the scorer is
// unavailable it degrades to substring matching on the keyword list.
func (c *IntentClassifier) matches(ctx context.Context, query string, prototypes, keywords []string, threshold float32) bool {
	scores, err := c.scorer.Score(ctx, query, prototypes)
	if err != nil {
		c.logger.Warn("intent scoring failed, falling back to keywords", "error", err)
		return matchesKeywords(query, keywords)
	}

	var best float32
	for _, score := range scores {
		if score > best {
			best = score
		}
	}
	return best >= threshold
}

func matchesKeywords(query string, keywords []string) bool {
	lower := strings.ToLower(query)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
