package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// RelevanceScorer scores (query, candidate) pairs for relevance.
// It is the cross-encoder shape used by both reranking and intent
// classification. Implementations must be thread-safe.
type RelevanceScorer interface {
	// Score returns one relevance score per candidate, in input order.
	// Scores are comparable within a single call; higher means more relevant.
	Score(ctx context.Context, query string, candidates []string) ([]float32, error)
}

// PromptRole identifies the author of a prompt message.
type PromptRole int

const (
	// PromptRoleSystem is an instruction message.
	PromptRoleSystem PromptRole = iota + 1
	// PromptRoleHuman is a user message.
	PromptRoleHuman
	// PromptRoleAI is an assistant message.
	PromptRoleAI
)

// PromptMessage is one message in a model call.
type PromptMessage struct {
	Role    PromptRole
	Content string
}

// ChatModel is the hosted language model capability.
// Implementations must be thread-safe for concurrent use.
type ChatModel interface {
	// Complete generates text for the given messages.
	Complete(ctx context.Context, messages []PromptMessage) (string, error)

	// CompleteJSON generates structured output and unmarshals it into out.
	// Implementations are expected to tolerate lightly malformed model
	// JSON; a parse failure after repair attempts is returned as an error.
	CompleteJSON(ctx context.Context, messages []PromptMessage, out any) error

	// Stream generates text incrementally, invoking fn for each chunk.
	// The complete text is returned once the stream finishes. Returning
	// an error from fn aborts the stream.
	Stream(ctx context.Context, messages []PromptMessage, fn func(chunk string) error) (string, error)
}

// SearchHit is one raw hit from the web search capability.
type SearchHit struct {
	URL     string
	Content string
}

// WebSearcher is the external web search capability.
type WebSearcher interface {
	// Search returns ranked hits for the query. An empty slice is a valid
	// result meaning nothing relevant was found.
	Search(ctx context.Context, query string) ([]SearchHit, error)
}

// AIProvider aggregates the model-backed services for convenient
// initialization and lifecycle management. A provider creates and manages
// instances sharing configuration and resources.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Scorer returns the relevance scoring service.
	Scorer() RelevanceScorer

	// ChatModel returns the main answer-generation model.
	ChatModel() ChatModel

	// UtilityModel returns the cheaper model used for decomposition,
	// consolidation and summarization.
	UtilityModel() ChatModel

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
