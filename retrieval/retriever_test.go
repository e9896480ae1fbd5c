package retrieval

import (
	"context"
	"strings"
	"testing"

	badgerstore "github.com/poiesic/answerit/storage/badger"

	"github.com/poiesic/answerit/ai/mock"
	"github.com/poiesic/answerit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCorpus(t *testing.T, docRepo interface {
	Upsert(ctx context.Context, docs ...*core.IndexedDocument) error
}, embedder *mock.MockEmbedder, contents ...string) {
	t.Helper()
	ctx := context.Background()
	for _, content := range contents {
		vec, err := embedder.EmbedText(ctx, content)
		require.NoError(t, err)
		require.NoError(t, docRepo.Upsert(ctx, &core.IndexedDocument{
			UserID:        "u1",
			ThreadID:      "t1",
			SourceLocator: "corpus.txt",
			Content:       content,
			Vector:        vec,
		}))
	}
}

func TestRetriever_StampsSourceTask(t *testing.T) {
	_, docRepo, backend, err := badgerstore.NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	defer docRepo.Close()

	embedder := mock.NewMockEmbedder()
	seedCorpus(t, docRepo, embedder, "the report covers quarterly revenue")

	retriever, err := NewRetriever(embedder, docRepo)
	require.NoError(t, err)
	defer retriever.Release()

	key := core.ThreadKey{UserID: "u1", ThreadID: "t1"}
	docs, err := retriever.Retrieve(context.Background(), []string{"quarterly revenue"}, key)
	require.NoError(t, err)
	require.NotEmpty(t, docs)
	for _, doc := range docs {
		assert.Equal(t, "quarterly revenue", doc.SourceTask)
		assert.Equal(t, "corpus.txt", doc.SourceLocator)
	}
}

func TestRetriever_DedupAcrossTasks(t *testing.T) {
	_, docRepo, backend, err := badgerstore.NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	defer docRepo.Close()

	embedder := mock.NewMockEmbedder()
	seedCorpus(t, docRepo, embedder, "shared revenue figures for the quarter")

	retriever, err := NewRetriever(embedder, docRepo)
	require.NoError(t, err)
	defer retriever.Release()

	key := core.ThreadKey{UserID: "u1", ThreadID: "t1"}
	// Both tasks hit the same chunk; the pool keeps one copy.
	docs, err := retriever.Retrieve(context.Background(), []string{"revenue figures", "quarter revenue"}, key)
	require.NoError(t, err)

	counts := make(map[string]int)
	for _, doc := range docs {
		counts[doc.Content]++
	}
	for content, n := range counts {
		assert.Equal(t, 1, n, "duplicate content %q", content)
	}
}

func TestRetriever_TaskFailureIsolated(t *testing.T) {
	_, docRepo, backend, err := badgerstore.NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	defer docRepo.Close()

	embedder := mock.NewMockEmbedder()
	seedCorpus(t, docRepo, embedder, "the deadline is june thirty")

	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if strings.Contains(text, "broken") {
			return nil, assert.AnError
		}
		return mock.NewMockEmbedder().EmbedText(ctx, text)
	}

	retriever, err := NewRetriever(embedder, docRepo)
	require.NoError(t, err)
	defer retriever.Release()

	key := core.ThreadKey{UserID: "u1", ThreadID: "t1"}
	docs, err := retriever.Retrieve(context.Background(), []string{"broken task", "deadline june"}, key)
	require.NoError(t, err)

	// The failing task degrades to lexical-only or empty; the healthy
	// task still contributes.
	require.NotEmpty(t, docs)
	found := false
	for _, doc := range docs {
		if doc.SourceTask == "deadline june" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRetriever_NoTasks(t *testing.T) {
	_, docRepo, backend, err := badgerstore.NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	defer docRepo.Close()

	retriever, err := NewRetriever(mock.NewMockEmbedder(), docRepo)
	require.NoError(t, err)
	defer retriever.Release()

	_, err = retriever.Retrieve(context.Background(), nil, core.ThreadKey{UserID: "u1", ThreadID: "t1"})
	assert.ErrorIs(t, err, ErrNoTasks)
}
