package retrieval

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/answerit/ai"
	"github.com/poiesic/answerit/core"
	"github.com/poiesic/answerit/storage"
)

// defaultSearchK is how many candidates each index contributes per task
// before fusion.
const defaultSearchK = 20

// Retriever runs hybrid dense+sparse retrieval for a turn's tasks.
type Retriever struct {
	embedder ai.Embedder
	docs     storage.DocumentRepository
	lexical  *LexicalSearcher
	pool     *ants.Pool
	searchK  int
	rrfK     int
	logger   *slog.Logger
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithSearchK overrides how many candidates each index returns per task.
func WithSearchK(k int) RetrieverOption {
	return func(r *Retriever) {
		r.searchK = k
	}
}

// WithRRFSmoothing overrides the rank fusion smoothing constant.
func WithRRFSmoothing(k int) RetrieverOption {
	return func(r *Retriever) {
		r.rrfK = k
	}
}

// WithPoolSize overrides the task concurrency bound.
func WithPoolSize(size int) RetrieverOption {
	return func(r *Retriever) {
		if r.pool != nil {
			r.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err == nil {
			r.pool = pool
		}
	}
}

// NewRetriever creates a hybrid retriever over the document repository.
// Caller must call Release when done.
func NewRetriever(embedder ai.Embedder, docs storage.DocumentRepository, opts ...RetrieverOption) (*Retriever, error) {
	poolSize := runtime.NumCPU()
	if poolSize < 2 {
		poolSize = 2
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	r := &Retriever{
		embedder: embedder,
		docs:     docs,
		lexical:  NewLexicalSearcher(docs),
		pool:     pool,
		searchK:  defaultSearchK,
		rrfK:     DefaultRRFSmoothing,
		logger:   slog.Default().With("component", "retriever"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Release releases the worker pool. The retriever should not be used
// after calling Release.
func (r *Retriever) Release() {
	if r.pool != nil {
		r.pool.Release()
	}
}

// Retrieve runs hybrid retrieval for every task in parallel and returns
// the merged pool. Each document is stamped with the task that produced
// it; a failing task contributes zero documents. The merged pool is
// deduplicated globally by content identity, keeping task order.
func (r *Retriever) Retrieve(ctx context.Context, tasks []string, key core.ThreadKey) ([]core.Document, error) {
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}
	if err := core.ValidateThreadKey(key); err != nil {
		return nil, err
	}

	filter := storage.Filter{UserID: key.UserID, ThreadID: key.ThreadID}
	perTask := make([][]core.Document, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		run := func() {
			defer wg.Done()
			perTask[i] = r.retrieveTask(ctx, task, filter)
		}
		if err := r.pool.Submit(run); err != nil {
			// Pool unavailable, fall back to running inline.
			run()
		}
	}
	wg.Wait()

	seen := make(map[core.ID]bool)
	var merged []core.Document
	for _, docs := range perTask {
		for _, doc := range docs {
			id := doc.ContentID()
			if seen[id] {
				continue
			}
			seen[id] = true
			merged = append(merged, doc)
		}
	}
	return merged, nil
}

// retrieveTask runs the dense and sparse searches for one task and fuses
// their rankings. Either branch failing degrades to the other branch's
// results alone.
func (r *Retriever) retrieveTask(ctx context.Context, task string, filter storage.Filter) []core.Document {
	var dense, sparse []core.IndexMatch

	vector, err := r.embedder.EmbedText(ctx, task)
	if err != nil {
		r.logger.Warn("task embedding failed, skipping dense search",
			"task", task,
			"error", err)
	} else {
		dense, err = r.docs.SearchByVector(ctx, vector, filter, r.searchK)
		if err != nil {
			r.logger.Warn("dense search failed",
				"task", task,
				"error", err)
		}
	}

	sparse, err = r.lexical.Search(ctx, task, filter, r.searchK)
	if err != nil {
		r.logger.Warn("lexical search failed",
			"task", task,
			"error", err)
	}

	fused := Fuse(r.rrfK, dense, sparse)

	docs := make([]core.Document, 0, len(fused))
	for _, match := range fused {
		docs = append(docs, core.Document{
			Content:       match.Doc.Content,
			SourceLocator: match.Doc.SourceLocator,
			SourceTask:    task,
		})
	}
	return docs
}
