package orchestrate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/poiesic/answerit/ai"
	"github.com/poiesic/answerit/core"
)

// Sentinel result emitted when a task's search fails. Downstream stages
// render it like any other result, so a broken provider degrades to a
// visible-but-harmless evidence slot instead of aborting the turn.
var failedSearchResult = core.WebResult{URL: "N/A", Content: "search failed"}

// noResultsSearchResult fills a task's slot when the provider answered
// but nothing content-bearing came back.
var noResultsSearchResult = core.WebResult{URL: "N/A", Content: "no results found"}

// WebSearchAdapter shapes the external search capability into one result
// slot per task.
type WebSearchAdapter struct {
	searcher ai.WebSearcher
	logger   *slog.Logger
}

// NewWebSearchAdapter creates an adapter over a web searcher.
func NewWebSearchAdapter(searcher ai.WebSearcher) *WebSearchAdapter {
	return &WebSearchAdapter{
		searcher: searcher,
		logger:   slog.Default().With("component", "websearch"),
	}
}

// Search queries the provider once per task, in parallel, and reduces
// each task's hits to the single most content-bearing result: the first
// hit with both a url and content wins. Provider errors yield the
// sentinel for that task only.
func (a *WebSearchAdapter) Search(ctx context.Context, tasks []string) []core.WebResult {
	results := make([]core.WebResult, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = a.searchTask(ctx, task)
		}()
	}
	wg.Wait()

	return results
}

func (a *WebSearchAdapter) searchTask(ctx context.Context, task string) core.WebResult {
	hits, err := a.searcher.Search(ctx, task)
	if err != nil {
		a.logger.Warn("web search failed",
			"task", task,
			"error", err)
		return failedSearchResult
	}

	for _, hit := range hits {
		if hit.URL != "" && hit.Content != "" {
			return core.WebResult{URL: hit.URL, Content: hit.Content}
		}
	}
	return noResultsSearchResult
}
