package orchestrate

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/poiesic/answerit/ai"
	"github.com/poiesic/answerit/core"
)

// Consolidator rewrites each task's retrieved chunks into a single
// task-scoped synthesis. It is an optional refinement stage; engines
// run it only when configured with one.
type Consolidator struct {
	model  ai.ChatModel
	logger *slog.Logger
}

// NewConsolidator creates a consolidator over a chat model.
func NewConsolidator(model ai.ChatModel) *Consolidator {
	return &Consolidator{
		model:  model,
		logger: slog.Default().With("component", "consolidator"),
	}
}

// Consolidate groups documents by source task and asks the model to
// condense each group into one document, one call per task in parallel.
// A failing task's contribution is dropped and logged, never fatal.
// Task order of the input is preserved in the output.
func (c *Consolidator) Consolidate(ctx context.Context, docs []core.Document) []core.Document {
	if len(docs) == 0 {
		return nil
	}

	var taskOrder []string
	grouped := make(map[string][]core.Document)
	for _, doc := range docs {
		if _, ok := grouped[doc.SourceTask]; !ok {
			taskOrder = append(taskOrder, doc.SourceTask)
		}
		grouped[doc.SourceTask] = append(grouped[doc.SourceTask], doc)
	}

	condensed := make([]*core.Document, len(taskOrder))
	var wg sync.WaitGroup
	for i, task := range taskOrder {
		wg.Add(1)
		go func() {
			defer wg.Done()
			condensed[i] = c.consolidateTask(ctx, task, grouped[task])
		}()
	}
	wg.Wait()

	var results []core.Document
	for _, doc := range condensed {
		if doc != nil {
			results = append(results, *doc)
		}
	}
	return results
}

func (c *Consolidator) consolidateTask(ctx context.Context, task string, docs []core.Document) *core.Document {
	var sb strings.Builder
	sb.WriteString("Question: ")
	sb.WriteString(task)
	sb.WriteString("\n\nPassages:\n")
	for _, doc := range docs {
		sb.WriteString("---\n")
		sb.WriteString(doc.Content)
		sb.WriteString("\n")
	}

	messages := []ai.PromptMessage{
		{Role: ai.PromptRoleSystem, Content: consolidatePrompt},
		{Role: ai.PromptRoleHuman, Content: sb.String()},
	}

	text, err := c.model.Complete(ctx, messages)
	if err != nil || strings.TrimSpace(text) == "" {
		c.logger.Warn("consolidation failed, dropping task contribution",
			"task", task,
			"error", err)
		return nil
	}

	return &core.Document{
		Content:       strings.TrimSpace(text),
		SourceLocator: joinLocators(docs),
		SourceTask:    task,
	}
}

// joinLocators merges the distinct source locators of a group.
func joinLocators(docs []core.Document) string {
	var locators []string
	seen := make(map[string]bool)
	for _, doc := range docs {
		if doc.SourceLocator != "" && !seen[doc.SourceLocator] {
			seen[doc.SourceLocator] = true
			locators = append(locators, doc.SourceLocator)
		}
	}
	return strings.Join(locators, ", ")
}
