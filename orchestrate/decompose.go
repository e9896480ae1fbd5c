package orchestrate

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/answerit/ai"
	"github.com/poiesic/answerit/core"
)

// Decomposer splits a user query into the minimum set of self-contained
// sub-questions using the utility model's structured output.
type Decomposer struct {
	model  ai.ChatModel
	logger *slog.Logger
}

// NewDecomposer creates a decomposer over a chat model.
func NewDecomposer(model ai.ChatModel) *Decomposer {
	return &Decomposer{
		model:  model,
		logger: slog.Default().With("component", "decomposer"),
	}
}

type decomposition struct {
	Tasks []string `json:"tasks"`
}

// Decompose returns the turn's tasks, always at least one. Recent
// history disambiguates pronouns. Any model or parse failure falls back
// to a single task equal to the raw query; decomposition never blocks
// the turn.
func (d *Decomposer) Decompose(ctx context.Context, history []core.Message, query string) []string {
	messages := []ai.PromptMessage{
		{Role: ai.PromptRoleSystem, Content: decomposePrompt},
		{Role: ai.PromptRoleHuman, Content: buildDecomposeInput(history, query)},
	}

	var result decomposition
	if err := d.model.CompleteJSON(ctx, messages, &result); err != nil {
		d.logger.Warn("decomposition failed, using raw query", "error", err)
		return []string{query}
	}

	tasks := make([]string, 0, len(result.Tasks))
	for _, task := range result.Tasks {
		if trimmed := strings.TrimSpace(task); trimmed != "" {
			tasks = append(tasks, trimmed)
		}
	}
	if len(tasks) == 0 {
		return []string{query}
	}
	return tasks
}

// buildDecomposeInput linearizes history as role-prefixed lines followed
// by the query under scrutiny.
func buildDecomposeInput(history []core.Message, query string) string {
	var sb strings.Builder
	if len(history) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, msg := range history {
			sb.WriteString(msg.Role.String())
			sb.WriteString(": ")
			sb.WriteString(msg.Content)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Request to split:\n")
	sb.WriteString(query)
	return sb.String()
}
