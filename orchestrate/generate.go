package orchestrate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/answerit/ai"
	"github.com/poiesic/answerit/core"
)

// Generator produces the turn's assistant answer.
type Generator struct {
	model  ai.ChatModel
	logger *slog.Logger
}

// NewGenerator creates a generator over the main chat model.
func NewGenerator(model ai.ChatModel) *Generator {
	return &Generator{
		model:  model,
		logger: slog.Default().With("component", "generator"),
	}
}

// systemPrompt selects one of the four prompt variants keyed by whether
// the thread has a summary and whether the turn gathered evidence.
func systemPrompt(state core.ConversationState) string {
	hasSummary := state.ConversationSummary != ""
	hasContext := state.FinalContext != ""

	switch {
	case hasSummary && hasContext:
		return fmt.Sprintf(promptSummaryAndContext, state.ConversationSummary)
	case hasSummary:
		return fmt.Sprintf(promptSummaryOnly, state.ConversationSummary)
	case hasContext:
		return promptContextOnly
	default:
		return promptConversational
	}
}

// Generate returns the assistant's answer for the state. An empty query
// short-circuits to a fixed message without calling the model.
func (g *Generator) Generate(ctx context.Context, state core.ConversationState) (string, error) {
	if strings.TrimSpace(state.UserQuery) == "" {
		return noQueryMessage, nil
	}
	return g.model.Complete(ctx, BuildMessages(state, systemPrompt(state)))
}

// GenerateStream is the streaming variant: fn receives incremental text
// chunks and the complete answer is returned when the stream finishes.
func (g *Generator) GenerateStream(ctx context.Context, state core.ConversationState, fn func(chunk string) error) (string, error) {
	if strings.TrimSpace(state.UserQuery) == "" {
		if err := fn(noQueryMessage); err != nil {
			return "", err
		}
		return noQueryMessage, nil
	}
	return g.model.Stream(ctx, BuildMessages(state, systemPrompt(state)), fn)
}
