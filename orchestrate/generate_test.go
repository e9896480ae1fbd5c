package orchestrate

import (
	"context"
	"testing"

	"github.com/poiesic/answerit/ai"
	"github.com/poiesic/answerit/ai/mock"
	"github.com/poiesic/answerit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemPrompt_FourVariants(t *testing.T) {
	conversational := systemPrompt(core.ConversationState{})
	summaryOnly := systemPrompt(core.ConversationState{ConversationSummary: "facts"})
	contextOnly := systemPrompt(core.ConversationState{FinalContext: "evidence"})
	both := systemPrompt(core.ConversationState{ConversationSummary: "facts", FinalContext: "evidence"})

	variants := []string{conversational, summaryOnly, contextOnly, both}
	for i := range variants {
		for j := i + 1; j < len(variants); j++ {
			assert.NotEqual(t, variants[i], variants[j], "variants %d and %d must differ", i, j)
		}
	}

	// Summary-bearing variants carry the summary text; no variant leaks
	// the word "summary" into instructions that forbid mentioning it.
	assert.Contains(t, summaryOnly, "facts")
	assert.Contains(t, both, "facts")
	assert.Contains(t, contextOnly, "ignore it entirely")
}

func TestGenerate_EmptyQueryShortCircuits(t *testing.T) {
	model := mock.NewMockChatModel()
	generator := NewGenerator(model)

	text, err := generator.Generate(context.Background(), core.ConversationState{UserQuery: "   "})
	require.NoError(t, err)
	assert.Equal(t, noQueryMessage, text)
	assert.Empty(t, model.Calls)
}

func TestGenerate_UsesSelectedPrompt(t *testing.T) {
	model := mock.NewMockChatModel()
	generator := NewGenerator(model)

	state := core.ConversationState{
		UserQuery:    "what is in the report?",
		FinalContext: "Document evidence:\nrevenue grew\nSource: report.pdf",
	}
	_, err := generator.Generate(context.Background(), state)
	require.NoError(t, err)

	call := model.LastCall()
	require.NotEmpty(t, call)
	assert.Equal(t, promptContextOnly, call[0].Content)
}

func TestGenerateStream_EmitsChunks(t *testing.T) {
	model := mock.NewMockChatModel()
	model.StreamFunc = func(ctx context.Context, messages []ai.PromptMessage, fn func(chunk string) error) (string, error) {
		for _, chunk := range []string{"hel", "lo"} {
			if err := fn(chunk); err != nil {
				return "", err
			}
		}
		return "hello", nil
	}
	generator := NewGenerator(model)

	var chunks []string
	text, err := generator.GenerateStream(context.Background(),
		core.ConversationState{UserQuery: "hi"},
		func(chunk string) error {
			chunks = append(chunks, chunk)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, []string{"hel", "lo"}, chunks)
}

func TestGenerateStream_EmptyQuery(t *testing.T) {
	generator := NewGenerator(mock.NewMockChatModel())

	var chunks []string
	text, err := generator.GenerateStream(context.Background(),
		core.ConversationState{},
		func(chunk string) error {
			chunks = append(chunks, chunk)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, noQueryMessage, text)
	assert.Equal(t, []string{noQueryMessage}, chunks)
}
