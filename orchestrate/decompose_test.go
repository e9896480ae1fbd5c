package orchestrate

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/poiesic/answerit/ai"
	"github.com/poiesic/answerit/ai/mock"
	"github.com/poiesic/answerit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecompose_SplitsDistinctQuestions(t *testing.T) {
	model := mock.NewMockChatModel()
	model.CompleteJSONFunc = func(ctx context.Context, messages []ai.PromptMessage, out any) error {
		return json.Unmarshal([]byte(`{"tasks": ["what is the deadline", "who approved the budget"]}`), out)
	}
	decomposer := NewDecomposer(model)

	tasks := decomposer.Decompose(context.Background(), nil, "What's the deadline and who approved the budget?")
	assert.Equal(t, []string{"what is the deadline", "who approved the budget"}, tasks)
}

func TestDecompose_FallbackOnMalformedOutput(t *testing.T) {
	// The default mock returns an empty object, exercising the fallback.
	decomposer := NewDecomposer(mock.NewMockChatModel())

	tasks := decomposer.Decompose(context.Background(), nil, "How does a cache work?")
	assert.Equal(t, []string{"How does a cache work?"}, tasks)
}

func TestDecompose_FallbackOnModelError(t *testing.T) {
	model := mock.NewMockChatModel()
	model.CompleteJSONFunc = func(ctx context.Context, messages []ai.PromptMessage, out any) error {
		return assert.AnError
	}
	decomposer := NewDecomposer(model)

	tasks := decomposer.Decompose(context.Background(), nil, "How does a cache work?")
	assert.Equal(t, []string{"How does a cache work?"}, tasks)
}

func TestDecompose_FiltersBlankTasks(t *testing.T) {
	model := mock.NewMockChatModel()
	model.CompleteJSONFunc = func(ctx context.Context, messages []ai.PromptMessage, out any) error {
		return json.Unmarshal([]byte(`{"tasks": ["  ", "real task", ""]}`), out)
	}
	decomposer := NewDecomposer(model)

	tasks := decomposer.Decompose(context.Background(), nil, "query")
	assert.Equal(t, []string{"real task"}, tasks)
}

func TestDecompose_LinearizesHistory(t *testing.T) {
	model := mock.NewMockChatModel()
	decomposer := NewDecomposer(model)

	history := []core.Message{
		core.NewMessage(core.RoleHuman, "tell me about the report"),
		core.NewMessage(core.RoleAI, "it covers revenue"),
	}
	decomposer.Decompose(context.Background(), history, "what about it?")

	last := model.LastCall()
	require.Len(t, last, 2)
	assert.Contains(t, last[1].Content, "Human: tell me about the report")
	assert.Contains(t, last[1].Content, "AI: it covers revenue")
	assert.Contains(t, last[1].Content, "what about it?")
}
