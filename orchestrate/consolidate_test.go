package orchestrate

import (
	"context"
	"strings"
	"testing"

	"github.com/poiesic/answerit/ai"
	"github.com/poiesic/answerit/ai/mock"
	"github.com/poiesic/answerit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsolidate_OneDocPerTask(t *testing.T) {
	model := mock.NewMockChatModel()
	model.CompleteFunc = func(ctx context.Context, messages []ai.PromptMessage) (string, error) {
		return "condensed: " + messages[1].Content[:20], nil
	}
	consolidator := NewConsolidator(model)

	docs := []core.Document{
		{Content: "chunk one", SourceLocator: "a.txt", SourceTask: "task one"},
		{Content: "chunk two", SourceLocator: "b.txt", SourceTask: "task one"},
		{Content: "chunk three", SourceLocator: "c.txt", SourceTask: "task two"},
	}

	results := consolidator.Consolidate(context.Background(), docs)
	require.Len(t, results, 2)
	assert.Equal(t, "task one", results[0].SourceTask)
	assert.Equal(t, "task two", results[1].SourceTask)
	assert.Equal(t, "a.txt, b.txt", results[0].SourceLocator)
	assert.True(t, strings.HasPrefix(results[0].Content, "condensed:"))
}

func TestConsolidate_FailedTaskDropped(t *testing.T) {
	model := mock.NewMockChatModel()
	model.CompleteFunc = func(ctx context.Context, messages []ai.PromptMessage) (string, error) {
		if strings.Contains(messages[1].Content, "task one") {
			return "", assert.AnError
		}
		return "synthesis", nil
	}
	consolidator := NewConsolidator(model)

	docs := []core.Document{
		{Content: "chunk", SourceTask: "task one"},
		{Content: "chunk", SourceTask: "task two"},
	}

	results := consolidator.Consolidate(context.Background(), docs)
	require.Len(t, results, 1)
	assert.Equal(t, "task two", results[0].SourceTask)
}

func TestConsolidate_EmptyInput(t *testing.T) {
	consolidator := NewConsolidator(mock.NewMockChatModel())
	assert.Empty(t, consolidator.Consolidate(context.Background(), nil))
}
