package summarize

import (
	"context"
	"fmt"
	"testing"

	badgerstore "github.com/poiesic/answerit/storage/badger"

	"github.com/poiesic/answerit/ai"
	"github.com/poiesic/answerit/ai/mock"
	"github.com/poiesic/answerit/core"
	"github.com/poiesic/answerit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSummarizer(t *testing.T, opts ...Option) (*Summarizer, storage.ThreadRepository, *mock.MockChatModel) {
	t.Helper()

	threads, docRepo, backend, err := badgerstore.NewMemoryStores()
	require.NoError(t, err)

	model := mock.NewMockChatModel()
	summarizer, err := NewSummarizer(threads, model, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		summarizer.Release()
		threads.Close()
		docRepo.Close()
		backend.Close()
	})
	return summarizer, threads, model
}

func seedMessages(t *testing.T, threads storage.ThreadRepository, key core.ThreadKey, n int) []core.Message {
	t.Helper()
	messages := make([]core.Message, n)
	for i := 0; i < n; i++ {
		role := core.RoleHuman
		if i%2 == 1 {
			role = core.RoleAI
		}
		messages[i] = core.NewMessage(role, fmt.Sprintf("turn %d", i))
		require.NoError(t, threads.AppendMessages(context.Background(), key, messages[i]))
	}
	return messages
}

func TestRun_FoldsOldestAndRetainsTail(t *testing.T) {
	summarizer, threads, model := newTestSummarizer(t)
	model.CompleteFunc = func(ctx context.Context, msgs []ai.PromptMessage) (string, error) {
		return "## Topics discussed\n- eight turns of testing", nil
	}

	key := core.ThreadKey{UserID: "u1", ThreadID: "t1"}
	messages := seedMessages(t, threads, key, 8)

	applied, err := summarizer.Run(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, applied)

	state, err := threads.LoadState(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "## Topics discussed\n- eight turns of testing", state.Summary)

	// Exactly the oldest four are gone; the newest four survive in order.
	require.Len(t, state.Messages, 4)
	for i := 0; i < 4; i++ {
		assert.Equal(t, messages[i+4].Id, state.Messages[i].Id)
	}
}

func TestRun_BelowThresholdIsNoOp(t *testing.T) {
	summarizer, threads, model := newTestSummarizer(t)

	key := core.ThreadKey{UserID: "u1", ThreadID: "t1"}
	seedMessages(t, threads, key, 7)

	applied, err := summarizer.Run(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Empty(t, model.Calls)

	state, err := threads.LoadState(context.Background(), key)
	require.NoError(t, err)
	assert.Empty(t, state.Summary)
	assert.Len(t, state.Messages, 7)
}

func TestRun_Idempotent(t *testing.T) {
	summarizer, threads, _ := newTestSummarizer(t)

	key := core.ThreadKey{UserID: "u1", ThreadID: "t1"}
	seedMessages(t, threads, key, 8)

	applied, err := summarizer.Run(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, applied)

	// The backlog is gone, so a second run changes nothing.
	applied, err = summarizer.Run(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestRun_UpdatesExistingSummary(t *testing.T) {
	summarizer, threads, model := newTestSummarizer(t)

	key := core.ThreadKey{UserID: "u1", ThreadID: "t1"}
	require.NoError(t, threads.SetSummary(context.Background(), key, "## User\n- name is pat"))
	seedMessages(t, threads, key, 8)

	var sawExisting bool
	model.CompleteFunc = func(ctx context.Context, msgs []ai.PromptMessage) (string, error) {
		sawExisting = msgs[0].Content == updateSummaryPrompt
		if sawExisting {
			assert.Contains(t, msgs[1].Content, "name is pat")
		}
		return "## User\n- name is pat\n- works at acme", nil
	}

	applied, err := summarizer.Run(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, sawExisting)

	state, err := threads.LoadState(context.Background(), key)
	require.NoError(t, err)
	assert.Contains(t, state.Summary, "works at acme")
}

func TestRun_ModelFailureLeavesStateUntouched(t *testing.T) {
	summarizer, threads, model := newTestSummarizer(t)
	model.CompleteFunc = func(ctx context.Context, msgs []ai.PromptMessage) (string, error) {
		return "", assert.AnError
	}

	key := core.ThreadKey{UserID: "u1", ThreadID: "t1"}
	seedMessages(t, threads, key, 8)

	_, err := summarizer.Run(context.Background(), key)
	require.Error(t, err)

	state, err := threads.LoadState(context.Background(), key)
	require.NoError(t, err)
	assert.Empty(t, state.Summary)
	assert.Len(t, state.Messages, 8)
}

func TestRun_CustomThresholdAndRetain(t *testing.T) {
	summarizer, threads, _ := newTestSummarizer(t, WithThreshold(4), WithRetain(2))

	key := core.ThreadKey{UserID: "u1", ThreadID: "t1"}
	messages := seedMessages(t, threads, key, 4)

	applied, err := summarizer.Run(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, applied)

	state, err := threads.LoadState(context.Background(), key)
	require.NoError(t, err)
	require.Len(t, state.Messages, 2)
	assert.Equal(t, messages[2].Id, state.Messages[0].Id)
}
