package badger

import (
	"context"
	"testing"

	"github.com/poiesic/answerit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadRepository_LoadStateEmpty(t *testing.T) {
	threadRepo, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	defer threadRepo.Close()

	state, err := threadRepo.LoadState(context.Background(), core.ThreadKey{UserID: "u1", ThreadID: "t1"})
	require.NoError(t, err)
	assert.Empty(t, state.Summary)
	assert.Empty(t, state.Messages)
}

func TestThreadRepository_AppendAndLoad(t *testing.T) {
	threadRepo, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	defer threadRepo.Close()

	ctx := context.Background()
	key := core.ThreadKey{UserID: "u1", ThreadID: "t1"}

	m1 := core.NewMessage(core.RoleHuman, "what is the project deadline?")
	m2 := core.NewMessage(core.RoleAI, "the deadline is June 30th")

	require.NoError(t, threadRepo.AppendMessages(ctx, key, m1))
	require.NoError(t, threadRepo.AppendMessages(ctx, key, m2))

	state, err := threadRepo.LoadState(ctx, key)
	require.NoError(t, err)
	require.Len(t, state.Messages, 2)
	assert.Equal(t, m1.Id, state.Messages[0].Id)
	assert.Equal(t, m2.Id, state.Messages[1].Id)
	assert.Equal(t, core.RoleHuman, state.Messages[0].Role)

	count, err := threadRepo.MessageCount(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestThreadRepository_AppendValidates(t *testing.T) {
	threadRepo, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	defer threadRepo.Close()

	ctx := context.Background()
	key := core.ThreadKey{UserID: "u1", ThreadID: "t1"}

	err = threadRepo.AppendMessages(ctx, key, core.Message{Role: core.RoleHuman})
	assert.ErrorIs(t, err, core.ErrInvalidMessage)

	err = threadRepo.AppendMessages(ctx, core.ThreadKey{UserID: "u1"}, core.NewMessage(core.RoleHuman, "hi"))
	assert.ErrorIs(t, err, core.ErrInvalidThreadKey)
}

func TestThreadRepository_SetSummary(t *testing.T) {
	threadRepo, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	defer threadRepo.Close()

	ctx := context.Background()
	key := core.ThreadKey{UserID: "u1", ThreadID: "t1"}

	require.NoError(t, threadRepo.SetSummary(ctx, key, "## Facts\n- deadline June 30"))

	state, err := threadRepo.LoadState(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "## Facts\n- deadline June 30", state.Summary)
}

func TestThreadRepository_ApplySummary(t *testing.T) {
	threadRepo, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	defer threadRepo.Close()

	ctx := context.Background()
	key := core.ThreadKey{UserID: "u1", ThreadID: "t1"}

	var messages []core.Message
	for i := 0; i < 6; i++ {
		m := core.NewMessage(core.RoleHuman, "turn content")
		messages = append(messages, m)
		require.NoError(t, threadRepo.AppendMessages(ctx, key, m))
	}

	// Fold the first four messages into the summary and prune them.
	removeIds := []string{messages[0].Id, messages[1].Id, messages[2].Id, messages[3].Id}
	require.NoError(t, threadRepo.ApplySummary(ctx, key, "fact sheet v1", removeIds))

	state, err := threadRepo.LoadState(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "fact sheet v1", state.Summary)
	require.Len(t, state.Messages, 2)
	assert.Equal(t, messages[4].Id, state.Messages[0].Id)
	assert.Equal(t, messages[5].Id, state.Messages[1].Id)
}

func TestThreadRepository_ApplySummaryUnknownIds(t *testing.T) {
	threadRepo, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	defer threadRepo.Close()

	ctx := context.Background()
	key := core.ThreadKey{UserID: "u1", ThreadID: "t1"}

	m := core.NewMessage(core.RoleHuman, "hello")
	require.NoError(t, threadRepo.AppendMessages(ctx, key, m))

	// Ids that no longer exist are ignored, not an error.
	require.NoError(t, threadRepo.ApplySummary(ctx, key, "summary", []string{"missing-id"}))

	state, err := threadRepo.LoadState(ctx, key)
	require.NoError(t, err)
	assert.Len(t, state.Messages, 1)
	assert.Equal(t, "summary", state.Summary)
}

func TestThreadRepository_DeleteThread(t *testing.T) {
	threadRepo, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	defer threadRepo.Close()

	ctx := context.Background()
	key := core.ThreadKey{UserID: "u1", ThreadID: "t1"}
	other := core.ThreadKey{UserID: "u1", ThreadID: "t2"}

	require.NoError(t, threadRepo.AppendMessages(ctx, key, core.NewMessage(core.RoleHuman, "a")))
	require.NoError(t, threadRepo.SetSummary(ctx, key, "s"))
	require.NoError(t, threadRepo.AppendMessages(ctx, other, core.NewMessage(core.RoleHuman, "b")))

	require.NoError(t, threadRepo.DeleteThread(ctx, key))

	state, err := threadRepo.LoadState(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, state.Summary)
	assert.Empty(t, state.Messages)

	// Sibling thread is untouched.
	otherState, err := threadRepo.LoadState(ctx, other)
	require.NoError(t, err)
	assert.Len(t, otherState.Messages, 1)
}

func TestThreadRepository_DeleteUser(t *testing.T) {
	threadRepo, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	defer threadRepo.Close()

	ctx := context.Background()
	k1 := core.ThreadKey{UserID: "u1", ThreadID: "t1"}
	k2 := core.ThreadKey{UserID: "u1", ThreadID: "t2"}
	k3 := core.ThreadKey{UserID: "u2", ThreadID: "t1"}

	for _, k := range []core.ThreadKey{k1, k2, k3} {
		require.NoError(t, threadRepo.AppendMessages(ctx, k, core.NewMessage(core.RoleHuman, "x")))
		require.NoError(t, threadRepo.SetSummary(ctx, k, "s"))
	}

	require.NoError(t, threadRepo.DeleteUser(ctx, "u1"))

	for _, k := range []core.ThreadKey{k1, k2} {
		state, err := threadRepo.LoadState(ctx, k)
		require.NoError(t, err)
		assert.Empty(t, state.Summary)
		assert.Empty(t, state.Messages)
	}

	// Other user's data survives.
	state, err := threadRepo.LoadState(ctx, k3)
	require.NoError(t, err)
	assert.Equal(t, "s", state.Summary)
	assert.Len(t, state.Messages, 1)
}
