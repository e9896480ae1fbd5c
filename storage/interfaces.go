package storage

import (
	"context"

	"github.com/poiesic/answerit/core"
)

// ThreadState is the persisted checkpoint of a conversation thread.
type ThreadState struct {
	// Summary is the markdown fact sheet covering pruned messages.
	// Empty until the summarizer first runs.
	Summary string

	// Messages is the un-summarized tail, ordered oldest first.
	Messages []core.Message
}

// ThreadRepository is the checkpoint store for conversation threads.
// Writes are field-granular so the engine can persist incremental updates
// rather than whole-state snapshots. Implementations must guarantee that
// a thread's reads observe its own prior writes.
type ThreadRepository interface {
	// LoadState retrieves the persisted state for a thread.
	// A thread that has never been written returns an empty state, not an error.
	LoadState(ctx context.Context, key core.ThreadKey) (*ThreadState, error)

	// AppendMessages appends messages to the thread's tail in order.
	AppendMessages(ctx context.Context, key core.ThreadKey, messages ...core.Message) error

	// MessageCount returns the number of messages currently in the tail.
	MessageCount(ctx context.Context, key core.ThreadKey) (int, error)

	// SetSummary overwrites the thread's summary field only.
	SetSummary(ctx context.Context, key core.ThreadKey, summary string) error

	// ApplySummary atomically replaces the summary and removes the
	// summarized messages. Either both take effect or neither does; a
	// crash must never leave messages pruned without their facts folded
	// into the summary.
	ApplySummary(ctx context.Context, key core.ThreadKey, summary string, removeIds []string) error

	// DeleteThread removes all persisted state for one thread.
	DeleteThread(ctx context.Context, key core.ThreadKey) error

	// DeleteUser removes all persisted state for every thread of a user.
	DeleteUser(ctx context.Context, userID string) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// Filter scopes document index operations. UserID is required; an empty
// ThreadID matches every thread of the user.
type Filter struct {
	UserID   string
	ThreadID string
}

// Validate checks that the filter carries at least a user scope.
func (f Filter) Validate() error {
	if f.UserID == "" {
		return ErrInvalidFilter
	}
	return nil
}

// DocumentRepository is the private document index consulted by the
// hybrid retriever and populated by the ingestion pipeline.
type DocumentRepository interface {
	// Upsert stores chunks, overwriting entries with the same content id.
	Upsert(ctx context.Context, docs ...*core.IndexedDocument) error

	// Exists reports whether a chunk with the given content id is already
	// indexed within the filter scope.
	Exists(ctx context.Context, filter Filter, id core.ID) (bool, error)

	// SearchByVector returns the k nearest chunks within the filter scope,
	// ordered by similarity descending.
	SearchByVector(ctx context.Context, vector []float32, filter Filter, k int) ([]core.IndexMatch, error)

	// Scan returns every chunk within the filter scope. Used to build
	// the lexical index for a thread.
	Scan(ctx context.Context, filter Filter) ([]*core.IndexedDocument, error)

	// Version returns a counter that changes whenever the filter scope's
	// contents change. Lexical index caches use it to detect staleness.
	Version(ctx context.Context, filter Filter) (uint64, error)

	// DeleteByFilter removes every chunk within the filter scope.
	DeleteByFilter(ctx context.Context, filter Filter) error

	// Close closes the storage backend and releases resources.
	Close() error
}
