package badger

import (
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/answerit/core"
	"github.com/poiesic/answerit/storage"
)

// ThreadRepository implements storage.ThreadRepository for BadgerDB.
type ThreadRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ThreadRepository = (*ThreadRepository)(nil)

// NewThreadRepository creates a new ThreadRepository.
func NewThreadRepository(backend *Backend) (storage.ThreadRepository, error) {
	idSeq, err := backend.GetSequence(threadMessageIDSeq)
	if err != nil {
		return nil, err
	}

	return &ThreadRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the message sequence.
func (r *ThreadRepository) Close() error {
	return r.idSeq.Release()
}

// LoadState retrieves the persisted state for a thread. A thread that has
// never been written returns an empty state.
func (r *ThreadRepository) LoadState(ctx context.Context, key core.ThreadKey) (*storage.ThreadState, error) {
	if err := core.ValidateThreadKey(key); err != nil {
		return nil, err
	}

	state := &storage.ThreadState{}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSummaryKey(key))
		if err == nil {
			if err := item.Value(func(val []byte) error {
				state.Summary = string(val)
				return nil
			}); err != nil {
				return err
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		// Message keys carry a BigEndian sequence suffix, so key order
		// is insertion order.
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeMessagePrefix(key)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var msg *core.Message
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				msg, err = storage.UnmarshalMessage(val)
				return err
			}); err != nil {
				return err
			}
			state.Messages = append(state.Messages, *msg)
		}
		return nil
	}, false)

	return state, err
}

// AppendMessages appends messages to the thread's tail in order.
func (r *ThreadRepository) AppendMessages(ctx context.Context, key core.ThreadKey, messages ...core.Message) error {
	if err := core.ValidateThreadKey(key); err != nil {
		return err
	}
	for i := range messages {
		if err := core.ValidateMessage(&messages[i]); err != nil {
			return err
		}
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for i := range messages {
			seq, err := r.nextSeq()
			if err != nil {
				return err
			}
			value, err := storage.MarshalMessage(&messages[i])
			if err != nil {
				return err
			}
			if err := tx.Set(makeMessageKey(key, seq), value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// MessageCount returns the number of messages currently in the tail.
func (r *ThreadRepository) MessageCount(ctx context.Context, key core.ThreadKey) (int, error) {
	if err := core.ValidateThreadKey(key); err != nil {
		return 0, err
	}

	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeMessagePrefix(key)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)

	return count, err
}

// SetSummary overwrites the thread's summary field only.
func (r *ThreadRepository) SetSummary(ctx context.Context, key core.ThreadKey, summary string) error {
	if err := core.ValidateThreadKey(key); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeSummaryKey(key), []byte(summary)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ApplySummary atomically replaces the summary and removes the summarized
// messages. Both writes commit in one transaction.
func (r *ThreadRepository) ApplySummary(ctx context.Context, key core.ThreadKey, summary string, removeIds []string) error {
	if err := core.ValidateThreadKey(key); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeSummaryKey(key), []byte(summary)); err != nil {
			return err
		}

		victims, err := r.findMessageKeys(tx, key, removeIds)
		if err != nil {
			return err
		}
		for _, k := range victims {
			if err := tx.Delete(k); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteThread removes all persisted state for one thread.
func (r *ThreadRepository) DeleteThread(ctx context.Context, key core.ThreadKey) error {
	if err := core.ValidateThreadKey(key); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		keys, err := collectKeys(tx, makeMessagePrefix(key))
		if err != nil {
			return err
		}
		keys = append(keys, makeSummaryKey(key))

		for _, k := range keys {
			if err := tx.Delete(k); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteUser removes all persisted state for every thread of a user.
func (r *ThreadRepository) DeleteUser(ctx context.Context, userID string) error {
	if userID == "" {
		return core.ErrEmptyUserID
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		var keys [][]byte
		for _, prefix := range [][]byte{
			makeSummaryUserPrefix(userID),
			makeMessageUserPrefix(userID),
		} {
			found, err := collectKeys(tx, prefix)
			if err != nil {
				return err
			}
			keys = append(keys, found...)
		}

		for _, k := range keys {
			if err := tx.Delete(k); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Helper methods

// nextSeq returns the next message sequence number, skipping the zero
// value BadgerDB sequences return on first use.
func (r *ThreadRepository) nextSeq() (uint64, error) {
	seq, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	if seq == 0 {
		seq, err = r.idSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return seq, nil
}

// findMessageKeys returns the storage keys of a thread's messages whose
// ids appear in the given set.
func (r *ThreadRepository) findMessageKeys(tx *badger.Txn, key core.ThreadKey, ids []string) ([][]byte, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var found [][]byte
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeMessagePrefix(key)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var msg *core.Message
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			msg, err = storage.UnmarshalMessage(val)
			return err
		}); err != nil {
			return nil, err
		}
		if slices.Contains(ids, msg.Id) {
			found = append(found, iter.Item().KeyCopy(nil))
		}
	}
	return found, nil
}

// collectKeys copies every key under a prefix so deletes can run after
// the iterator is closed.
func collectKeys(tx *badger.Txn, prefix []byte) ([][]byte, error) {
	var keys [][]byte
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	return keys, nil
}
