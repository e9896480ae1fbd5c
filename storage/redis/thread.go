// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package redis provides a Redis-backed storage.ThreadRepository for
// deployments where the conversation checkpoint must be shared across
// processes. Messages live in a list, the summary in a plain string key,
// and multi-key updates run through MULTI/EXEC pipelines.
package redis

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/answerit/core"
	"github.com/poiesic/answerit/storage"
	"github.com/redis/go-redis/v9"
)

// ThreadRepository implements storage.ThreadRepository on Redis.
type ThreadRepository struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ storage.ThreadRepository = (*ThreadRepository)(nil)

// Option configures a ThreadRepository.
type Option func(*ThreadRepository)

// WithTTL sets an expiry that is refreshed on every write. Zero means
// keys never expire.
func WithTTL(ttl time.Duration) Option {
	return func(r *ThreadRepository) {
		r.ttl = ttl
	}
}

// WithLogger sets the logger used by the repository.
func WithLogger(logger *slog.Logger) Option {
	return func(r *ThreadRepository) {
		r.logger = logger
	}
}

// NewThreadRepository creates a Redis-backed thread repository.
func NewThreadRepository(rdb *redis.Client, opts ...Option) storage.ThreadRepository {
	repo := &ThreadRepository{
		rdb:    rdb,
		logger: slog.Default().With("component", "redis-threads"),
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

func messagesKey(key core.ThreadKey) string {
	return "thread:" + key.UserID + ":" + key.ThreadID + ":messages"
}

func summaryKey(key core.ThreadKey) string {
	return "thread:" + key.UserID + ":" + key.ThreadID + ":summary"
}

func userPattern(userID string) string {
	return "thread:" + userID + ":*"
}

// LoadState retrieves the persisted state for a thread. A thread that has
// never been written returns an empty state.
func (r *ThreadRepository) LoadState(ctx context.Context, key core.ThreadKey) (*storage.ThreadState, error) {
	if err := core.ValidateThreadKey(key); err != nil {
		return nil, err
	}

	state := &storage.ThreadState{}

	summary, err := r.rdb.Get(ctx, summaryKey(key)).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	state.Summary = summary

	rows, err := r.rdb.LRange(ctx, messagesKey(key), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	for _, row := range rows {
		msg, err := storage.UnmarshalMessage([]byte(row))
		if err != nil {
			return nil, err
		}
		state.Messages = append(state.Messages, *msg)
	}
	return state, nil
}

// AppendMessages appends messages to the thread's tail in order.
func (r *ThreadRepository) AppendMessages(ctx context.Context, key core.ThreadKey, messages ...core.Message) error {
	if err := core.ValidateThreadKey(key); err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	values := make([]any, 0, len(messages))
	for i := range messages {
		if err := core.ValidateMessage(&messages[i]); err != nil {
			return err
		}
		data, err := storage.MarshalMessage(&messages[i])
		if err != nil {
			return err
		}
		values = append(values, data)
	}

	if err := r.rdb.RPush(ctx, messagesKey(key), values...).Err(); err != nil {
		return err
	}
	return r.touch(ctx, key)
}

// MessageCount returns the number of messages currently in the tail.
func (r *ThreadRepository) MessageCount(ctx context.Context, key core.ThreadKey) (int, error) {
	if err := core.ValidateThreadKey(key); err != nil {
		return 0, err
	}

	n, err := r.rdb.LLen(ctx, messagesKey(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, err
	}
	return int(n), nil
}

// SetSummary overwrites the thread's summary field only.
func (r *ThreadRepository) SetSummary(ctx context.Context, key core.ThreadKey, summary string) error {
	if err := core.ValidateThreadKey(key); err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, summaryKey(key), summary, r.ttl).Err(); err != nil {
		return err
	}
	return r.touch(ctx, key)
}

// ApplySummary replaces the summary and removes the summarized messages in
// one MULTI/EXEC batch. The repository is written by a single turn at a
// time per thread, so the read-rewrite of the list does not race.
func (r *ThreadRepository) ApplySummary(ctx context.Context, key core.ThreadKey, summary string, removeIds []string) error {
	if err := core.ValidateThreadKey(key); err != nil {
		return err
	}

	rows, err := r.rdb.LRange(ctx, messagesKey(key), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return err
	}

	var kept []any
	for _, row := range rows {
		msg, err := storage.UnmarshalMessage([]byte(row))
		if err != nil {
			return err
		}
		if !slices.Contains(removeIds, msg.Id) {
			kept = append(kept, row)
		}
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, summaryKey(key), summary, r.ttl)
		pipe.Del(ctx, messagesKey(key))
		if len(kept) > 0 {
			pipe.RPush(ctx, messagesKey(key), kept...)
			if r.ttl > 0 {
				pipe.Expire(ctx, messagesKey(key), r.ttl)
			}
		}
		return nil
	})
	return err
}

// DeleteThread removes all persisted state for one thread.
func (r *ThreadRepository) DeleteThread(ctx context.Context, key core.ThreadKey) error {
	if err := core.ValidateThreadKey(key); err != nil {
		return err
	}
	return r.rdb.Del(ctx, messagesKey(key), summaryKey(key)).Err()
}

// DeleteUser removes all persisted state for every thread of a user.
func (r *ThreadRepository) DeleteUser(ctx context.Context, userID string) error {
	if userID == "" {
		return core.ErrEmptyUserID
	}

	iter := r.rdb.Scan(ctx, 0, userPattern(userID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.rdb.Del(ctx, keys...).Err()
}

// Close closes the underlying client connection.
func (r *ThreadRepository) Close() error {
	return r.rdb.Close()
}

// touch refreshes the TTL of a thread's keys after a write.
func (r *ThreadRepository) touch(ctx context.Context, key core.ThreadKey) error {
	if r.ttl <= 0 {
		return nil
	}
	if err := r.rdb.Expire(ctx, messagesKey(key), r.ttl).Err(); err != nil {
		r.logger.Warn("failed to refresh thread ttl",
			"thread", key.String(),
			"error", err)
	}
	return nil
}
