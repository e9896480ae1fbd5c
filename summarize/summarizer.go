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


// Package summarize folds old conversation turns into a markdown fact
// sheet so the prompt window stays bounded while established facts
// survive. It runs outside the turn's critical path: the engine answers
// first, then the summarizer is scheduled fire-and-forget.
package summarize

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/answerit/ai"
	"github.com/poiesic/answerit/core"
	"github.com/poiesic/answerit/storage"
)

const (
	// defaultThreshold is the message count at which summarization kicks in.
	defaultThreshold = 8

	// defaultRetain is how many of the newest messages stay verbatim.
	defaultRetain = 4
)

// Summarizer maintains per-thread fact sheets. Each thread moves
// idle -> summarizing -> idle; a thread already summarizing is never
// scheduled twice.
type Summarizer struct {
	threads   storage.ThreadRepository
	model     ai.ChatModel
	pool      *ants.Pool
	threshold int
	retain    int
	logger    *slog.Logger

	mu      sync.Mutex
	running map[string]bool
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithThreshold overrides the message count that triggers summarization.
func WithThreshold(threshold int) Option {
	return func(s *Summarizer) {
		s.threshold = threshold
	}
}

// WithRetain overrides how many newest messages are kept verbatim.
func WithRetain(retain int) Option {
	return func(s *Summarizer) {
		s.retain = retain
	}
}

// NewSummarizer creates a summarizer over the thread repository and the
// utility model. Caller must call Release when done.
func NewSummarizer(threads storage.ThreadRepository, model ai.ChatModel, opts ...Option) (*Summarizer, error) {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	s := &Summarizer{
		threads:   threads,
		model:     model,
		pool:      pool,
		threshold: defaultThreshold,
		retain:    defaultRetain,
		logger:    slog.Default().With("component", "summarizer"),
		running:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Release releases the worker pool. In-flight summarizations finish;
// nothing new is scheduled.
func (s *Summarizer) Release() {
	s.pool.Release()
}

// Schedule queues a summarization check for the thread, fire-and-forget.
// A thread already being summarized is skipped; errors are logged, never
// returned. Scheduling never blocks the caller's turn.
func (s *Summarizer) Schedule(key core.ThreadKey) {
	s.mu.Lock()
	if s.running[key.String()] {
		s.mu.Unlock()
		return
	}
	s.running[key.String()] = true
	s.mu.Unlock()

	err := s.pool.Submit(func() {
		defer func() {
			s.mu.Lock()
			delete(s.running, key.String())
			s.mu.Unlock()
		}()

		if _, err := s.Run(context.Background(), key); err != nil {
			s.logger.Error("background summarization failed",
				"thread", key.String(),
				"error", err)
		}
	})
	if err != nil {
		s.mu.Lock()
		delete(s.running, key.String())
		s.mu.Unlock()
		s.logger.Warn("could not schedule summarization",
			"thread", key.String(),
			"error", err)
	}
}

// Run summarizes the thread's backlog synchronously. It reports whether
// a summary was applied: a thread below the threshold is a no-op, so
// re-running with no backlog is idempotent. The summary replacement and
// the removal of summarized messages are applied atomically; a failure
// anywhere leaves the persisted state untouched.
func (s *Summarizer) Run(ctx context.Context, key core.ThreadKey) (bool, error) {
	state, err := s.threads.LoadState(ctx, key)
	if err != nil {
		return false, err
	}
	if len(state.Messages) < s.threshold {
		return false, nil
	}

	backlog := state.Messages[:len(state.Messages)-s.retain]
	summary, err := s.summarize(ctx, state.Summary, backlog)
	if err != nil {
		return false, err
	}

	removeIds := make([]string, len(backlog))
	for i, msg := range backlog {
		removeIds[i] = msg.Id
	}
	if err := s.threads.ApplySummary(ctx, key, summary, removeIds); err != nil {
		return false, err
	}

	s.logger.Info("thread summarized",
		"thread", key.String(),
		"folded", len(backlog),
		"retained", s.retain)
	return true, nil
}

// summarize produces the complete replacement fact sheet: built fresh
// when no summary exists, otherwise updated with the backlog merged in.
func (s *Summarizer) summarize(ctx context.Context, existing string, backlog []core.Message) (string, error) {
	prompt := initialSummaryPrompt
	var sb strings.Builder
	if existing != "" {
		prompt = updateSummaryPrompt
		sb.WriteString("Current fact sheet:\n")
		sb.WriteString(existing)
		sb.WriteString("\n\nNew conversation turns:\n")
	} else {
		sb.WriteString("Conversation turns:\n")
	}
	for _, msg := range backlog {
		sb.WriteString(msg.Role.String())
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}

	messages := []ai.PromptMessage{
		{Role: ai.PromptRoleSystem, Content: prompt},
		{Role: ai.PromptRoleHuman, Content: sb.String()},
	}
	text, err := s.model.Complete(ctx, messages)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
