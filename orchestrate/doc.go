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


// Package orchestrate drives one conversation turn through a staged
// state machine: intent classification, task decomposition, parallel
// evidence gathering (document retrieval and web search), reranking and
// optional consolidation, context aggregation, and answer generation.
//
// Each stage consumes an immutable core.ConversationState and returns a
// core.Delta; the engine applies deltas between stages and persists the
// durable fields (messages, summary) through the thread repository.
// Stage-internal failures degrade to empty or sentinel contributions so
// a broken branch never aborts the turn; only persistence failures are
// fatal and surface to the caller. Any other top-level failure turns
// into a fixed apology message.
//
// The engine is single-writer per thread: concurrent turns against the
// same thread key must be serialized by the caller.
package orchestrate
