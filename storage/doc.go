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


// Package storage provides the storage abstraction layer for answerit.
//
// This package defines repository interfaces that decouple storage
// implementation from the orchestration engine. Two backends ship with
// the project: BadgerDB (embedded, the default) and Redis for the thread
// checkpoint store.
//
// # Constructor Return Type Pattern
//
// This package follows a strict "return interface" pattern for all public
// constructors to enforce abstraction and enable multiple storage backend
// implementations:
//
//	repo, err := badger.NewThreadRepository(backend) // returns storage.ThreadRepository
//
// Internal package constructors may return concrete types since they're
// only used within the implementation package.
//
// # Repositories
//
//   - ThreadRepository: the checkpoint store for conversation threads.
//     Writes are field-granular (append messages, set summary, prune
//     messages) rather than whole-state snapshots, and reads observe a
//     thread's own prior writes.
//   - DocumentRepository: the private document index. Chunks are keyed by
//     content hash, always filtered by user/thread, and carry a per-scope
//     version counter so lexical index caches can detect staleness.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines. Concurrent turns against
// the same thread key are the caller's responsibility to serialize.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and
// timeout support.
package storage
