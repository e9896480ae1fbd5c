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


// Package retrieval implements the hybrid document retrieval pipeline.
//
// For each sub-question of a turn the retriever runs a dense (embedding)
// search and a sparse (BM25 lexical) search against the same user/thread
// scoped corpus, fuses the two ranked lists with Reciprocal Rank Fusion,
// and stamps every hit with the task that produced it. Tasks execute in
// parallel with bounded concurrency; a failing task contributes zero
// documents instead of aborting the turn. After the join, documents are
// deduplicated globally by content identity.
//
// The reranker then scores the fused pool against the original user query
// with the relevance scorer, drops near-zero-relevance chunks, and keeps
// a dynamically sized top slice that grows sub-linearly with pool size
// while guaranteeing at least one slot per task.
//
// Lexical indexes are built per scope from a repository scan and cached;
// the repository's version counter invalidates stale cache entries.
package retrieval
