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


// Package ai defines the model-facing capability interfaces consumed by
// the orchestration engine: text embedding, pairwise relevance scoring,
// chat completion (plain, structured, streaming) and web search.
//
// The engine only ever sees these interfaces. Production implementations
// live in ai/openai (OpenAI-compatible services via langchaingo) and
// ai/tavily (web search); deterministic test doubles live in ai/mock.
//
// All implementations must be safe for concurrent use: the engine fans
// out retrieval, search and consolidation work across worker pools.
package ai
