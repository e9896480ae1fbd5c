// Package mock provides deterministic test doubles for the ai
// capability interfaces. Defaults are deterministic (hash-derived
// embeddings, word-overlap relevance, canned completions) so tests can
// make ordering assertions without injecting behavior; function fields
// allow full control where needed.
package mock
