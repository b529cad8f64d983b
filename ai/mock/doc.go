// Package mock provides deterministic test doubles for the ai interfaces.
//
// The mocks require no external services. Defaults are deterministic so
// tests are repeatable: the embedder hashes text into a stable vector, the
// reranker scores by token overlap with the query, and the summarizer echoes
// a canned answer. Behavior can be overridden per test via function fields.
package mock
