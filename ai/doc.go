// Copyright 2026 Veritom Systems
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

// Package ai provides abstractions for the model services Knowbase depends
// on: text embeddings, relevance reranking, and answer summarization.
//
// The package defines interfaces only; the core retrieval logic depends on
// these abstractions rather than on concrete model clients.
//
//   - Embedder: generates vector embeddings from text
//   - Reranker: rescores candidate documents against a query
//   - Summarizer: condenses top results into a short answer
//   - Provider: aggregates the three for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: production implementation against OpenAI-compatible APIs
//   - ai/mock: deterministic test doubles, no external services required
//
// Public constructors in ai/openai return the interface types to enforce
// abstraction. Mock constructors return concrete types so tests can inject
// behavior and assert call counts.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "session token expired")
package ai
