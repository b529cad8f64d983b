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

// Package search implements hybrid cross-source retrieval.
//
// A query runs through a fixed, forward-only sequence of stages:
//
//	Collecting → Deduplicating → Reranking → Boosting → Filtering → Done
//
// Collecting fans the query out across collections, combining dense
// (embedding) and sparse (BM25) signals per collection with weighted fusion.
// Deduplicating collapses identical content retrieved from different
// collections. Reranking rescores the pool with a cross-encoder; when the
// reranker is unreachable the query degrades to fused scores instead of
// failing. Boosting forces an exact ticket-key match to the top with
// similarity 1.0. Filtering drops everything below the configured
// similarity floor.
//
// Any stage failure other than reranker unavailability aborts the query;
// callers never receive a silently truncated result set.
package search
