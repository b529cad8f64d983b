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

package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/veritom/knowbase/ai"
	"github.com/veritom/knowbase/config"
	"github.com/veritom/knowbase/core"
	"github.com/veritom/knowbase/lexical"
	"github.com/veritom/knowbase/storage"
)

const (
	// DefaultMaxResults is the result count when the request leaves it zero.
	DefaultMaxResults = 10

	// defaultCandidateLimit bounds how many candidates each retrieval signal
	// contributes per collection before fusion.
	defaultCandidateLimit = 50

	// maxNonExactSimilarity caps normalized scores so that 1.0 stays
	// reserved for exact ticket matches.
	maxNonExactSimilarity = 0.99
)

// Request is one search call.
type Request struct {
	// Query is the free-text query. May be empty when TicketKey is set, in
	// which case the search resolves by direct ticket lookup.
	Query string

	// TicketKey is an explicit ticket identifier to boost. When empty, the
	// query text is scanned for one.
	TicketKey string

	// MaxResults bounds the result list. Zero means DefaultMaxResults.
	MaxResults int

	// Collections limits the search to the named collections. Empty means
	// all configured collections.
	Collections []string

	// WithSummary asks for an LLM summary of the top results. The summary
	// is best-effort and never load-bearing for Results.
	WithSummary bool
}

// Response is the outcome of one search.
type Response struct {
	Results []*core.SearchResult

	// Degraded is true when the reranker was unavailable and the ordering
	// fell back to fused dense/sparse scores.
	Degraded bool

	// Summary is the LLM answer over the top results, when requested and
	// available.
	Summary string
}

// Searcher runs hybrid retrieval across collections.
type Searcher struct {
	store          storage.VectorStore
	index          *lexical.Index
	embedder       ai.Embedder
	reranker       ai.Reranker
	summarizer     ai.Summarizer
	settings       *config.Settings
	collections    []string
	candidateLimit int
	logger         *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithCollections sets the collections searched by default.
func WithCollections(collections ...string) Option {
	return func(s *Searcher) error {
		s.collections = collections
		return nil
	}
}

// WithCandidateLimit sets how many candidates each signal contributes per
// collection before fusion.
func WithCandidateLimit(limit int) Option {
	return func(s *Searcher) error {
		if limit > 0 {
			s.candidateLimit = limit
		}
		return nil
	}
}

// DefaultCollections returns the default collection per source type.
func DefaultCollections() []string {
	return []string{
		core.SourceTypeIssue.Collection(),
		core.SourceTypeJiraTicket.Collection(),
		core.SourceTypeConfluencePage.Collection(),
		core.SourceTypeStackOverflowItem.Collection(),
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	store storage.VectorStore,
	index *lexical.Index,
	provider ai.Provider,
	settings *config.Settings,
	opts ...Option,
) (*Searcher, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}
	if settings == nil {
		return nil, ErrSettingsRequired
	}

	s := &Searcher{
		store:          store,
		index:          index,
		embedder:       provider.Embedder(),
		reranker:       provider.Reranker(),
		summarizer:     provider.Summarizer(),
		settings:       settings,
		collections:    DefaultCollections(),
		candidateLimit: defaultCandidateLimit,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search runs the query pipeline.
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	return s.SearchWithMonitor(ctx, req, nil)
}

// SearchWithMonitor runs the query pipeline with monitoring. The monitor
// receives callbacks as the query advances through its stages.
func (s *Searcher) SearchWithMonitor(ctx context.Context, req Request, monitor SearchMonitor) (*Response, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	query := strings.TrimSpace(req.Query)
	ticket := req.TicketKey
	if ticket == "" {
		ticket = core.ExtractTicketKey(query)
	}
	if query == "" && ticket == "" {
		return nil, ErrEmptyQuery
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	collections := req.Collections
	if len(collections) == 0 {
		collections = s.collections
	}
	snap := s.settings.Snapshot()

	monitor.Start(query)

	// A ticket key with no query text resolves by direct lookup; there is
	// nothing to retrieve or rank.
	if query == "" {
		result, err := s.lookupTicket(ctx, collections, ticket)
		if err != nil {
			return nil, err
		}
		resp := &Response{}
		if result != nil {
			monitor.TicketBoost(result.Document.ID)
			resp.Results = []*core.SearchResult{result}
		}
		monitor.EnterStage(StageDone)
		monitor.Finish(resp.Results)
		return resp, nil
	}

	// Collecting: hybrid retrieval per collection, fanned out concurrently.
	monitor.EnterStage(StageCollecting)
	pool, err := s.collect(ctx, query, collections, snap, monitor)
	if err != nil {
		return nil, err
	}

	// Deduplicating: collapse identical content across collections.
	monitor.EnterStage(StageDeduplicating)
	pool = dedupeByHash(pool)
	monitor.AfterDedup(pool)

	// Reranking: cross-encoder scores, falling back to fused scores when
	// the reranker is unavailable.
	monitor.EnterStage(StageReranking)
	similarities, degraded := s.rerank(ctx, query, pool)
	monitor.AfterRerank(degraded)

	results := make([]*core.SearchResult, len(pool))
	for i, c := range pool {
		results[i] = &core.SearchResult{
			Document:   c.Document,
			SourceType: c.SourceType,
			Similarity: similarities[i],
		}
	}

	// Boosting: an exact ticket match goes first with similarity 1.0.
	monitor.EnterStage(StageBoosting)
	results, err = s.boostTicket(ctx, results, collections, ticket, monitor)
	if err != nil {
		return nil, err
	}

	// Filtering: threshold floor, stable ordering, rank assignment.
	monitor.EnterStage(StageFiltering)
	results = applyThreshold(results, snap.SimilarityThreshold)
	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		default:
			return 0
		}
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	for i, r := range results {
		r.Rank = i
	}

	resp := &Response{Results: results, Degraded: degraded}
	if req.WithSummary && len(results) > 0 {
		resp.Summary = s.summarize(ctx, query, results, snap.LLMTopResults)
	}

	monitor.EnterStage(StageDone)
	monitor.Finish(results)
	return resp, nil
}

// collect fans the query out across collections and returns the fused
// candidate pool in collection order.
func (s *Searcher) collect(ctx context.Context, query string, collections []string, snap config.Snapshot, monitor SearchMonitor) ([]*core.Candidate, error) {
	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "err", err)
		return nil, err
	}

	perCollection := make([][]*core.Candidate, len(collections))
	g, gctx := errgroup.WithContext(ctx)
	for i, collection := range collections {
		i, collection := i, collection
		g.Go(func() error {
			dense, err := s.store.Query(gctx, collection, embedding, s.candidateLimit)
			if err != nil {
				return fmt.Errorf("collection %s: %w", collection, err)
			}
			sparse := s.index.Search(collection, query, s.candidateLimit)

			candidates := fuseCollection(dense, sparse, snap.DenseWeight, snap.SparseWeight)
			sourceType := core.SourceTypeFromCollection(collection)

			kept := candidates[:0]
			for _, c := range candidates {
				doc, err := s.store.Get(gctx, collection, c.DocumentID)
				if errors.Is(err, storage.ErrNotFound) {
					// Lexical index briefly ahead of the store; skip.
					continue
				}
				if err != nil {
					return fmt.Errorf("collection %s: %w", collection, err)
				}
				c.Document = doc
				c.SourceType = sourceType
				if c.SourceType == 0 {
					c.SourceType = doc.SourceType
				}
				kept = append(kept, c)
			}
			perCollection[i] = kept
			monitor.AfterCollect(collection, kept)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("candidate collection failed", "err", err)
		return nil, err
	}

	var pool []*core.Candidate
	for _, candidates := range perCollection {
		pool = append(pool, candidates...)
	}
	return pool, nil
}

// dedupeByHash collapses candidates sharing a content hash, keeping the
// highest fused score. First-seen order is preserved.
func dedupeByHash(pool []*core.Candidate) []*core.Candidate {
	seen := make(map[string]int, len(pool))
	deduped := make([]*core.Candidate, 0, len(pool))
	for _, c := range pool {
		hash := c.Document.ContentHash
		if at, ok := seen[hash]; ok {
			if c.FusedScore > deduped[at].FusedScore {
				deduped[at] = c
			}
			continue
		}
		seen[hash] = len(deduped)
		deduped = append(deduped, c)
	}
	return deduped
}

// rerank scores the pool with the cross-encoder, returning per-candidate
// similarities in pool order. Scores are absolute, not normalized across the
// pool: the threshold filter compares them against a fixed floor, so a weak
// pool must not inflate its best member. Reranker failure degrades to fused
// scores rather than failing the query.
func (s *Searcher) rerank(ctx context.Context, query string, pool []*core.Candidate) ([]float64, bool) {
	if len(pool) == 0 {
		return nil, false
	}

	contents := make([]string, len(pool))
	for i, c := range pool {
		contents[i] = c.Document.Content
	}

	reranked, err := s.reranker.Rerank(ctx, query, contents, 0)
	if err != nil || len(reranked) == 0 {
		if err != nil {
			s.logger.Warn("reranker unavailable, falling back to fused scores", "err", err)
		} else {
			s.logger.Warn("reranker returned no scores, falling back to fused scores")
		}
		fused := make([]float64, len(pool))
		for i, c := range pool {
			fused[i] = clampSimilarity(c.FusedScore)
		}
		return fused, true
	}

	similarities := make([]float64, len(pool))
	for _, r := range reranked {
		if r.Index >= 0 && r.Index < len(similarities) {
			similarities[r.Index] = clampSimilarity(r.Score)
		}
	}
	return similarities, false
}

// clampSimilarity clips a score into [0, maxNonExactSimilarity], keeping 1.0
// reserved for exact ticket matches.
func clampSimilarity(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > maxNonExactSimilarity {
		return maxNonExactSimilarity
	}
	return score
}

// boostTicket forces an exact ticket match to the top with similarity 1.0.
// The match comes from the candidate pool when present, otherwise from a
// direct store lookup. Other copies of the same content are dropped.
func (s *Searcher) boostTicket(ctx context.Context, results []*core.SearchResult, collections []string, ticket string, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if ticket == "" {
		return results, nil
	}

	var boosted *core.SearchResult
	for i, r := range results {
		if r.Document.TicketKey() == ticket {
			boosted = r
			results = slices.Delete(results, i, i+1)
			break
		}
	}
	if boosted == nil {
		found, err := s.lookupTicket(ctx, collections, ticket)
		if err != nil {
			return nil, err
		}
		boosted = found
	}
	if boosted == nil {
		return results, nil
	}

	boosted.Similarity = 1.0
	boosted.Exact = true
	monitor.TicketBoost(boosted.Document.ID)

	// Drop other copies of the boosted content.
	kept := results[:0]
	for _, r := range results {
		if r.Document.ContentHash != boosted.Document.ContentHash {
			kept = append(kept, r)
		}
	}
	return append([]*core.SearchResult{boosted}, kept...), nil
}

// lookupTicket resolves a ticket key by direct metadata lookup across the
// collections. A missing ticket is not an error; store failures are.
func (s *Searcher) lookupTicket(ctx context.Context, collections []string, ticket string) (*core.SearchResult, error) {
	for _, collection := range collections {
		doc, err := s.store.FindByTicket(ctx, collection, ticket)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("ticket lookup in %s: %w", collection, err)
		}

		sourceType := core.SourceTypeFromCollection(collection)
		if sourceType == 0 {
			sourceType = doc.SourceType
		}
		return &core.SearchResult{
			Document:   doc,
			SourceType: sourceType,
			Similarity: 1.0,
			Exact:      true,
		}, nil
	}
	return nil, nil
}

// applyThreshold drops results below the similarity floor.
func applyThreshold(results []*core.SearchResult, threshold float64) []*core.SearchResult {
	kept := results[:0]
	for _, r := range results {
		if r.Similarity >= threshold {
			kept = append(kept, r)
		}
	}
	return kept
}

// summarize produces the best-effort LLM answer over the top results.
func (s *Searcher) summarize(ctx context.Context, query string, results []*core.SearchResult, topN int) string {
	if topN > len(results) {
		topN = len(results)
	}
	contents := make([]string, topN)
	for i := 0; i < topN; i++ {
		contents[i] = results[i].Document.Content
	}

	summary, err := s.summarizer.Summarize(ctx, query, contents)
	if err != nil {
		s.logger.Warn("summarization failed, returning results without summary", "err", err)
		return ""
	}
	return summary
}
