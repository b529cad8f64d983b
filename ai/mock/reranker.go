package mock

import (
	"context"
	"slices"
	"strings"

	"github.com/veritom/knowbase/ai"
)

// MockReranker is a test double for ai.Reranker.
// It allows custom behavior injection via function fields.
type MockReranker struct {
	// RerankFunc is called by Rerank if set.
	// If nil, uses default token-overlap scoring.
	RerankFunc func(ctx context.Context, query string, documents []string, topN int) ([]ai.RerankResult, error)

	callCount int
}

// NewMockReranker creates a mock reranker with default token-overlap scoring.
// Returns the concrete type to allow test assertions.
func NewMockReranker() *MockReranker {
	return &MockReranker{}
}

// Rerank scores each document by the fraction of query tokens it contains.
// Deterministic and order-stable, which makes ranking assertions easy.
func (m *MockReranker) Rerank(ctx context.Context, query string, documents []string, topN int) ([]ai.RerankResult, error) {
	m.callCount++

	if m.RerankFunc != nil {
		return m.RerankFunc(ctx, query, documents, topN)
	}

	queryTokens := strings.Fields(strings.ToLower(query))
	results := make([]ai.RerankResult, len(documents))
	for i, doc := range documents {
		lower := strings.ToLower(doc)
		hits := 0
		for _, tok := range queryTokens {
			if strings.Contains(lower, tok) {
				hits++
			}
		}
		score := 0.0
		if len(queryTokens) > 0 {
			score = float64(hits) / float64(len(queryTokens))
		}
		results[i] = ai.RerankResult{Index: i, Score: score}
	}

	slices.SortStableFunc(results, func(a, b ai.RerankResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if topN > 0 && topN < len(results) {
		results = results[:topN]
	}
	return results, nil
}

// CallCount returns the number of times Rerank was called.
func (m *MockReranker) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockReranker) Reset() {
	m.callCount = 0
	m.RerankFunc = nil
}
