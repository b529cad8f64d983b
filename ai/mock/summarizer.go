package mock

import (
	"context"
	"fmt"

	"github.com/veritom/knowbase/ai"
)

var _ ai.Summarizer = (*MockSummarizer)(nil)

// MockSummarizer is a test double for ai.Summarizer.
// It allows custom behavior injection via function fields.
type MockSummarizer struct {
	// SummarizeFunc is called by Summarize if set.
	// If nil, returns a canned summary naming the query and document count.
	SummarizeFunc func(ctx context.Context, query string, documents []string) (string, error)

	callCount int
}

// NewMockSummarizer creates a mock summarizer with default canned behavior.
// Returns the concrete type to allow test assertions.
func NewMockSummarizer() *MockSummarizer {
	return &MockSummarizer{}
}

// Summarize returns a deterministic canned summary.
func (m *MockSummarizer) Summarize(ctx context.Context, query string, documents []string) (string, error) {
	m.callCount++

	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, query, documents)
	}

	if len(documents) == 0 {
		return "", nil
	}
	return fmt.Sprintf("summary of %d documents for %q", len(documents), query), nil
}

// CallCount returns the number of times Summarize was called.
func (m *MockSummarizer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockSummarizer) Reset() {
	m.callCount = 0
	m.SummarizeFunc = nil
}
