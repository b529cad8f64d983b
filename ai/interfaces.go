package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch. The returned slice contains embeddings in the same order as the
	// input texts. Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Reranker rescores candidate documents against a query with a cross-encoder
// style relevance model. Implementations must be thread-safe.
type Reranker interface {
	// Rerank scores each document against the query and returns results
	// ordered by descending relevance. Index refers to the position in the
	// input slice. When topN > 0 the result is truncated to topN entries.
	// Returns ErrRerankerUnavailable (possibly wrapped) when the backing
	// service cannot be reached; callers are expected to fall back to their
	// pre-rerank ordering.
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]RerankResult, error)
}

// Summarizer condenses a set of retrieved documents into a short answer to
// the query. Implementations must be thread-safe.
type Summarizer interface {
	// Summarize produces a concise answer to the query grounded in the given
	// documents. Returns an error if generation fails.
	Summarize(ctx context.Context, query string, documents []string) (string, error)
}

// Provider aggregates the model services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder, Reranker
// and Summarizer instances sharing one configuration.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Reranker returns the relevance reranking service.
	Reranker() Reranker

	// Summarizer returns the answer summarization service.
	Summarizer() Summarizer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
