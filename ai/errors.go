package ai

import "errors"

var (
	// ErrRerankerUnavailable indicates the reranking service could not be
	// reached or returned a failure. Retrieval falls back to fused ordering.
	ErrRerankerUnavailable = errors.New("reranker unavailable")

	// ErrSummarizerUnavailable indicates the summarization service could not
	// be reached or returned a failure.
	ErrSummarizerUnavailable = errors.New("summarizer unavailable")
)
