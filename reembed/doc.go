// Package reembed recomputes stored document embeddings with a new or
// updated embedding model.
//
// The package walks every collection in a vector store, regenerates
// embeddings in batches, and writes the refreshed vectors back. It supports
// progress tracking, retry with exponential backoff, and vector
// normalization so refreshed vectors stay compatible with cosine similarity
// search.
package reembed
