// Package ingest provides the write path for documents.
//
// The Gate enforces content-hash deduplication: exact duplicates are skipped
// before they reach the vector store, and a skip is a normal outcome rather
// than an error. The Pipeline layers batch embedding and a worker pool on
// top of the gate; one bad document never aborts the rest of its batch.
package ingest
