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

package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/veritom/knowbase/ai"
	"github.com/veritom/knowbase/core"
	"github.com/veritom/knowbase/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of documents to embed per API call
	BatchSize int

	// ReportInterval is how often to report progress (number of documents)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder recomputes the embeddings of every document in a vector store.
//
// A collection is processed in two phases: all of its documents are embedded
// first, then the collection is cleared and repopulated with the refreshed
// vectors. An embedding failure therefore leaves the store untouched; a
// failure during repopulation leaves the collection partially rewritten and
// is reported as an error so the run can be retried. Clearing before
// reinserting lets the store re-provision the collection dimension, so
// switching to a model with a different vector width works.
type Reembedder struct {
	store     storage.VectorStore
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(store storage.VectorStore, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}

	return &Reembedder{
		store:     store,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(embedder, config.MaxRetries, config.RetryDelay),
	}, nil
}

// Run reembeds every document in every collection of the store.
// Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context) error {
	summaries, err := r.store.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	total := 0
	for _, summary := range summaries {
		total += summary.Count
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No documents found in store (0 documents)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d documents across %d collections (batch size: %d)\n",
		total, len(summaries), r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	for _, summary := range summaries {
		if err := r.reembedCollection(ctx, summary, tracker); err != nil {
			return fmt.Errorf("collection %s: %w", summary.Name, err)
		}
	}

	tracker.Finish()
	fmt.Fprintf(r.progress, "Reembedding complete: %d documents in %.1fs\n",
		total, tracker.Elapsed().Seconds())
	return nil
}

func (r *Reembedder) reembedCollection(ctx context.Context, summary storage.CollectionSummary, tracker *ProgressTracker) error {
	docs := summary.Documents

	// Embed everything before touching the store so an embedding failure
	// leaves the collection untouched.
	for _, batch := range batches(docs, r.config.BatchSize) {
		if err := r.processor.Embed(ctx, batch); err != nil {
			return err
		}
		tracker.Increment(len(batch))
	}

	if err := r.store.Clear(ctx, summary.Name); err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}
	for _, doc := range docs {
		if err := r.store.Insert(ctx, summary.Name, doc); err != nil {
			return fmt.Errorf("failed to reinsert document %s: %w", doc.ID, err)
		}
	}
	return nil
}

// batches splits docs into slices of at most size documents.
func batches(docs []*core.Document, size int) [][]*core.Document {
	if size <= 0 {
		size = DefaultConfig().BatchSize
	}
	var out [][]*core.Document
	for start := 0; start < len(docs); start += size {
		end := start + size
		if end > len(docs) {
			end = len(docs)
		}
		out = append(out, docs[start:end])
	}
	return out
}
