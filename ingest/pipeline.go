package ingest

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/veritom/knowbase/ai"
	"github.com/veritom/knowbase/core"
)

// Item is one document handed to the pipeline for ingestion. Content is
// required; Metadata is optional.
type Item struct {
	SourceType core.SourceType
	Content    string
	Metadata   core.Metadata
}

// Result reports what happened to one item of a batch, in input order.
type Result struct {
	Outcome Outcome
	Err     error
}

// Pipeline embeds and ingests document batches through the dedup gate using
// a worker pool. A failing item is reported in its Result and never aborts
// the rest of the batch.
type Pipeline struct {
	gate     *Gate
	embedder ai.Embedder
	pool     *ants.Pool
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent gate inserts.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingestion pipeline over the given gate and embedder.
func NewPipeline(gate *Gate, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if gate == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		gate:     gate,
		embedder: embedder,
		pool:     pool,
		logger:   slog.Default().With("component", "ingest-pipeline"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Ingest embeds the items in one batch call and pushes each through the
// dedup gate concurrently. The returned slice has one Result per item, in
// input order. The error return covers batch-level failures only (embedding
// the batch); per-item failures land in the Results.
func (p *Pipeline) Ingest(ctx context.Context, collection string, items []Item) ([]Result, error) {
	if len(items) == 0 {
		return nil, nil
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Content
	}

	embeddings, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		p.logger.Error("batch embedding failed", "collection", collection, "items", len(items), "err", err)
		return nil, err
	}

	results := make([]Result, len(items))
	var wg sync.WaitGroup
	for i := range items {
		i := i
		var embedding []float32
		if i < len(embeddings) {
			embedding = embeddings[i]
		}
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			doc := &core.Document{
				SourceType: items[i].SourceType,
				Content:    items[i].Content,
				Metadata:   items[i].Metadata,
				Embedding:  embedding,
			}
			outcome, err := p.gate.InsertIfNew(ctx, collection, doc)
			results[i] = Result{Outcome: outcome, Err: err}
			if err != nil {
				p.logger.Warn("document ingestion failed", "collection", collection, "err", err)
			}
		})
		if submitErr != nil {
			wg.Done()
			results[i] = Result{Outcome: Outcome{Status: StatusFailed}, Err: submitErr}
		}
	}
	wg.Wait()

	inserted, duplicates, failed := 0, 0, 0
	for _, r := range results {
		switch r.Outcome.Status {
		case StatusInserted:
			inserted++
		case StatusDuplicate:
			duplicates++
		default:
			failed++
		}
	}
	p.logger.Info("batch ingested", "collection", collection,
		"inserted", inserted, "duplicates", duplicates, "failed", failed)

	return results, nil
}

// Release releases the worker pool. The pipeline should not be used after
// calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
