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

// Package knowbase wires the retrieval core into a ready-to-use knowledge
// base: a vector store backend, the lexical index, AI services, runtime
// settings, and factories for the ingestion pipeline, searcher, and HTTP
// server.
package knowbase

import (
	"context"
	"io"
	"log/slog"

	"github.com/veritom/knowbase/ai"
	"github.com/veritom/knowbase/ai/openai"
	"github.com/veritom/knowbase/config"
	"github.com/veritom/knowbase/ingest"
	"github.com/veritom/knowbase/lexical"
	"github.com/veritom/knowbase/reembed"
	"github.com/veritom/knowbase/search"
	"github.com/veritom/knowbase/server"
	"github.com/veritom/knowbase/storage"
	"github.com/veritom/knowbase/storage/badger"
	"github.com/veritom/knowbase/storage/postgres"
)

// KnowledgeBase bundles the storage backend, lexical index, AI provider,
// and runtime settings behind one handle.
type KnowledgeBase struct {
	store    storage.VectorStore
	index    *lexical.Index
	provider ai.Provider
	settings *config.Settings
	gate     *ingest.Gate
	logger   *slog.Logger
}

// Option configures a KnowledgeBase.
type Option func(*options)

type options struct {
	aiConfig     *ai.Config
	provider     ai.Provider
	postgresDSN  string
	settingsPath string
	memory       bool
}

// WithAIConfig sets the AI service configuration used to build the default
// OpenAI-compatible provider.
func WithAIConfig(cfg *ai.Config) Option {
	return func(o *options) {
		o.aiConfig = cfg
	}
}

// WithProvider injects a pre-built AI provider, bypassing the default
// OpenAI-compatible one. Mostly useful for tests and offline tooling.
func WithProvider(provider ai.Provider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithPostgres selects the networked Postgres/pgvector backend instead of
// the embedded store. The data directory argument of Open is ignored.
func WithPostgres(dsn string) Option {
	return func(o *options) {
		o.postgresDSN = dsn
	}
}

// WithSettingsPath persists runtime settings to the given TOML file.
// Without it, settings changes live only for the process lifetime.
func WithSettingsPath(path string) Option {
	return func(o *options) {
		o.settingsPath = path
	}
}

// WithInMemoryStore selects a non-persistent embedded store. For tests.
func WithInMemoryStore() Option {
	return func(o *options) {
		o.memory = true
	}
}

// Open builds a knowledge base rooted at dataDir. The embedded store lives
// under dataDir unless WithPostgres or WithInMemoryStore overrides the
// backend. The lexical index is rebuilt from the store's contents, so
// keyword search is warm from the first query.
func Open(dataDir string, opts ...Option) (*KnowledgeBase, error) {
	o := &options{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}

	store, err := openStore(dataDir, o)
	if err != nil {
		return nil, err
	}

	provider := o.provider
	if provider == nil {
		provider, err = openai.NewProvider(o.aiConfig)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	var settingsOpts []config.Option
	if o.settingsPath != "" {
		settingsOpts = append(settingsOpts, config.WithPath(o.settingsPath))
	}
	settings, err := config.NewSettings(settingsOpts...)
	if err != nil {
		provider.Close()
		store.Close()
		return nil, err
	}

	index := lexical.NewIndex()
	if err := warmIndex(context.Background(), store, index); err != nil {
		provider.Close()
		store.Close()
		return nil, err
	}

	gate, err := ingest.NewGate(store, index)
	if err != nil {
		provider.Close()
		store.Close()
		return nil, err
	}

	return &KnowledgeBase{
		store:    store,
		index:    index,
		provider: provider,
		settings: settings,
		gate:     gate,
		logger:   slog.Default().With("component", "knowbase"),
	}, nil
}

func openStore(dataDir string, o *options) (storage.VectorStore, error) {
	switch {
	case o.postgresDSN != "":
		return postgres.NewVectorStore(o.postgresDSN)
	case o.memory:
		return badger.NewMemoryVectorStore()
	default:
		return badger.NewVectorStore(dataDir)
	}
}

// warmIndex rebuilds the lexical index from the store's full contents.
func warmIndex(ctx context.Context, store storage.VectorStore, index *lexical.Index) error {
	summaries, err := store.ListCollections(ctx)
	if err != nil {
		return err
	}
	for _, summary := range summaries {
		docs := make(map[string]string, len(summary.Documents))
		for _, doc := range summary.Documents {
			docs[doc.ID] = doc.Content
		}
		index.Rebuild(summary.Name, docs)
	}
	return nil
}

// Close releases the AI provider and storage backend.
func (kb *KnowledgeBase) Close() error {
	if err := kb.provider.Close(); err != nil {
		kb.logger.Error("error closing AI provider", "err", err)
	}
	if err := kb.store.Close(); err != nil {
		kb.logger.Error("error closing vector store", "err", err)
		return err
	}
	return nil
}

// Store exposes the underlying vector store.
func (kb *KnowledgeBase) Store() storage.VectorStore {
	return kb.store
}

// Index exposes the lexical index.
func (kb *KnowledgeBase) Index() *lexical.Index {
	return kb.index
}

// Settings exposes the runtime settings.
func (kb *KnowledgeBase) Settings() *config.Settings {
	return kb.settings
}

// Gate exposes the dedup gate guarding ingestion.
func (kb *KnowledgeBase) Gate() *ingest.Gate {
	return kb.gate
}

// NewPipeline builds an ingestion pipeline over the shared gate.
func (kb *KnowledgeBase) NewPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	return ingest.NewPipeline(kb.gate, kb.provider.Embedder(), opts...)
}

// NewSearcher builds a hybrid searcher over the shared store and index.
func (kb *KnowledgeBase) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(kb.store, kb.index, kb.provider, kb.settings, opts...)
}

// NewServer builds the HTTP API server over freshly constructed searcher
// and pipeline instances.
func (kb *KnowledgeBase) NewServer(opts ...server.Option) (*server.Server, error) {
	searcher, err := kb.NewSearcher()
	if err != nil {
		return nil, err
	}
	pipeline, err := kb.NewPipeline()
	if err != nil {
		return nil, err
	}
	return server.NewServer(searcher, pipeline, kb.gate, kb.store, kb.settings, opts...)
}

// NewReembedder builds a reembedder that refreshes every stored vector with
// the provider's current embedding model.
func (kb *KnowledgeBase) NewReembedder(cfg *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(kb.store, kb.provider.Embedder(), cfg, progress)
}
