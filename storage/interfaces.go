package storage

import (
	"context"

	"github.com/veritom/knowbase/core"
)

// DenseMatch is one hit from a dense nearest-neighbor query.
type DenseMatch struct {
	DocumentID string
	Score      float64 // Cosine similarity against the query embedding
}

// CollectionSummary describes one collection and dumps its records for the
// admin surface.
type CollectionSummary struct {
	Name      string
	Count     int
	Documents []*core.Document
}

// VectorStore is the uniform contract over interchangeable vector database
// backends, partitioned into named collections. Implementations must be
// thread-safe and support concurrent access.
type VectorStore interface {
	// Insert stores a document in the collection, provisioning the
	// collection on first use. The document must carry its embedding and
	// content hash. Returns ErrDuplicateHash if the collection already
	// holds a document with the same content hash, and
	// ErrDimensionMismatch if the embedding's dimension differs from the
	// vectors already stored in the collection.
	Insert(ctx context.Context, collection string, doc *core.Document) error

	// Query runs a dense nearest-neighbor search and returns up to k
	// matches ordered by similarity, highest first. An empty or unknown
	// collection yields an empty result, not an error.
	Query(ctx context.Context, collection string, embedding []float32, k int) ([]DenseMatch, error)

	// Get retrieves a single document by ID. Returns ErrNotFound if the
	// document does not exist.
	Get(ctx context.Context, collection, id string) (*core.Document, error)

	// GetMany retrieves multiple documents by ID, skipping missing ones.
	GetMany(ctx context.Context, collection string, ids ...string) ([]*core.Document, error)

	// FindByHash looks up the document carrying the given content hash.
	// Returns ErrNotFound when the hash is absent.
	FindByHash(ctx context.Context, collection, hash string) (*core.Document, error)

	// FindByTicket looks up a document whose metadata records the given
	// ticket key. Returns ErrNotFound when no document matches.
	FindByTicket(ctx context.Context, collection, ticketKey string) (*core.Document, error)

	// Delete removes a single document by ID. Returns ErrNotFound if the
	// document does not exist.
	Delete(ctx context.Context, collection, id string) error

	// Clear removes every document in the collection atomically. Clearing
	// an unknown collection is a no-op.
	Clear(ctx context.Context, collection string) error

	// Count returns the number of documents in the collection.
	Count(ctx context.Context, collection string) (int, error)

	// ListCollections returns every collection with a full record dump,
	// ordered by collection name.
	ListCollections(ctx context.Context) ([]CollectionSummary, error)

	// Close releases backend resources.
	Close() error
}
