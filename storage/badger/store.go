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


package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/veritom/knowbase/core"
	"github.com/veritom/knowbase/storage"
)

// VectorStore implements storage.VectorStore on an embedded BadgerDB
// database. Dense queries are a brute-force cosine scan over the
// collection, which is exact and fast enough for the data volumes this
// system targets.
type VectorStore struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.VectorStore = (*VectorStore)(nil)

// NewVectorStore opens an embedded vector store at the given path.
//
// Returns the storage.VectorStore interface to enforce abstraction.
func NewVectorStore(path string) (storage.VectorStore, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return newVectorStore(backend), nil
}

// NewMemoryVectorStore creates an in-memory vector store for testing.
func NewMemoryVectorStore() (storage.VectorStore, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}
	return newVectorStore(backend), nil
}

func newVectorStore(backend *Backend) *VectorStore {
	return &VectorStore{
		backend: backend,
		logger:  slog.Default().With("component", "badger-store"),
	}
}

// Insert stores a document, provisioning the collection on first use.
func (s *VectorStore) Insert(ctx context.Context, collection string, doc *core.Document) error {
	if s.backend.IsClosed() {
		return storage.ErrStoreUnavailable
	}
	if len(doc.Embedding) == 0 {
		return fmt.Errorf("%w: document %s has no embedding", core.ErrEmptyEmbedding, doc.ID)
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		dim, err := s.readDimension(tx, collection)
		if err != nil {
			return err
		}
		if dim == 0 {
			// First insert provisions the collection and pins its dimension.
			dimVal := strconv.Itoa(len(doc.Embedding))
			if err := tx.Set(makeCollectionKey(collection), []byte(dimVal)); err != nil {
				return err
			}
		} else if dim != len(doc.Embedding) {
			return fmt.Errorf("%w: collection %s stores %d-dimensional vectors, got %d",
				storage.ErrDimensionMismatch, collection, dim, len(doc.Embedding))
		}

		// Hash uniqueness within the collection.
		_, err = tx.Get(makeHashKey(collection, doc.ContentHash))
		if err == nil {
			return fmt.Errorf("%w: %s", storage.ErrDuplicateHash, doc.ContentHash)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		doc.InsertedAt = time.Now().UTC()
		doc.UpdatedAt = doc.InsertedAt

		if err := tx.Set(makeDocumentKey(collection, doc.ID), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		if err := tx.Set(makeHashKey(collection, doc.ContentHash), []byte(doc.ID)); err != nil {
			return err
		}
		if ticket := doc.TicketKey(); ticket != "" {
			if err := tx.Set(makeTicketKey(collection, ticket), []byte(doc.ID)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Query runs a brute-force cosine scan over the collection.
func (s *VectorStore) Query(ctx context.Context, collection string, embedding []float32, k int) ([]storage.DenseMatch, error) {
	if s.backend.IsClosed() {
		return nil, storage.ErrStoreUnavailable
	}

	var matches []storage.DenseMatch
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		dim, err := s.readDimension(tx, collection)
		if err != nil {
			return err
		}
		if dim == 0 {
			// Unknown or empty collection: no matches, not an error.
			return nil
		}
		if dim != len(embedding) {
			return fmt.Errorf("%w: collection %s stores %d-dimensional vectors, query has %d",
				storage.ErrDimensionMismatch, collection, dim, len(embedding))
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocumentScanPrefix(collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if len(doc.Embedding) == 0 {
				continue
			}
			matches = append(matches, storage.DenseMatch{
				DocumentID: doc.ID,
				Score:      cosineSimilarity(embedding, doc.Embedding),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(matches, func(a, b storage.DenseMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Get retrieves a single document by ID.
func (s *VectorStore) Get(ctx context.Context, collection, id string) (*core.Document, error) {
	if s.backend.IsClosed() {
		return nil, storage.ErrStoreUnavailable
	}
	var doc *core.Document
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = readDocument(tx, makeDocumentKey(collection, id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetMany retrieves multiple documents by ID, skipping missing ones.
func (s *VectorStore) GetMany(ctx context.Context, collection string, ids ...string) ([]*core.Document, error) {
	if s.backend.IsClosed() {
		return nil, storage.ErrStoreUnavailable
	}
	docs := make([]*core.Document, 0, len(ids))
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, err := readDocument(tx, makeDocumentKey(collection, id))
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// FindByHash looks up the document carrying the given content hash.
func (s *VectorStore) FindByHash(ctx context.Context, collection, hash string) (*core.Document, error) {
	return s.findIndexed(makeHashKey(collection, hash), collection)
}

// FindByTicket looks up the document whose metadata records the ticket key.
func (s *VectorStore) FindByTicket(ctx context.Context, collection, ticketKey string) (*core.Document, error) {
	return s.findIndexed(makeTicketKey(collection, ticketKey), collection)
}

func (s *VectorStore) findIndexed(indexKey []byte, collection string) (*core.Document, error) {
	if s.backend.IsClosed() {
		return nil, storage.ErrStoreUnavailable
	}
	var doc *core.Document
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(indexKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}
		doc, err = readDocument(tx, makeDocumentKey(collection, id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes a single document and its index entries.
func (s *VectorStore) Delete(ctx context.Context, collection, id string) error {
	if s.backend.IsClosed() {
		return storage.ErrStoreUnavailable
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(collection, id)
		doc, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		if err := tx.Delete(makeHashKey(collection, doc.ContentHash)); err != nil {
			return err
		}
		if ticket := doc.TicketKey(); ticket != "" {
			if err := tx.Delete(makeTicketKey(collection, ticket)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Clear removes every document in the collection in one transaction.
func (s *VectorStore) Clear(ctx context.Context, collection string) error {
	if s.backend.IsClosed() {
		return storage.ErrStoreUnavailable
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		prefixes := [][]byte{
			makeDocumentScanPrefix(collection),
			makeHashScanPrefix(collection),
			makeTicketScanPrefix(collection),
		}
		for _, prefix := range prefixes {
			keys, err := collectKeys(tx, prefix)
			if err != nil {
				return err
			}
			for _, key := range keys {
				if err := tx.Delete(key); err != nil {
					return err
				}
			}
		}
		if err := tx.Delete(makeCollectionKey(collection)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Count returns the number of documents in the collection.
func (s *VectorStore) Count(ctx context.Context, collection string) (int, error) {
	if s.backend.IsClosed() {
		return 0, storage.ErrStoreUnavailable
	}
	count := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocumentScanPrefix(collection)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// ListCollections returns every collection with a full record dump.
func (s *VectorStore) ListCollections(ctx context.Context) ([]storage.CollectionSummary, error) {
	if s.backend.IsClosed() {
		return nil, storage.ErrStoreUnavailable
	}
	var summaries []storage.CollectionSummary
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		names, err := collectKeys(tx, collectionScanPrefix())
		if err != nil {
			return err
		}
		for _, nameKey := range names {
			name := string(nameKey[len(collectionScanPrefix()):])
			summary := storage.CollectionSummary{Name: name}

			opts := badger.DefaultIteratorOptions
			opts.Prefix = makeDocumentScanPrefix(name)
			iter := tx.NewIterator(opts)
			for iter.Rewind(); iter.Valid(); iter.Next() {
				var doc *core.Document
				err := iter.Item().Value(func(val []byte) error {
					var err error
					doc, err = storage.UnmarshalDocument(val)
					return err
				})
				if err != nil {
					iter.Close()
					return err
				}
				summary.Documents = append(summary.Documents, doc)
			}
			iter.Close()

			summary.Count = len(summary.Documents)
			summaries = append(summaries, summary)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(summaries, func(a, b storage.CollectionSummary) int {
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return summaries, nil
}

// Close closes the underlying database.
func (s *VectorStore) Close() error {
	return s.backend.Close()
}

func (s *VectorStore) readDimension(tx *badger.Txn, collection string) (int, error) {
	item, err := tx.Get(makeCollectionKey(collection))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var dim int
	err = item.Value(func(val []byte) error {
		var convErr error
		dim, convErr = strconv.Atoi(string(val))
		return convErr
	})
	return dim, err
}

func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	return doc, err
}

func collectKeys(tx *badger.Txn, prefix []byte) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	return keys, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Stored and query vectors are usually unit-normalized by the embedder, in
// which case this reduces to the dot product.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
