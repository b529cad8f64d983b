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

package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/veritom/knowbase/core"
	"github.com/veritom/knowbase/lexical"
	"github.com/veritom/knowbase/storage"
)

// Status describes the outcome of pushing one document through the gate.
type Status int

const (
	// StatusInserted means the document was new and is now stored and indexed.
	StatusInserted Status = iota + 1
	// StatusDuplicate means an identical document already exists; nothing was
	// written. This is a normal outcome, not an error.
	StatusDuplicate
	// StatusFailed means validation, embedding or storage failed.
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusInserted:
		return "inserted"
	case StatusDuplicate:
		return "duplicate"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome reports what happened to one document.
type Outcome struct {
	Status Status

	// DocumentID is the stored document's ID. For StatusDuplicate it is the
	// ID of the pre-existing document carrying the same content hash.
	DocumentID string
}

// Gate is the dedup gate in front of the vector store. It computes content
// hashes, skips exact duplicates, and keeps the lexical index in sync with
// every successful insert.
//
// Check-then-insert is serialized per collection, so two concurrent pushes
// of identical content cannot both pass. Backends with a native uniqueness
// guarantee (Postgres) would be safe without this, but the embedded backend
// needs it and the lock is uncontended in the common case.
type Gate struct {
	store  storage.VectorStore
	index  *lexical.Index
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewGate creates a dedup gate over the given store and lexical index.
func NewGate(store storage.VectorStore, index *lexical.Index) (*Gate, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	return &Gate{
		store:  store,
		index:  index,
		logger: slog.Default().With("component", "ingest-gate"),
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

// InsertIfNew stores the document unless an identical one already exists in
// the collection. The document must be validated and embedded; its ID and
// ContentHash are filled in when empty.
func (g *Gate) InsertIfNew(ctx context.Context, collection string, doc *core.Document) (Outcome, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return Outcome{Status: StatusFailed}, err
	}
	if len(doc.Embedding) == 0 {
		return Outcome{Status: StatusFailed}, core.ErrEmptyEmbedding
	}
	if doc.ID == "" {
		doc.ID = core.NewDocumentID()
	}
	if doc.ContentHash == "" {
		doc.ContentHash = core.HashDocument(doc)
	}

	lock := g.collectionLock(collection)
	lock.Lock()
	defer lock.Unlock()

	existing, err := g.store.FindByHash(ctx, collection, doc.ContentHash)
	if err == nil {
		g.logger.Debug("skipping duplicate document",
			"collection", collection, "hash", doc.ContentHash, "existing_id", existing.ID)
		return Outcome{Status: StatusDuplicate, DocumentID: existing.ID}, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return Outcome{Status: StatusFailed}, err
	}

	if err := g.store.Insert(ctx, collection, doc); err != nil {
		if errors.Is(err, storage.ErrDuplicateHash) {
			// Raced with another writer on a backend with native uniqueness.
			if existing, lookupErr := g.store.FindByHash(ctx, collection, doc.ContentHash); lookupErr == nil {
				return Outcome{Status: StatusDuplicate, DocumentID: existing.ID}, nil
			}
			return Outcome{Status: StatusDuplicate}, nil
		}
		return Outcome{Status: StatusFailed}, err
	}

	g.index.Add(collection, doc.ID, doc.Content)
	g.logger.Debug("inserted document", "collection", collection, "id", doc.ID)
	return Outcome{Status: StatusInserted, DocumentID: doc.ID}, nil
}

// Delete removes a document from the store and the lexical index.
// Serialized against InsertIfNew so the index never drifts from the store.
func (g *Gate) Delete(ctx context.Context, collection, id string) error {
	lock := g.collectionLock(collection)
	lock.Lock()
	defer lock.Unlock()

	if err := g.store.Delete(ctx, collection, id); err != nil {
		return err
	}
	g.index.Remove(collection, id)
	return nil
}

// Clear drops every document in the collection from the store and the
// lexical index. Serialized against InsertIfNew: an insert committing while
// the collection clears would otherwise leave its document in the index but
// not in the store.
func (g *Gate) Clear(ctx context.Context, collection string) error {
	lock := g.collectionLock(collection)
	lock.Lock()
	defer lock.Unlock()

	if err := g.store.Clear(ctx, collection); err != nil {
		return err
	}
	g.index.Clear(collection)
	return nil
}

func (g *Gate) collectionLock(collection string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock := g.locks[collection]
	if lock == nil {
		lock = &sync.Mutex{}
		g.locks[collection] = lock
	}
	return lock
}
