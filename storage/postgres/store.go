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

package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/veritom/knowbase/core"
	"github.com/veritom/knowbase/storage"
)

const (
	defaultDialTimeout = 10 * time.Second

	// defaultStatementTimeout bounds one store round-trip when the caller's
	// context carries no deadline. A hung backend must fail the call, not
	// block it indefinitely.
	defaultStatementTimeout = 15 * time.Second
)

// withDeadline derives a bounded context for a store round-trip. Callers
// that already carry a deadline keep it.
func withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultStatementTimeout)
}

// VectorStore implements storage.VectorStore on a Postgres database with
// the pgvector extension. Hash uniqueness is enforced by a unique
// constraint, so the dedup gate's check-then-insert is atomic without any
// client-side locking.
type VectorStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ storage.VectorStore = (*VectorStore)(nil)

// NewVectorStore connects to Postgres with the given DSN, runs the schema
// migration and returns the store.
//
// Returns the storage.VectorStore interface to enforce abstraction.
func NewVectorStore(dsn string) (storage.VectorStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres connection")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultDialTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", storage.ErrStoreUnavailable, err)
	}

	s := &VectorStore{
		db:     db,
		logger: slog.Default().With("component", "postgres-store"),
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to run schema migration")
	}
	return s, nil
}

func (s *VectorStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS collection (
			name TEXT PRIMARY KEY,
			dimension INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS document (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			source_type INTEGER NOT NULL,
			content TEXT NOT NULL,
			metadata BYTEA,
			content_hash TEXT NOT NULL,
			ticket_key TEXT,
			embedding vector NOT NULL,
			inserted_ts TIMESTAMPTZ NOT NULL,
			updated_ts TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (collection, id),
			UNIQUE (collection, content_hash)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_document_ticket ON document (collection, ticket_key)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "migration statement failed: %.40s", stmt)
		}
	}
	return nil
}

// Insert stores a document, provisioning the collection on first use.
func (s *VectorStore) Insert(ctx context.Context, collection string, doc *core.Document) error {
	if len(doc.Embedding) == 0 {
		return fmt.Errorf("%w: document %s has no embedding", core.ErrEmptyEmbedding, doc.ID)
	}

	ctx, cancel := withDeadline(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.mapErr(err, "failed to begin insert transaction")
	}
	defer tx.Rollback()

	var dim int
	err = tx.QueryRowContext(ctx,
		`INSERT INTO collection (name, dimension) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET dimension = collection.dimension
		 RETURNING dimension`,
		collection, len(doc.Embedding),
	).Scan(&dim)
	if err != nil {
		return s.mapErr(err, "failed to provision collection")
	}
	if dim != len(doc.Embedding) {
		return fmt.Errorf("%w: collection %s stores %d-dimensional vectors, got %d",
			storage.ErrDimensionMismatch, collection, dim, len(doc.Embedding))
	}

	doc.InsertedAt = time.Now().UTC()
	doc.UpdatedAt = doc.InsertedAt

	var ticket sql.NullString
	if key := doc.TicketKey(); key != "" {
		ticket = sql.NullString{String: key, Valid: true}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO document (collection, id, source_type, content, metadata, content_hash, ticket_key, embedding, inserted_ts, updated_ts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (collection, content_hash) DO NOTHING`,
		collection,
		doc.ID,
		int(doc.SourceType),
		doc.Content,
		storage.MarshalMetadata(doc.Metadata),
		doc.ContentHash,
		ticket,
		pgvector.NewVector(doc.Embedding),
		doc.InsertedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return s.mapErr(err, "failed to insert document")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read rows affected")
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", storage.ErrDuplicateHash, doc.ContentHash)
	}

	if err := tx.Commit(); err != nil {
		return s.mapErr(err, "failed to commit insert")
	}
	return nil
}

// Query runs a cosine nearest-neighbor search via the pgvector <=> operator.
func (s *VectorStore) Query(ctx context.Context, collection string, embedding []float32, k int) ([]storage.DenseMatch, error) {
	ctx, cancel := withDeadline(ctx)
	defer cancel()

	var dim int
	err := s.db.QueryRowContext(ctx, `SELECT dimension FROM collection WHERE name = $1`, collection).Scan(&dim)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil // unknown collection: no matches, not an error
	}
	if err != nil {
		return nil, s.mapErr(err, "failed to read collection dimension")
	}
	if dim != len(embedding) {
		return nil, fmt.Errorf("%w: collection %s stores %d-dimensional vectors, query has %d",
			storage.ErrDimensionMismatch, collection, dim, len(embedding))
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, 1 - (embedding <=> $2) AS score
		 FROM document
		 WHERE collection = $1
		 ORDER BY embedding <=> $2
		 LIMIT $3`,
		collection, pgvector.NewVector(embedding), k,
	)
	if err != nil {
		return nil, s.mapErr(err, "dense query failed")
	}
	defer rows.Close()

	var matches []storage.DenseMatch
	for rows.Next() {
		var m storage.DenseMatch
		if err := rows.Scan(&m.DocumentID, &m.Score); err != nil {
			return nil, errors.Wrap(err, "failed to scan match")
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

const documentColumns = `id, source_type, content, metadata, content_hash, embedding, inserted_ts, updated_ts`

// Get retrieves a single document by ID.
func (s *VectorStore) Get(ctx context.Context, collection, id string) (*core.Document, error) {
	ctx, cancel := withDeadline(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM document WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	return s.scanDocument(row)
}

// GetMany retrieves multiple documents by ID, skipping missing ones.
func (s *VectorStore) GetMany(ctx context.Context, collection string, ids ...string) ([]*core.Document, error) {
	docs := make([]*core.Document, 0, len(ids))
	for _, id := range ids {
		doc, err := s.Get(ctx, collection, id)
		if stderrors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// FindByHash looks up the document carrying the given content hash.
func (s *VectorStore) FindByHash(ctx context.Context, collection, hash string) (*core.Document, error) {
	ctx, cancel := withDeadline(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM document WHERE collection = $1 AND content_hash = $2`,
		collection, hash,
	)
	return s.scanDocument(row)
}

// FindByTicket looks up the document whose metadata records the ticket key.
func (s *VectorStore) FindByTicket(ctx context.Context, collection, ticketKey string) (*core.Document, error) {
	ctx, cancel := withDeadline(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM document WHERE collection = $1 AND ticket_key = $2 LIMIT 1`,
		collection, ticketKey,
	)
	return s.scanDocument(row)
}

// Delete removes a single document by ID.
func (s *VectorStore) Delete(ctx context.Context, collection, id string) error {
	ctx, cancel := withDeadline(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM document WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return s.mapErr(err, "failed to delete document")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read rows affected")
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Clear removes every document in the collection in one transaction.
func (s *VectorStore) Clear(ctx context.Context, collection string) error {
	ctx, cancel := withDeadline(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.mapErr(err, "failed to begin clear transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document WHERE collection = $1`, collection); err != nil {
		return s.mapErr(err, "failed to clear documents")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collection WHERE name = $1`, collection); err != nil {
		return s.mapErr(err, "failed to drop collection marker")
	}
	if err := tx.Commit(); err != nil {
		return s.mapErr(err, "failed to commit clear")
	}
	return nil
}

// Count returns the number of documents in the collection.
func (s *VectorStore) Count(ctx context.Context, collection string) (int, error) {
	ctx, cancel := withDeadline(ctx)
	defer cancel()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM document WHERE collection = $1`, collection).Scan(&count)
	if err != nil {
		return 0, s.mapErr(err, "failed to count documents")
	}
	return count, nil
}

// ListCollections returns every collection with a full record dump.
func (s *VectorStore) ListCollections(ctx context.Context) ([]storage.CollectionSummary, error) {
	ctx, cancel := withDeadline(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT name FROM collection ORDER BY name`)
	if err != nil {
		return nil, s.mapErr(err, "failed to list collections")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "failed to scan collection name")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	summaries := make([]storage.CollectionSummary, 0, len(names))
	for _, name := range names {
		docs, err := s.dumpCollection(ctx, name)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, storage.CollectionSummary{
			Name:      name,
			Count:     len(docs),
			Documents: docs,
		})
	}
	return summaries, nil
}

func (s *VectorStore) dumpCollection(ctx context.Context, collection string) ([]*core.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM document WHERE collection = $1 ORDER BY inserted_ts`,
		collection,
	)
	if err != nil {
		return nil, s.mapErr(err, "failed to dump collection")
	}
	defer rows.Close()

	var docs []*core.Document
	for rows.Next() {
		doc, err := s.scanDocumentRow(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Close closes the database connection pool.
func (s *VectorStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *VectorStore) scanDocument(row *sql.Row) (*core.Document, error) {
	doc, err := scanInto(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, s.mapErr(err, "failed to scan document")
	}
	return doc, nil
}

func (s *VectorStore) scanDocumentRow(rows *sql.Rows) (*core.Document, error) {
	doc, err := scanInto(rows)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan document row")
	}
	return doc, nil
}

func scanInto(row rowScanner) (*core.Document, error) {
	var (
		doc       core.Document
		srcType   int
		metaBytes []byte
		vec       pgvector.Vector
	)
	err := row.Scan(&doc.ID, &srcType, &doc.Content, &metaBytes, &doc.ContentHash, &vec, &doc.InsertedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	doc.SourceType = core.SourceType(srcType)
	doc.Embedding = vec.Slice()
	if len(metaBytes) > 0 {
		doc.Metadata, err = storage.UnmarshalMetadata(metaBytes)
		if err != nil {
			return nil, err
		}
	}
	return &doc, nil
}

// mapErr wraps err with context, translating connection-level failures into
// ErrStoreUnavailable so callers can distinguish an unreachable backend from
// a bad request.
func (s *VectorStore) mapErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if stderrors.Is(err, driver.ErrBadConn) ||
		stderrors.Is(err, context.DeadlineExceeded) ||
		stderrors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", storage.ErrStoreUnavailable, err)
	}
	return errors.Wrap(err, msg)
}
