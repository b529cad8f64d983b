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


// Package storage provides the vector store abstraction layer for knowbase.
//
// This package defines the VectorStore interface that decouples the
// retrieval pipeline from the storage implementation. Two interchangeable
// backends satisfy the contract: an embedded BadgerDB index
// (storage/badger) and a networked Postgres/pgvector database
// (storage/postgres). Switching backends must not change query results
// beyond floating-point tolerance for equivalent data.
//
// # Constructor Return Type Pattern
//
// Public constructors return the storage.VectorStore interface to enforce
// abstraction and keep callers backend-agnostic:
//
//	store, err := badger.NewVectorStore(path)   // returns storage.VectorStore
//	store, err := postgres.NewVectorStore(dsn)  // returns storage.VectorStore
//
// # Thread Safety
//
// All implementations must be thread-safe. Mutating operations on a given
// collection are serialized relative to each other; reads may proceed
// concurrently and are not required to observe writes that commit after the
// read started.
//
// # Context Support
//
// All methods accept context.Context; backends must honor cancellation and
// deadline signals on network round-trips.
package storage
