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


package storage

import "errors"

var (
	// ErrStoreUnavailable indicates the backend is unreachable or closed.
	// Fatal for the query; surfaced to the caller.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrDimensionMismatch indicates a query embedding whose dimension does
	// not match the stored vectors. Fatal; surfaced to the caller.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrNotFound indicates that the requested document was not found.
	ErrNotFound = errors.New("document not found")

	// ErrCollectionNotFound indicates an operation on a collection that was
	// never provisioned.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrDuplicateHash indicates an insert carrying a content hash that
	// already exists in the target collection.
	ErrDuplicateHash = errors.New("duplicate content hash")

	// ErrSerializationFailed indicates a record serialization or
	// deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")
)
