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


package core

import (
	"encoding/hex"

	"github.com/go-crypt/x/blake2b"
)

// HashContent computes the content fingerprint over the identity-defining
// fields of a document, in order, separated by a newline. Identical field
// sequences always produce identical digests, so the fingerprint is usable
// as a per-collection uniqueness key.
func HashContent(fields ...string) string {
	h, _ := blake2b.New(32, nil) // 256-bit digest
	for i, f := range fields {
		if i > 0 {
			h.Write([]byte{'\n'})
		}
		h.Write([]byte(f))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// IdentityFields returns the fields that define semantic identity for a
// source type, extracted from content and metadata. Subject and body for a
// message, summary/description plus ticket key for a ticket, and so on.
// Unknown keys simply contribute nothing, so adapters that omit structured
// metadata still get a stable content-only fingerprint.
func IdentityFields(sourceType SourceType, content string, metadata Metadata) []string {
	switch sourceType {
	case SourceTypeJiraTicket:
		return []string{content, metadata.GetString(MetaTicketKey)}
	case SourceTypeConfluencePage, SourceTypeStackOverflowItem:
		return []string{content, metadata.GetString(MetaURL)}
	default:
		return []string{content}
	}
}

// HashDocument computes the fingerprint of a document from its
// identity-defining fields.
func HashDocument(doc *Document) string {
	return HashContent(IdentityFields(doc.SourceType, doc.Content, doc.Metadata)...)
}
