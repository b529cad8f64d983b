package core

import (
	"time"

	"github.com/google/uuid"
)

// SourceType identifies the knowledge source a document came from.
type SourceType int

const (
	// SourceTypeIssue represents a historical support issue (parsed mail message).
	SourceTypeIssue SourceType = iota + 1
	// SourceTypeJiraTicket represents a ticketing-system record.
	SourceTypeJiraTicket
	// SourceTypeConfluencePage represents a wiki page.
	SourceTypeConfluencePage
	// SourceTypeStackOverflowItem represents a community Q&A item.
	SourceTypeStackOverflowItem
)

// String returns the wire name of the source type.
func (s SourceType) String() string {
	switch s {
	case SourceTypeIssue:
		return "issue"
	case SourceTypeJiraTicket:
		return "jira_ticket"
	case SourceTypeConfluencePage:
		return "confluence_page"
	case SourceTypeStackOverflowItem:
		return "stackoverflow_item"
	default:
		return "unknown"
	}
}

// Collection returns the default collection name for the source type.
func (s SourceType) Collection() string {
	switch s {
	case SourceTypeIssue:
		return "issues"
	case SourceTypeJiraTicket:
		return "jira_tickets"
	case SourceTypeConfluencePage:
		return "confluence_pages"
	case SourceTypeStackOverflowItem:
		return "stackoverflow_qa"
	default:
		return ""
	}
}

// SourceTypeFromCollection maps a collection name back to its source type.
// Returns 0 if the collection name is not one of the defaults.
func SourceTypeFromCollection(name string) SourceType {
	switch name {
	case "issues":
		return SourceTypeIssue
	case "jira_tickets":
		return SourceTypeJiraTicket
	case "confluence_pages":
		return SourceTypeConfluencePage
	case "stackoverflow_qa":
		return SourceTypeStackOverflowItem
	default:
		return 0
	}
}

// Document is a unit of indexed knowledge. Ingestion adapters produce
// normalized documents; the core never parses raw source formats.
type Document struct {
	ID          string
	SourceType  SourceType
	Content     string    // Normalized text used for embedding and lexical indexing
	Metadata    Metadata  // Opaque to the core except for well-known keys
	ContentHash string    // Digest over the identity-defining fields
	Embedding   []float32 // Dense vector, computed once at ingestion
	InsertedAt  time.Time
	UpdatedAt   time.Time
}

// NewDocumentID generates a fresh document identifier.
// Used when the ingestion adapter leaves ID empty.
func NewDocumentID() string {
	return uuid.NewString()
}

// TicketKey returns the ticket identifier stored in the document's metadata,
// or "" if none is recorded.
func (d *Document) TicketKey() string {
	v, ok := d.Metadata.Get(MetaTicketKey)
	if !ok {
		return ""
	}
	return v.Str
}

// Candidate is a transient per-query structure tracking a document through
// retrieval and fusion. Created fresh per query, discarded afterwards.
type Candidate struct {
	DocumentID string
	SourceType SourceType
	Document   *Document

	DenseScore  float64 // Normalized dense rank-score; zero when absent from the dense list
	SparseScore float64 // Normalized sparse rank-score; zero when absent from the sparse list
	FusedScore  float64
}

// SearchResult is the externally visible result unit. The ordering of a
// result slice is part of the contract: non-increasing Similarity, stable
// ties, exact ticket matches first.
type SearchResult struct {
	Document   *Document
	SourceType SourceType
	Similarity float64 // Always in [0,1]; 1.0 reserved for exact ticket matches
	Rank       int
	Exact      bool // True when forced to the top by an exact ticket match
}
