package repository

import (
	"context"

	"docvault/internal/model"
)

// DocumentRepository defines data access for documents.
// No business logic here, strictly persistence operations. Every read and delete takes the
// owning user's id and implementations must include it in the query predicate.
// Service code reaches it through ForOwner rather than directly.
type DocumentRepository interface {
	// Create inserts a new document record. Implementations assign ID when it is empty.
	// Returns the stored document (may include values set by the DB).
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns the owner's document with the given ID, or ErrNotFound.
	// Malformed ids and ids owned by someone else are reported as ErrNotFound too.
	FindByID(ctx context.Context, ownerID, id string) (*model.Document, error)

	// ListByOwner returns a page of summaries ordered by creation time, newest first.
	ListByOwner(ctx context.Context, ownerID string, pq PageQuery) ([]model.DocumentSummary, error)

	// CountByOwner returns the number of documents owned by ownerID.
	CountByOwner(ctx context.Context, ownerID string) (int, error)

	// Search returns a page of the owner's documents matching sq, case-insensitively.
	Search(ctx context.Context, ownerID string, sq SearchQuery) ([]model.Document, error)

	// Delete removes the owner's document by ID. It returns ErrNotFound when nothing was deleted.
	Delete(ctx context.Context, ownerID, id string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// SearchQuery describes a substring search. Text is matched literally, never as a pattern.
type SearchQuery struct {
	Text string
	// NameOnly restricts matching to the display name.
	NameOnly bool
	PageQuery
}
