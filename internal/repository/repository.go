// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres, mongodb) inside this directory.
package repository

import (
	"context"
	"errors"

	"docvault/internal/model"
)

var (
	// ErrNotFound is returned when no record matches both the id and the owner.
	ErrNotFound = errors.New("record not found")
	// ErrOwnerRequired is returned by an OwnerScope built without an owner.
	ErrOwnerRequired = errors.New("owner is required")
)

// OwnerScope binds a DocumentRepository to a single owner so every call made through it
// carries the ownership predicate.
type OwnerScope struct {
	repo  DocumentRepository
	owner string
}

// ForOwner returns the document repository restricted to ownerID.
func ForOwner(repo DocumentRepository, ownerID string) OwnerScope {
	return OwnerScope{repo: repo, owner: ownerID}
}

// Owner returns the id the scope is bound to.
func (s OwnerScope) Owner() string { return s.owner }

// Create stores doc as owned by the scope's owner, overriding any OwnerID already set.
func (s OwnerScope) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	if s.owner == "" {
		return nil, ErrOwnerRequired
	}
	doc.OwnerID = s.owner
	return s.repo.Create(ctx, doc)
}

func (s OwnerScope) Find(ctx context.Context, id string) (*model.Document, error) {
	if s.owner == "" {
		return nil, ErrOwnerRequired
	}
	return s.repo.FindByID(ctx, s.owner, id)
}

func (s OwnerScope) List(ctx context.Context, pq PageQuery) ([]model.DocumentSummary, error) {
	if s.owner == "" {
		return nil, ErrOwnerRequired
	}
	return s.repo.ListByOwner(ctx, s.owner, pq)
}

func (s OwnerScope) Count(ctx context.Context) (int, error) {
	if s.owner == "" {
		return 0, ErrOwnerRequired
	}
	return s.repo.CountByOwner(ctx, s.owner)
}

func (s OwnerScope) Search(ctx context.Context, sq SearchQuery) ([]model.Document, error) {
	if s.owner == "" {
		return nil, ErrOwnerRequired
	}
	return s.repo.Search(ctx, s.owner, sq)
}

func (s OwnerScope) Delete(ctx context.Context, id string) error {
	if s.owner == "" {
		return ErrOwnerRequired
	}
	return s.repo.Delete(ctx, s.owner, id)
}
