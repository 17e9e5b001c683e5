package repository

import (
	"context"

	"docvault/internal/model"
)

// UserRepository persists users resolved from the identity service.
type UserRepository interface {
	// Upsert inserts or refreshes the user keyed by RegNumber and returns the stored record.
	Upsert(ctx context.Context, user *model.User) (*model.User, error)
}
