// Package identity resolves the X-CSRF-Token presented by callers into a local user record.
// Tokens are introspected by an upstream service; profiles may be cached in Redis.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"docvault/internal/model"
	"docvault/internal/repository"
)

var (
	// ErrMissingToken is returned when the request carries no token.
	ErrMissingToken = errors.New("missing X-CSRF-Token header")
	// ErrInvalidToken is returned when the upstream rejects the token or returns no registration number.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrUnavailable wraps transport failures and unexpected upstream responses.
	ErrUnavailable = errors.New("identity service unavailable")
)

// Profile is the upstream view of a caller.
type Profile struct {
	RegNumber  string `json:"regNumber"`
	Name       string `json:"name"`
	Mobile     string `json:"mobile,omitempty"`
	Program    string `json:"program,omitempty"`
	Semester   int    `json:"semester,omitempty"`
	Batch      string `json:"batch,omitempty"`
	Year       int    `json:"year,omitempty"`
	Department string `json:"department,omitempty"`
	Section    string `json:"section,omitempty"`
	PhotoURL   string `json:"photoUrl,omitempty"`
}

// Lookup introspects a token upstream.
type Lookup interface {
	Lookup(ctx context.Context, token string) (*Profile, error)
}

// Cache stores profiles by token. Implementations report a miss as (nil, nil).
type Cache interface {
	Get(ctx context.Context, token string) (*Profile, error)
	Set(ctx context.Context, token string, p *Profile) error
}

// UserResolver turns a token into the stored user.
type UserResolver interface {
	Resolve(ctx context.Context, token string) (*model.User, error)
}

// Resolver is the default UserResolver.
type Resolver struct {
	lookup Lookup
	cache  Cache
	users  repository.UserRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewResolver wires a resolver. cache may be nil.
func NewResolver(lookup Lookup, cache Cache, users repository.UserRepository, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{lookup: lookup, cache: cache, users: users, logger: logger, now: time.Now}
}

// Resolve returns the user behind token, refreshing its record and last login time.
func (r *Resolver) Resolve(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	profile := r.cached(ctx, token)
	if profile == nil {
		p, err := r.lookup.Lookup(ctx, token)
		if err != nil {
			return nil, err
		}
		profile = p
		if r.cache != nil {
			if err := r.cache.Set(ctx, token, profile); err != nil {
				r.logger.Warn("identity_cache_write_failed", "component", "identity", "error", err)
			}
		}
	}

	now := r.now().UTC()
	return r.users.Upsert(ctx, &model.User{
		RegNumber:  profile.RegNumber,
		Name:       profile.Name,
		Mobile:     profile.Mobile,
		Program:    profile.Program,
		Semester:   profile.Semester,
		Batch:      profile.Batch,
		Year:       profile.Year,
		Department: profile.Department,
		Section:    profile.Section,
		PhotoURL:   profile.PhotoURL,
		LastLogin:  now,
		UpdatedAt:  now,
	})
}

func (r *Resolver) cached(ctx context.Context, token string) *Profile {
	if r.cache == nil {
		return nil
	}
	p, err := r.cache.Get(ctx, token)
	if err != nil {
		r.logger.Warn("identity_cache_read_failed", "component", "identity", "error", err)
		return nil
	}
	if p == nil || p.RegNumber == "" {
		return nil
	}
	return p
}
