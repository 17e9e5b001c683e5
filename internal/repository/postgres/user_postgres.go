package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

// Upsert inserts the user or refreshes the profile of the row with the same reg_number.
// created_at and id are preserved on conflict.
func (r *UserPostgres) Upsert(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (id, reg_number, name, mobile, program, semester, batch, year,
		                   department, section, photo_url, last_login, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		ON CONFLICT (reg_number) DO UPDATE SET
			name       = EXCLUDED.name,
			mobile     = EXCLUDED.mobile,
			program    = EXCLUDED.program,
			semester   = EXCLUDED.semester,
			batch      = EXCLUDED.batch,
			year       = EXCLUDED.year,
			department = EXCLUDED.department,
			section    = EXCLUDED.section,
			photo_url  = EXCLUDED.photo_url,
			last_login = EXCLUDED.last_login,
			updated_at = EXCLUDED.updated_at
		RETURNING id, reg_number, name, mobile, program, semester, batch, year,
		          department, section, photo_url, last_login, created_at, updated_at
	`
	id := u.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := u.UpdatedAt
	if now.IsZero() {
		now = u.LastLogin
	}

	row := r.db.QueryRowContext(ctx, q,
		id,
		u.RegNumber,
		u.Name,
		u.Mobile,
		u.Program,
		u.Semester,
		u.Batch,
		u.Year,
		u.Department,
		u.Section,
		u.PhotoURL,
		u.LastLogin,
		now,
	)

	var out model.User
	if err := row.Scan(
		&out.ID,
		&out.RegNumber,
		&out.Name,
		&out.Mobile,
		&out.Program,
		&out.Semester,
		&out.Batch,
		&out.Year,
		&out.Department,
		&out.Section,
		&out.PhotoURL,
		&out.LastLogin,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}
