package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
// Tags are stored as a JSONB array.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, owner_id, storage_key, name, content_type, size, object_id, object_name,
		download_url, description, tags, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		d    model.Document
		tags []byte
	)
	if err := row.Scan(
		&d.ID,
		&d.OwnerID,
		&d.StorageKey,
		&d.Name,
		&d.ContentType,
		&d.Size,
		&d.ObjectID,
		&d.ObjectName,
		&d.DownloadURL,
		&d.Description,
		&tags,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &d.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12, $13)
		RETURNING ` + documentColumns

	id := doc.ID
	if id == "" {
		id = uuid.NewString()
	}
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	row := r.db.QueryRowContext(ctx, q,
		id,
		doc.OwnerID,
		doc.StorageKey,
		doc.Name,
		doc.ContentType,
		doc.Size,
		doc.ObjectID,
		doc.ObjectName,
		doc.DownloadURL,
		doc.Description,
		string(tagsJSON),
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID, scoped to the owner.
func (r *DocumentPostgres) FindByID(ctx context.Context, ownerID, id string) (*model.Document, error) {
	if !validID(id) || !validID(ownerID) {
		return nil, repository.ErrNotFound
	}
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1 AND owner_id = $2
	`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// ListByOwner returns document summaries using LIMIT/OFFSET pagination, newest first.
func (r *DocumentPostgres) ListByOwner(ctx context.Context, ownerID string, pq repository.PageQuery) ([]model.DocumentSummary, error) {
	if !validID(ownerID) {
		return []model.DocumentSummary{}, nil
	}
	const q = `
		SELECT id, name, content_type, size, download_url, created_at
		FROM documents
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, q, ownerID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentSummary, 0)
	for rows.Next() {
		var s model.DocumentSummary
		if err := rows.Scan(
			&s.ID,
			&s.Name,
			&s.ContentType,
			&s.Size,
			&s.DownloadURL,
			&s.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CountByOwner counts the owner's documents.
func (r *DocumentPostgres) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	if !validID(ownerID) {
		return 0, nil
	}
	const q = `SELECT COUNT(*) FROM documents WHERE owner_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, q, ownerID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Search matches the text against name, description or any tag (or the name alone).
func (r *DocumentPostgres) Search(ctx context.Context, ownerID string, sq repository.SearchQuery) ([]model.Document, error) {
	if !validID(ownerID) {
		return []model.Document{}, nil
	}
	const qAll = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_id = $1
		  AND (name ILIKE $2 ESCAPE '\'
		       OR description ILIKE $2 ESCAPE '\'
		       OR EXISTS (SELECT 1 FROM jsonb_array_elements_text(tags) AS tag WHERE tag ILIKE $2 ESCAPE '\'))
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`
	const qName = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_id = $1 AND name ILIKE $2 ESCAPE '\'
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`
	q := qAll
	if sq.NameOnly {
		q = qName
	}

	rows, err := r.db.QueryContext(ctx, q, ownerID, likePattern(sq.Text), sq.Limit, sq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes the owner's document by ID and reports ErrNotFound when no row matched.
func (r *DocumentPostgres) Delete(ctx context.Context, ownerID, id string) error {
	if !validID(id) || !validID(ownerID) {
		return repository.ErrNotFound
	}
	const q = `DELETE FROM documents WHERE id = $1 AND owner_id = $2`
	res, err := r.db.ExecContext(ctx, q, id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps text for a literal substring ILIKE match.
func likePattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}
