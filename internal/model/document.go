package model

import "time"

// Document represents a stored file in the system.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
// Storage identifiers never leave the service layer; callers receive a DocumentView.
type Document struct {
	ID          string
	OwnerID     string
	StorageKey  string
	Name        string
	ContentType string
	Size        int64
	ObjectID    string
	ObjectName  string
	DownloadURL string
	Description string
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DocumentSummary is the listing projection of a Document.
// Description and tags are left out to keep listing queries and payloads small.
type DocumentSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"fileName"`
	ContentType string    `json:"fileType"`
	Size        int64     `json:"fileSize"`
	DownloadURL string    `json:"downloadUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DocumentView is the normalized representation returned to API callers.
type DocumentView struct {
	ID          string    `json:"id"`
	Name        string    `json:"fileName"`
	ContentType string    `json:"fileType"`
	Size        int64     `json:"fileSize"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	DownloadURL string    `json:"downloadUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// View converts the document into its public representation.
func (d *Document) View() DocumentView {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return DocumentView{
		ID:          d.ID,
		Name:        d.Name,
		ContentType: d.ContentType,
		Size:        d.Size,
		Description: d.Description,
		Tags:        tags,
		DownloadURL: d.DownloadURL,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// Summary converts the document into its listing projection.
func (d *Document) Summary() DocumentSummary {
	return DocumentSummary{
		ID:          d.ID,
		Name:        d.Name,
		ContentType: d.ContentType,
		Size:        d.Size,
		DownloadURL: d.DownloadURL,
		CreatedAt:   d.CreatedAt,
	}
}
