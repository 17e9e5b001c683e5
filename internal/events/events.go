// Package events publishes document lifecycle notifications.
package events

import (
	"context"
	"time"
)

// Event types.
const (
	DocumentUploaded = "document.uploaded"
	DocumentDeleted  = "document.deleted"
)

// Event describes a change to one document. Storage identifiers are not included.
type Event struct {
	Type        string    `json:"type"`
	DocumentID  string    `json:"documentId"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"fileName,omitempty"`
	ContentType string    `json:"fileType,omitempty"`
	Size        int64     `json:"fileSize,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop discards every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
