package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"

	"docvault/internal/events"
	"docvault/internal/model"
	"docvault/internal/repository"
)

const defaultContentType = "application/octet-stream"

// UploadInput is one incoming file plus its optional metadata fields.
type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
	OwnerID     string
	Description string
	// Tags is the raw comma-separated tag string.
	Tags       string
	CustomName string
}

var randRead = rand.Read

// StorageKey derives a collision-resistant object key: 16 hex chars from 8 random bytes,
// an underscore and the base name of filename.
func StorageKey(filename string) (string, error) {
	var prefix [8]byte
	if _, err := randRead(prefix[:]); err != nil {
		return "", fmt.Errorf("generate storage key: %w", err)
	}
	return hex.EncodeToString(prefix[:]) + "_" + baseName(filename), nil
}

// baseName strips any client-side directory, accepting both slash styles.
func baseName(filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}

// ParseTags splits a comma-separated string, trims each tag and drops empty ones.
// The result is never nil.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func (s *documentService) Upload(ctx context.Context, in UploadInput) (*model.DocumentView, error) {
	if in.Reader == nil || in.Size <= 0 {
		return nil, ErrNoFile
	}
	if s.opts.MaxUploadBytes > 0 && in.Size > s.opts.MaxUploadBytes {
		return nil, ErrFileTooLarge
	}
	if in.OwnerID == "" {
		return nil, repository.ErrOwnerRequired
	}

	key, err := StorageKey(in.Filename)
	if err != nil {
		return nil, err
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	if err := s.store.Authorize(ctx); err != nil {
		s.logger.ErrorContext(ctx, "storage_authorize_failed",
			"operation", "upload", "user_id", in.OwnerID, "object_key", key, "error", err.Error())
		return nil, err
	}

	obj, err := s.store.Upload(ctx, key, io.LimitReader(in.Reader, in.Size), in.Size, contentType)
	if err != nil {
		s.logger.ErrorContext(ctx, "storage_upload_failed",
			"operation", "upload", "user_id", in.OwnerID, "object_key", key, "error", err.Error())
		return nil, err
	}

	downloadURL, err := s.store.DownloadURL(obj.Name)
	if err != nil {
		return nil, s.rollback(ctx, in.OwnerID, obj.ID, obj.Name, fmt.Errorf("download url: %w", err))
	}

	name := strings.TrimSpace(in.CustomName)
	if name == "" {
		name = baseName(in.Filename)
	}
	now := s.now().UTC()
	doc := &model.Document{
		StorageKey:  key,
		Name:        name,
		ContentType: contentType,
		Size:        in.Size,
		ObjectID:    obj.ID,
		ObjectName:  obj.Name,
		DownloadURL: downloadURL,
		Description: strings.TrimSpace(in.Description),
		Tags:        ParseTags(in.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	stored, err := repository.ForOwner(s.repo, in.OwnerID).Create(ctx, doc)
	if err != nil {
		return nil, s.rollback(ctx, in.OwnerID, obj.ID, obj.Name, fmt.Errorf("db save failed: %w", err))
	}

	s.publish(ctx, events.DocumentUploaded, stored)
	view := stored.View()
	return &view, nil
}

// rollback removes a blob whose metadata could not be saved and returns cause,
// joined with the rollback error if the blob could not be removed either.
func (s *documentService) rollback(ctx context.Context, ownerID, objectID, objectName string, cause error) error {
	if err := s.store.Delete(context.WithoutCancel(ctx), objectID, objectName); err != nil {
		s.logger.ErrorContext(ctx, "storage_rollback_failed",
			"operation", "upload", "user_id", ownerID, "object_key", objectName, "error", err.Error())
		return fmt.Errorf("%w; rollback delete failed: %w", cause, err)
	}
	return cause
}
