// Package storage wraps S3-compatible object stores behind BlobStore.
// Implementations stream payloads and never touch local disk.
package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
)

var (
	// ErrAuth reports a rejected or failed storage handshake.
	ErrAuth = errors.New("storage authorization failed")
	// ErrUpload reports a transport failure or provider rejection during upload.
	ErrUpload = errors.New("storage upload failed")
	// ErrDelete reports a provider rejection while removing an object.
	ErrDelete = errors.New("storage delete failed")
	// ErrNotAuthorized is returned by DownloadURL before any handshake succeeded.
	ErrNotAuthorized = errors.New("storage session not authorized")
)

// Object identifies a stored blob. ID is the provider version id (or the ETag on
// unversioned buckets) and Name is the object key.
type Object struct {
	ID   string
	Name string
}

// BlobStore is the object storage contract used by the document service.
type BlobStore interface {
	// Authorize performs the provider handshake once and caches the download base URL.
	// Concurrent callers share a single in-flight handshake.
	Authorize(ctx context.Context) error
	// Upload streams size bytes from r under key.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Object, error)
	// DownloadURL composes the public URL of objectName without any I/O.
	DownloadURL(objectName string) (string, error)
	// Delete removes the given object version. An already absent object is not an error.
	Delete(ctx context.Context, objectID, objectName string) error
}

// objectURL builds <base>/<bucket>/<objectName>, escaping path segments.
func objectURL(base, bucket, objectName string) (string, error) {
	return url.JoinPath(base, bucket, objectName)
}
