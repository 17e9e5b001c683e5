package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"docvault/internal/config"
)

// MinIOStore implements BlobStore on top of minio-go. It is safe for concurrent use.
type MinIOStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
	session   *Session
	versioned atomic.Bool
}

var _ BlobStore = (*MinIOStore)(nil)

// NewMinIO validates the configuration and builds the client. No request is made
// until the first Authorize.
func NewMinIO(cfg config.MinIOConfig) (*MinIOStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	m := &MinIOStore{client: cli, bucket: cfg.Bucket, publicURL: cfg.PublicURL}
	m.session = NewSession(m.handshake)
	return m, nil
}

// handshake ensures the bucket exists (creating it if missing) and records whether it is versioned.
func (m *MinIOStore) handshake(ctx context.Context) (string, error) {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return "", fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return "", fmt.Errorf("create bucket: %w", err)
		}
	}

	if vc, err := m.client.GetBucketVersioning(ctx, m.bucket); err == nil {
		m.versioned.Store(vc.Enabled())
	}

	if m.publicURL != "" {
		return m.publicURL, nil
	}
	return m.client.EndpointURL().String(), nil
}

func (m *MinIOStore) Authorize(ctx context.Context) error {
	return m.session.Authorize(ctx)
}

// Upload streams the payload with PutObject. The returned ID is the version id, or the ETag
// when the bucket is not versioned.
func (m *MinIOStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Object, error) {
	if err := m.Authorize(ctx); err != nil {
		return Object{}, err
	}

	info, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		if isMinIOAuthError(err) {
			m.session.Invalidate()
		}
		return Object{}, fmt.Errorf("%w: %w", ErrUpload, err)
	}

	id := info.VersionID
	if id == "" {
		id = info.ETag
	}
	name := info.Key
	if name == "" {
		name = key
	}
	return Object{ID: id, Name: name}, nil
}

func (m *MinIOStore) DownloadURL(objectName string) (string, error) {
	base, ok := m.session.BaseURL()
	if !ok {
		return "", ErrNotAuthorized
	}
	return objectURL(base, m.bucket, objectName)
}

// Delete removes objectName. The version id is sent only on versioned buckets.
func (m *MinIOStore) Delete(ctx context.Context, objectID, objectName string) error {
	if err := m.Authorize(ctx); err != nil {
		return err
	}

	opts := minio.RemoveObjectOptions{}
	if m.versioned.Load() {
		opts.VersionID = objectID
	}
	err := m.client.RemoveObject(ctx, m.bucket, objectName, opts)
	if err == nil || isMinIOMissing(err) {
		return nil
	}
	if isMinIOAuthError(err) {
		m.session.Invalidate()
	}
	return fmt.Errorf("%w: %w", ErrDelete, err)
}

func isMinIOMissing(err error) bool {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchVersion":
		return true
	}
	return resp.StatusCode == http.StatusNotFound && resp.Code != "NoSuchBucket"
}

func isMinIOAuthError(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
		return true
	}
	return false
}
