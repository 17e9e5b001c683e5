package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"docvault/internal/storage"
)

type MockBlobStore struct {
	mock.Mock
}

var _ storage.BlobStore = (*MockBlobStore)(nil)

func (m *MockBlobStore) Authorize(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockBlobStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (storage.Object, error) {
	args := m.Called(ctx, key, r, size, contentType)
	if f, ok := args.Get(0).(func(context.Context, string, io.Reader, int64, string) storage.Object); ok {
		return f(ctx, key, r, size, contentType), args.Error(1)
	}
	return args.Get(0).(storage.Object), args.Error(1)
}

func (m *MockBlobStore) DownloadURL(objectName string) (string, error) {
	args := m.Called(objectName)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) Delete(ctx context.Context, objectID, objectName string) error {
	args := m.Called(ctx, objectID, objectName)
	return args.Error(0)
}
