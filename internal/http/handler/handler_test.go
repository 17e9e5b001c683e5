package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"docvault/internal/http/middleware"
	"docvault/internal/identity"
	identityMocks "docvault/internal/identity/mocks"
	"docvault/internal/logging"
	"docvault/internal/model"
	"docvault/internal/service"
	serviceMocks "docvault/internal/service/mocks"
	"docvault/internal/storage"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const ownerID = "user-1"

// newTestApp mimics the authenticated /documents group without the identity round trip.
func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Discard())})
	app.Use(middleware.RequestID())
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.UserLocalKey, &model.User{ID: ownerID, RegNumber: "RA1"})
		return c.Next()
	})
	return app
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	app.Get("/documents", ListDocuments(mockSvc, logging.Discard()))

	t.Run("success", func(t *testing.T) {
		total, pages := 25, 3
		expected := &service.ListResult{
			Documents: []model.DocumentSummary{{ID: uuid.NewString(), Name: "test.pdf"}},
			Pagination: service.Pagination{
				Page: 3, Limit: 10, HasMore: false, Total: &total, Pages: &pages,
			},
		}
		mockSvc.On("List", mock.Anything, ownerID, service.PageRequest{Page: 3, Limit: 10}).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents?page=3&limit=10", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Len(t, body["documents"], 1)
		pagination := body["pagination"].(map[string]any)
		assert.Equal(t, float64(25), pagination["total"])
		assert.Equal(t, float64(3), pagination["pages"])
		assert.Equal(t, false, pagination["hasMore"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("non-numeric paging falls back to defaults", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, ownerID, service.PageRequest{}).
			Return(&service.ListResult{Documents: []model.DocumentSummary{}}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents?page=abc&limit=xyz", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("deadline exceeded", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, ownerID, mock.Anything).Return(nil, service.ErrDeadlineExceeded).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "DEADLINE_EXCEEDED", body.Error.Code)
		assert.NotEmpty(t, body.RequestID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, ownerID, mock.Anything).Return(nil, errors.New("service error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "INTERNAL_ERROR", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func multipartBody(t *testing.T, withFile bool, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if withFile {
		part, err := writer.CreateFormFile("file", "test.txt")
		require.NoError(t, err)
		part.Write([]byte("hello world"))
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	app.Post("/documents/upload", UploadDocument(mockSvc, logging.Discard()))

	t.Run("success", func(t *testing.T) {
		body, ct := multipartBody(t, true, map[string]string{
			"description": "quarterly numbers",
			"tags":        "finance, q3",
			"customName":  "Q3 report",
		})

		expected := &model.DocumentView{ID: uuid.NewString(), Name: "Q3 report", Tags: []string{"finance", "q3"}}
		mockSvc.On("Upload", mock.Anything, mock.MatchedBy(func(in service.UploadInput) bool {
			return in.Filename == "test.txt" &&
				in.OwnerID == ownerID &&
				in.Size == int64(len("hello world")) &&
				in.Description == "quarterly numbers" &&
				in.Tags == "finance, q3" &&
				in.CustomName == "Q3 report"
		})).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents/upload", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result uploadResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, "Document uploaded successfully", result.Message)
		assert.Equal(t, expected.ID, result.Document.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		body, ct := multipartBody(t, false, map[string]string{"description": "x"})
		req := httptest.NewRequest(http.MethodPost, "/documents/upload", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "NO_FILE", decodeError(t, resp).Error.Code)
	})

	t.Run("no multipart body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/documents/upload", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "NO_FILE", decodeError(t, resp).Error.Code)
	})

	t.Run("too large", func(t *testing.T) {
		body, ct := multipartBody(t, true, nil)
		mockSvc.On("Upload", mock.Anything, mock.Anything).Return(nil, service.ErrFileTooLarge).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents/upload", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_TOO_LARGE", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("storage error does not leak detail", func(t *testing.T) {
		body, ct := multipartBody(t, true, nil)
		mockSvc.On("Upload", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: bucket docs: AccessDenied secret-key-id", storage.ErrUpload)).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents/upload", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		res := decodeError(t, resp)
		assert.Equal(t, "STORAGE_ERROR", res.Error.Code)
		assert.NotContains(t, res.Error.Message, "secret")
		mockSvc.AssertExpectations(t)
	})
}

func TestSearchDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	app.Get("/documents/search", SearchDocuments(mockSvc, logging.Discard()))
	app.Get("/documents/search/:filename", SearchByFilename(mockSvc, logging.Discard()))

	t.Run("query", func(t *testing.T) {
		mockSvc.On("Search", mock.Anything, ownerID, "invoice", service.PageRequest{Page: 1, Limit: 5}).
			Return(&service.SearchResult{
				Documents:  []model.DocumentView{{ID: "d1", Tags: []string{}}},
				Pagination: service.Pagination{Page: 1, Limit: 5, HasMore: true},
			}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/search?query=invoice&page=1&limit=5", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		pagination := body["pagination"].(map[string]any)
		assert.Equal(t, true, pagination["hasMore"])
		assert.NotContains(t, pagination, "total")
		mockSvc.AssertExpectations(t)
	})

	t.Run("empty query", func(t *testing.T) {
		mockSvc.On("Search", mock.Anything, ownerID, "", mock.Anything).Return(nil, service.ErrQueryRequired).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/search", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "QUERY_REQUIRED", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("by filename returns bare array", func(t *testing.T) {
		mockSvc.On("SearchByFilename", mock.Anything, ownerID, "report", mock.Anything).
			Return([]model.DocumentView{{ID: "d1"}, {ID: "d2"}}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/search/report", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var docs []model.DocumentView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&docs))
		assert.Len(t, docs, 2)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	app.Get("/documents/:id", GetDocument(mockSvc, logging.Discard()))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		expected := &model.DocumentView{ID: id, Name: "test.txt", CreatedAt: time.Now().UTC()}
		mockSvc.On("Get", mock.Anything, ownerID, id).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.DocumentView
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Get", mock.Anything, ownerID, id).Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("malformed id is a plain 404", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, ownerID, "not-an-id").Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/not-an-id", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestDeleteDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	app.Delete("/documents/:id", DeleteDocument(mockSvc, logging.Discard()))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Delete", mock.Anything, ownerID, id).Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body messageResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "Document deleted successfully", body.Message)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Delete", mock.Anything, ownerID, id).Return(service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("storage failure", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Delete", mock.Anything, ownerID, id).Return(fmt.Errorf("%w: boom", storage.ErrDelete)).Once()

		req := httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "STORAGE_ERROR", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrNoFile, 400, "NO_FILE"},
		{service.ErrFileTooLarge, 400, "FILE_TOO_LARGE"},
		{service.ErrQueryRequired, 400, "QUERY_REQUIRED"},
		{identity.ErrMissingToken, 400, "TOKEN_REQUIRED"},
		{identity.ErrInvalidToken, 401, "INVALID_TOKEN"},
		{fmt.Errorf("%w: dial tcp", identity.ErrUnavailable), 401, "INVALID_TOKEN"},
		{service.ErrNotFound, 404, "NOT_FOUND"},
		{fmt.Errorf("%w: handshake", storage.ErrAuth), 500, "STORAGE_ERROR"},
		{fmt.Errorf("%w: put", storage.ErrUpload), 500, "STORAGE_ERROR"},
		{storage.ErrDelete, 500, "STORAGE_ERROR"},
		{service.ErrDeadlineExceeded, 503, "DEADLINE_EXCEEDED"},
		{errors.New("db save failed"), 500, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code, message := mapError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
			assert.NotEmpty(t, message)
		})
	}
}

func TestErrorHandler_BodyLimitIsFileTooLarge(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Discard())})
	app.Post("/documents/upload", func(c *fiber.Ctx) error {
		return fiber.ErrRequestEntityTooLarge
	})

	resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/documents/upload", nil))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "FILE_TOO_LARGE", decodeError(t, resp).Error.Code)
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(logging.Discard()),
	})

	mockSvc := new(serviceMocks.MockDocumentService)
	resolver := new(identityMocks.MockUserResolver)
	resolver.On("Resolve", mock.Anything, "good").Return(&model.User{ID: ownerID}, nil)
	resolver.On("Resolve", mock.Anything, "expired").Return(nil, identity.ErrInvalidToken)

	RegisterRoutes(app, nil, mockSvc, middleware.Auth(resolver, logging.Discard()), logging.Discard())

	authed := func(method, target string) *http.Request {
		req := httptest.NewRequest(method, target, nil)
		req.Header.Set(identity.TokenHeader, "good")
		return req
	}

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Error.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/documents", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "TOKEN_REQUIRED", decodeError(t, resp).Error.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/documents", nil)
		req.Header.Set(identity.TokenHeader, "expired")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "INVALID_TOKEN", decodeError(t, resp).Error.Code)
	})

	t.Run("search is not captured by :id", func(t *testing.T) {
		mockSvc.On("Search", mock.Anything, ownerID, "q", mock.Anything).
			Return(&service.SearchResult{Documents: []model.DocumentView{}}, nil).Once()

		resp, _ := app.Test(authed(http.MethodGet, "/documents/search?query=q"))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("filename search is not captured by :id", func(t *testing.T) {
		mockSvc.On("SearchByFilename", mock.Anything, ownerID, "notes", mock.Anything).
			Return([]model.DocumentView{}, nil).Once()

		resp, _ := app.Test(authed(http.MethodGet, "/documents/search/notes"))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("get by id", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Get", mock.Anything, ownerID, id).Return(&model.DocumentView{ID: id}, nil).Once()

		resp, _ := app.Test(authed(http.MethodGet, "/documents/"+id))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}
