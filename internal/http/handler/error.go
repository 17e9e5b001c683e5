package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/http/middleware"
	"docvault/internal/identity"
	"docvault/internal/service"
	"docvault/internal/storage"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a standardized JSON error response without leaking internal errors.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: middleware.RequestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// mapError translates domain errors into status, code and a fixed client message.
func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrNoFile):
		return fiber.StatusBadRequest, "NO_FILE", "No file uploaded"
	case errors.Is(err, service.ErrFileTooLarge):
		return fiber.StatusBadRequest, "FILE_TOO_LARGE", "File exceeds the maximum allowed size"
	case errors.Is(err, service.ErrQueryRequired):
		return fiber.StatusBadRequest, "QUERY_REQUIRED", "Search query is required"
	case errors.Is(err, service.ErrValidation):
		return fiber.StatusBadRequest, "BAD_REQUEST", "bad request"
	case errors.Is(err, identity.ErrMissingToken):
		return fiber.StatusBadRequest, "TOKEN_REQUIRED", "Missing X-CSRF-Token header"
	case errors.Is(err, identity.ErrInvalidToken), errors.Is(err, identity.ErrUnavailable):
		return fiber.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token"
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND", "Document not found"
	case errors.Is(err, service.ErrDeadlineExceeded):
		return fiber.StatusServiceUnavailable, "DEADLINE_EXCEEDED", "Request took too long, please try again"
	case errors.Is(err, storage.ErrAuth), errors.Is(err, storage.ErrUpload),
		errors.Is(err, storage.ErrDelete), errors.Is(err, storage.ErrNotAuthorized):
		return fiber.StatusInternalServerError, "STORAGE_ERROR", "Storage operation failed"
	default:
		return fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}

// respondError maps err, logs server-side failures with request context and writes the envelope.
func respondError(c *fiber.Ctx, logger *slog.Logger, operation, documentID string, err error) error {
	status, code, message := mapError(err)
	if status >= fiber.StatusInternalServerError {
		attrs := []any{
			"component", "http",
			"request_id", middleware.RequestIDFromCtx(c),
			"operation", operation,
			"status", status,
			"error", err.Error(),
		}
		if u := middleware.UserFromCtx(c); u != nil {
			attrs = append(attrs, "user_id", u.ID)
		}
		if documentID != "" {
			attrs = append(attrs, "document_id", documentID)
		}
		logger.ErrorContext(c.UserContext(), "request_failed", attrs...)
	}
	return writeError(c, status, code, message)
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
// Errors escaping middleware (authentication, recovered panics) are mapped like handler errors.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if !errors.As(err, &fe) {
			return respondError(c, logger, "middleware", "", err)
		}

		switch fe.Code {
		case fiber.StatusBadRequest:
			return writeError(c, fe.Code, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, fe.Code, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, fe.Code, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			// Bodies over the server limit are the same validation failure as an oversized file.
			return respondError(c, logger, "upload", "", service.ErrFileTooLarge)
		default:
			return writeError(c, fe.Code, "INTERNAL_ERROR", "internal server error")
		}
	}
}
