package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/http/middleware"
	"docvault/internal/identity"
	"docvault/internal/model"
	"docvault/internal/service"
)

type uploadResponse struct {
	Message  string              `json:"message"`
	Document *model.DocumentView `json:"document"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// pageRequest reads page and limit. Missing or non-numeric values become 0, which the
// service normalizes to its defaults.
func pageRequest(c *fiber.Ctx) service.PageRequest {
	return service.PageRequest{Page: c.QueryInt("page"), Limit: c.QueryInt("limit")}
}

// UploadDocument accepts a multipart upload and stores it for the caller.
//
//	@Summary	Upload a document
//	@Tags		documents
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		X-CSRF-Token	header		string	true	"Identity token"
//	@Param		file			formData	file	true	"Document"
//	@Param		description		formData	string	false	"Free-text description"
//	@Param		tags			formData	string	false	"Comma-separated tags"
//	@Param		customName		formData	string	false	"Display name overriding the file name"
//	@Success	201	{object}	uploadResponse
//	@Failure	400	{object}	errorPayload
//	@Failure	500	{object}	errorPayload
//	@Router		/documents/upload [post]
func UploadDocument(svc service.DocumentService, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := middleware.UserFromCtx(c)
		if user == nil {
			return respondError(c, logger, "upload", "", identity.ErrInvalidToken)
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return respondError(c, logger, "upload", "", service.ErrNoFile)
		}
		f, err := fh.Open()
		if err != nil {
			return respondError(c, logger, "upload", "", service.ErrNoFile)
		}
		defer f.Close()

		doc, err := svc.Upload(c.UserContext(), service.UploadInput{
			Reader:      f,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			OwnerID:     user.ID,
			Description: c.FormValue("description"),
			Tags:        c.FormValue("tags"),
			CustomName:  c.FormValue("customName"),
		})
		if err != nil {
			return respondError(c, logger, "upload", "", err)
		}
		return c.Status(fiber.StatusCreated).JSON(uploadResponse{
			Message:  "Document uploaded successfully",
			Document: doc,
		})
	}
}

// ListDocuments returns the caller's documents, newest first.
//
//	@Summary	List documents
//	@Tags		documents
//	@Produce	json
//	@Param		X-CSRF-Token	header	string	true	"Identity token"
//	@Param		page			query	int		false	"Page number, 1-based"
//	@Param		limit			query	int		false	"Page size"
//	@Success	200	{object}	service.ListResult
//	@Failure	503	{object}	errorPayload
//	@Router		/documents [get]
func ListDocuments(svc service.DocumentService, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := middleware.UserFromCtx(c)
		if user == nil {
			return respondError(c, logger, "list", "", identity.ErrInvalidToken)
		}
		res, err := svc.List(c.UserContext(), user.ID, pageRequest(c))
		if err != nil {
			return respondError(c, logger, "list", "", err)
		}
		return c.JSON(res)
	}
}

// SearchDocuments matches the query against name, description and tags.
//
//	@Summary	Search documents
//	@Tags		documents
//	@Produce	json
//	@Param		X-CSRF-Token	header	string	true	"Identity token"
//	@Param		query			query	string	true	"Search text"
//	@Param		page			query	int		false	"Page number, 1-based"
//	@Param		limit			query	int		false	"Page size"
//	@Success	200	{object}	service.SearchResult
//	@Failure	400	{object}	errorPayload
//	@Failure	503	{object}	errorPayload
//	@Router		/documents/search [get]
func SearchDocuments(svc service.DocumentService, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := middleware.UserFromCtx(c)
		if user == nil {
			return respondError(c, logger, "search", "", identity.ErrInvalidToken)
		}
		res, err := svc.Search(c.UserContext(), user.ID, c.Query("query"), pageRequest(c))
		if err != nil {
			return respondError(c, logger, "search", "", err)
		}
		return c.JSON(res)
	}
}

// SearchByFilename matches the path parameter against document names only.
//
//	@Summary	Search documents by file name
//	@Tags		documents
//	@Produce	json
//	@Param		X-CSRF-Token	header	string	true	"Identity token"
//	@Param		filename		path	string	true	"File name fragment"
//	@Param		page			query	int		false	"Page number, 1-based"
//	@Param		limit			query	int		false	"Page size"
//	@Success	200	{array}		model.DocumentView
//	@Failure	503	{object}	errorPayload
//	@Router		/documents/search/{filename} [get]
func SearchByFilename(svc service.DocumentService, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := middleware.UserFromCtx(c)
		if user == nil {
			return respondError(c, logger, "search_filename", "", identity.ErrInvalidToken)
		}
		docs, err := svc.SearchByFilename(c.UserContext(), user.ID, c.Params("filename"), pageRequest(c))
		if err != nil {
			return respondError(c, logger, "search_filename", "", err)
		}
		return c.JSON(docs)
	}
}

// GetDocument returns one of the caller's documents.
//
//	@Summary	Get a document
//	@Tags		documents
//	@Produce	json
//	@Param		X-CSRF-Token	header	string	true	"Identity token"
//	@Param		id				path	string	true	"Document ID"
//	@Success	200	{object}	model.DocumentView
//	@Failure	404	{object}	errorPayload
//	@Router		/documents/{id} [get]
func GetDocument(svc service.DocumentService, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		user := middleware.UserFromCtx(c)
		if user == nil {
			return respondError(c, logger, "get", id, identity.ErrInvalidToken)
		}
		doc, err := svc.Get(c.UserContext(), user.ID, id)
		if err != nil {
			return respondError(c, logger, "get", id, err)
		}
		return c.JSON(doc)
	}
}

// DeleteDocument removes the blob and then the metadata of one of the caller's documents.
//
//	@Summary	Delete a document
//	@Tags		documents
//	@Produce	json
//	@Param		X-CSRF-Token	header	string	true	"Identity token"
//	@Param		id				path	string	true	"Document ID"
//	@Success	200	{object}	messageResponse
//	@Failure	404	{object}	errorPayload
//	@Failure	500	{object}	errorPayload
//	@Router		/documents/{id} [delete]
func DeleteDocument(svc service.DocumentService, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		user := middleware.UserFromCtx(c)
		if user == nil {
			return respondError(c, logger, "delete", id, identity.ErrInvalidToken)
		}
		if err := svc.Delete(c.UserContext(), user.ID, id); err != nil {
			return respondError(c, logger, "delete", id, err)
		}
		return c.JSON(messageResponse{Message: "Document deleted successfully"})
	}
}
