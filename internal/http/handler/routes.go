package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/database"
	"docvault/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Static document paths are registered before /documents/:id so they win.
func RegisterRoutes(app *fiber.App, db database.Pinger, docSvc service.DocumentService, auth fiber.Handler, logger *slog.Logger) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	docs := app.Group("/documents", auth)
	docs.Post("/upload", UploadDocument(docSvc, logger))
	docs.Get("", ListDocuments(docSvc, logger))
	docs.Get("/search", SearchDocuments(docSvc, logger))
	docs.Get("/search/:filename", SearchByFilename(docSvc, logger))
	docs.Get("/:id", GetDocument(docSvc, logger))
	docs.Delete("/:id", DeleteDocument(docSvc, logger))
}
