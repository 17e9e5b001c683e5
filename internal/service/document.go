package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docvault/internal/config"
	"docvault/internal/events"
	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/storage"
)

var (
	// ErrValidation is the parent of every input error. Match with errors.Is.
	ErrValidation    = errors.New("validation error")
	ErrNoFile        = fmt.Errorf("%w: no file", ErrValidation)
	ErrFileTooLarge  = fmt.Errorf("%w: file too large", ErrValidation)
	ErrQueryRequired = fmt.Errorf("%w: query required", ErrValidation)

	// ErrNotFound covers missing, malformed and foreign document ids alike.
	ErrNotFound = errors.New("document not found")
	// ErrDeadlineExceeded is returned when a read query outruns its budget.
	ErrDeadlineExceeded = errors.New("query deadline exceeded")
)

const publishTimeout = 5 * time.Second

// Options tunes limits and deadlines of the document service.
type Options struct {
	MaxUploadBytes int64
	DefaultLimit   int
	MaxLimit       int
	ListDeadline   time.Duration
	QueryDeadline  time.Duration
}

// OptionsFromConfig maps application configuration onto service options.
func OptionsFromConfig(cfg *config.AppConfig) Options {
	return Options{
		MaxUploadBytes: cfg.Upload.MaxBytes,
		DefaultLimit:   cfg.Pagination.DefaultLimit,
		MaxLimit:       cfg.Pagination.MaxLimit,
		ListDeadline:   cfg.Pagination.ListDeadline,
		QueryDeadline:  cfg.Pagination.QueryDeadline,
	}
}

// DocumentService defines the use cases for handling documents.
// Every method is scoped to one owner; documents of other owners are invisible.
type DocumentService interface {
	// Upload writes the blob, then the metadata, and rolls the blob back if the metadata write fails.
	Upload(ctx context.Context, in UploadInput) (*model.DocumentView, error)

	// List returns a page of summaries, newest first, under the list deadline.
	List(ctx context.Context, ownerID string, pr PageRequest) (*ListResult, error)

	// Search matches query against name, description and tags.
	Search(ctx context.Context, ownerID, query string, pr PageRequest) (*SearchResult, error)

	// SearchByFilename matches filename against the display name only.
	SearchByFilename(ctx context.Context, ownerID, filename string, pr PageRequest) ([]model.DocumentView, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, ownerID, id string) (*model.DocumentView, error)

	// Delete removes the blob, then the metadata. A failed blob delete keeps the metadata.
	Delete(ctx context.Context, ownerID, id string) error
}

type documentService struct {
	store     storage.BlobStore
	repo      repository.DocumentRepository
	publisher events.Publisher
	logger    *slog.Logger
	opts      Options
	now       func() time.Time
}

// NewDocumentService constructs a new DocumentService. A nil publisher disables events.
func NewDocumentService(store storage.BlobStore, repo repository.DocumentRepository, publisher events.Publisher, logger *slog.Logger, opts Options) DocumentService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 10
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = opts.DefaultLimit
	}
	return &documentService{
		store:     store,
		repo:      repo,
		publisher: publisher,
		logger:    logger.With("component", "document_service"),
		opts:      opts,
		now:       time.Now,
	}
}

func (s *documentService) List(ctx context.Context, ownerID string, pr PageRequest) (*ListResult, error) {
	page, limit := pr.normalize(s.opts.DefaultLimit, s.opts.MaxLimit)
	offset := (page - 1) * limit
	scope := repository.ForOwner(s.repo, ownerID)

	items, err := withDeadline(ctx, s.opts.ListDeadline, func(ctx context.Context) ([]model.DocumentSummary, error) {
		return scope.List(ctx, repository.PageQuery{Limit: limit + 1, Offset: offset})
	})
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}
	p := Pagination{Page: page, Limit: limit, HasMore: hasMore}

	switch {
	case hasMore:
	case len(items) > 0 || offset == 0:
		p.setTotal(offset+len(items), limit)
	default:
		total, err := withDeadline(ctx, s.opts.ListDeadline, scope.Count)
		if err != nil {
			s.logger.WarnContext(ctx, "document_count_failed",
				"operation", "list", "user_id", ownerID, "error", err.Error())
			break
		}
		p.setTotal(total, limit)
	}

	return &ListResult{Documents: items, Pagination: p}, nil
}

func (s *documentService) Search(ctx context.Context, ownerID, query string, pr PageRequest) (*SearchResult, error) {
	text := strings.TrimSpace(query)
	if text == "" {
		return nil, ErrQueryRequired
	}
	page, limit := pr.normalize(s.opts.DefaultLimit, s.opts.MaxLimit)

	docs, hasMore, err := s.search(ctx, ownerID, text, false, page, limit)
	if err != nil {
		return nil, err
	}
	return &SearchResult{
		Documents:  docs,
		Pagination: Pagination{Page: page, Limit: limit, HasMore: hasMore},
	}, nil
}

func (s *documentService) SearchByFilename(ctx context.Context, ownerID, filename string, pr PageRequest) ([]model.DocumentView, error) {
	text := strings.TrimSpace(filename)
	if text == "" {
		return nil, ErrQueryRequired
	}
	page, limit := pr.normalize(s.opts.DefaultLimit, s.opts.MaxLimit)

	docs, _, err := s.search(ctx, ownerID, text, true, page, limit)
	return docs, err
}

func (s *documentService) search(ctx context.Context, ownerID, text string, nameOnly bool, page, limit int) ([]model.DocumentView, bool, error) {
	scope := repository.ForOwner(s.repo, ownerID)
	sq := repository.SearchQuery{
		Text:      text,
		NameOnly:  nameOnly,
		PageQuery: repository.PageQuery{Limit: limit + 1, Offset: (page - 1) * limit},
	}

	found, err := withDeadline(ctx, s.opts.QueryDeadline, func(ctx context.Context) ([]model.Document, error) {
		return scope.Search(ctx, sq)
	})
	if err != nil {
		return nil, false, err
	}

	hasMore := len(found) > limit
	if hasMore {
		found = found[:limit]
	}
	views := make([]model.DocumentView, 0, len(found))
	for i := range found {
		views = append(views, found[i].View())
	}
	return views, hasMore, nil
}

func (s *documentService) Get(ctx context.Context, ownerID, id string) (*model.DocumentView, error) {
	scope := repository.ForOwner(s.repo, ownerID)

	doc, err := withDeadline(ctx, s.opts.QueryDeadline, func(ctx context.Context) (*model.Document, error) {
		return scope.Find(ctx, id)
	})
	if err != nil {
		return nil, notFound(err)
	}
	view := doc.View()
	return &view, nil
}

func (s *documentService) Delete(ctx context.Context, ownerID, id string) error {
	scope := repository.ForOwner(s.repo, ownerID)

	doc, err := scope.Find(ctx, id)
	if err != nil {
		return notFound(err)
	}

	if err := s.store.Delete(ctx, doc.ObjectID, doc.ObjectName); err != nil {
		s.logger.ErrorContext(ctx, "storage_delete_failed",
			"operation", "delete", "user_id", ownerID, "document_id", id,
			"object_key", doc.ObjectName, "error", err.Error())
		return err
	}

	if err := scope.Delete(ctx, id); err != nil {
		return notFound(err)
	}

	s.publish(ctx, events.DocumentDeleted, doc)
	return nil
}

// publish emits an event with a bounded, detached context. Failures are logged only.
func (s *documentService) publish(ctx context.Context, eventType string, doc *model.Document) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := events.Event{
		Type:        eventType,
		DocumentID:  doc.ID,
		OwnerID:     doc.OwnerID,
		Name:        doc.Name,
		ContentType: doc.ContentType,
		Size:        doc.Size,
		OccurredAt:  s.now().UTC(),
	}
	if err := s.publisher.Publish(pctx, event); err != nil {
		s.logger.WarnContext(ctx, "event_publish_failed",
			"event_type", eventType, "document_id", doc.ID, "error", err.Error())
	}
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
