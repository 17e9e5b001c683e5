package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"docvault/internal/events"
	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/storage"
)

// memRepo is an in-memory DocumentRepository honoring the owner predicate.
type memRepo struct {
	mu   sync.Mutex
	docs []model.Document
	seq  int
}

func (r *memRepo) Create(ctx context.Context, d *model.Document) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	cp := *d
	if cp.ID == "" {
		cp.ID = fmt.Sprintf("doc-%03d", r.seq)
	}
	r.docs = append(r.docs, cp)
	return &cp, nil
}

func (r *memRepo) FindByID(ctx context.Context, ownerID, id string) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.ID == id && d.OwnerID == ownerID {
			cp := d
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memRepo) owned(ownerID string, match func(model.Document) bool) []model.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Document
	for _, d := range r.docs {
		if d.OwnerID == ownerID && match(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func window[T any](items []T, pq repository.PageQuery) []T {
	if pq.Offset >= len(items) {
		return []T{}
	}
	end := pq.Offset + pq.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[pq.Offset:end]
}

func (r *memRepo) ListByOwner(ctx context.Context, ownerID string, pq repository.PageQuery) ([]model.DocumentSummary, error) {
	docs := window(r.owned(ownerID, func(model.Document) bool { return true }), pq)
	out := make([]model.DocumentSummary, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].Summary())
	}
	return out, nil
}

func (r *memRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	return len(r.owned(ownerID, func(model.Document) bool { return true })), nil
}

func (r *memRepo) Search(ctx context.Context, ownerID string, sq repository.SearchQuery) ([]model.Document, error) {
	needle := strings.ToLower(sq.Text)
	contains := func(s string) bool { return strings.Contains(strings.ToLower(s), needle) }
	docs := r.owned(ownerID, func(d model.Document) bool {
		if contains(d.Name) {
			return true
		}
		if sq.NameOnly {
			return false
		}
		if contains(d.Description) {
			return true
		}
		for _, tag := range d.Tags {
			if contains(tag) {
				return true
			}
		}
		return false
	})
	return window(docs, sq.PageQuery), nil
}

func (r *memRepo) Delete(ctx context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, d := range r.docs {
		if d.ID == id && d.OwnerID == ownerID {
			r.docs = append(r.docs[:i], r.docs[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// memStore is an in-memory BlobStore. Deleting an absent object succeeds.
type memStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleteErr error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) Authorize(ctx context.Context) error { return nil }

func (s *memStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (storage.Object, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return storage.Object{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = body
	return storage.Object{ID: "v-" + key, Name: key}, nil
}

func (s *memStore) DownloadURL(objectName string) (string, error) {
	return "http://blobs.local/docs/" + objectName, nil
}

func (s *memStore) Delete(ctx context.Context, objectID, objectName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, objectName)
	return nil
}

// recordingPublisher keeps published events in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }
