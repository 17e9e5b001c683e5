// Package mongodb implements the repository interfaces on top of MongoDB collections.
package mongodb

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docvault/internal/model"
	"docvault/internal/repository"
)

type documentRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID     string             `bson:"owner_id"`
	StorageKey  string             `bson:"storage_key"`
	Name        string             `bson:"name"`
	ContentType string             `bson:"content_type"`
	Size        int64              `bson:"size"`
	ObjectID    string             `bson:"object_id"`
	ObjectName  string             `bson:"object_name"`
	DownloadURL string             `bson:"download_url"`
	Description string             `bson:"description"`
	Tags        []string           `bson:"tags"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (r documentRecord) toModel() model.Document {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return model.Document{
		ID:          r.ID.Hex(),
		OwnerID:     r.OwnerID,
		StorageKey:  r.StorageKey,
		Name:        r.Name,
		ContentType: r.ContentType,
		Size:        r.Size,
		ObjectID:    r.ObjectID,
		ObjectName:  r.ObjectName,
		DownloadURL: r.DownloadURL,
		Description: r.Description,
		Tags:        tags,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type summaryRecord struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	ContentType string             `bson:"content_type"`
	Size        int64              `bson:"size"`
	DownloadURL string             `bson:"download_url"`
	CreatedAt   time.Time          `bson:"created_at"`
}

var (
	newestFirst       = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	summaryProjection = bson.M{"_id": 1, "name": 1, "content_type": 1, "size": 1, "download_url": 1, "created_at": 1}
)

// DocumentMongo stores document metadata in a MongoDB collection.
type DocumentMongo struct {
	collection *mongo.Collection
}

// NewDocumentMongo creates a repository backed by the given collection.
func NewDocumentMongo(collection *mongo.Collection) *DocumentMongo {
	return &DocumentMongo{collection: collection}
}

var _ repository.DocumentRepository = (*DocumentMongo)(nil)

func (r *DocumentMongo) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	id := primitive.NewObjectID()
	if doc.ID != "" {
		parsed, err := primitive.ObjectIDFromHex(doc.ID)
		if err != nil {
			return nil, err
		}
		id = parsed
	}

	rec := documentRecord{
		ID:          id,
		OwnerID:     doc.OwnerID,
		StorageKey:  doc.StorageKey,
		Name:        doc.Name,
		ContentType: doc.ContentType,
		Size:        doc.Size,
		ObjectID:    doc.ObjectID,
		ObjectName:  doc.ObjectName,
		DownloadURL: doc.DownloadURL,
		Description: doc.Description,
		Tags:        doc.Tags,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}

	if _, err := r.collection.InsertOne(ctx, rec); err != nil {
		return nil, err
	}
	out := rec.toModel()
	return &out, nil
}

func (r *DocumentMongo) FindByID(ctx context.Context, ownerID, id string) (*model.Document, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	var rec documentRecord
	err = r.collection.FindOne(ctx, bson.M{"_id": oid, "owner_id": ownerID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	out := rec.toModel()
	return &out, nil
}

func (r *DocumentMongo) ListByOwner(ctx context.Context, ownerID string, pq repository.PageQuery) ([]model.DocumentSummary, error) {
	opts := options.Find().
		SetSort(newestFirst).
		SetSkip(int64(pq.Offset)).
		SetLimit(int64(pq.Limit)).
		SetProjection(summaryProjection)

	cur, err := r.collection.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	items := make([]model.DocumentSummary, 0)
	for cur.Next(ctx) {
		var rec summaryRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, err
		}
		items = append(items, model.DocumentSummary{
			ID:          rec.ID.Hex(),
			Name:        rec.Name,
			ContentType: rec.ContentType,
			Size:        rec.Size,
			DownloadURL: rec.DownloadURL,
			CreatedAt:   rec.CreatedAt,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *DocumentMongo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Search matches a case-insensitive literal regex against the name, description and tags.
func (r *DocumentMongo) Search(ctx context.Context, ownerID string, sq repository.SearchQuery) ([]model.Document, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(sq.Text), Options: "i"}

	filter := bson.M{"owner_id": ownerID}
	if sq.NameOnly {
		filter["name"] = pattern
	} else {
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
			bson.M{"tags": pattern},
		}
	}

	opts := options.Find().
		SetSort(newestFirst).
		SetSkip(int64(sq.Offset)).
		SetLimit(int64(sq.Limit))

	return r.findMany(ctx, filter, opts)
}

func (r *DocumentMongo) Delete(ctx context.Context, ownerID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid, "owner_id": ownerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *DocumentMongo) findMany(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]model.Document, error) {
	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	docs := make([]model.Document, 0)
	for cur.Next(ctx) {
		var rec documentRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, err
		}
		docs = append(docs, rec.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}
