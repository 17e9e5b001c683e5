package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docvault/internal/model"
	"docvault/internal/repository"
)

type userRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	RegNumber  string             `bson:"reg_number"`
	Name       string             `bson:"name"`
	Mobile     string             `bson:"mobile"`
	Program    string             `bson:"program"`
	Semester   int                `bson:"semester"`
	Batch      string             `bson:"batch"`
	Year       int                `bson:"year"`
	Department string             `bson:"department"`
	Section    string             `bson:"section"`
	PhotoURL   string             `bson:"photo_url"`
	LastLogin  time.Time          `bson:"last_login"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

// UserMongo keeps the local user directory in a MongoDB collection.
type UserMongo struct {
	collection *mongo.Collection
}

func NewUserMongo(collection *mongo.Collection) *UserMongo {
	return &UserMongo{collection: collection}
}

var _ repository.UserRepository = (*UserMongo)(nil)

// Upsert refreshes the profile keyed by reg_number, creating it on first sight.
func (r *UserMongo) Upsert(ctx context.Context, u *model.User) (*model.User, error) {
	now := u.UpdatedAt
	if now.IsZero() {
		now = u.LastLogin
	}

	update := bson.M{
		"$set": bson.M{
			"name":       u.Name,
			"mobile":     u.Mobile,
			"program":    u.Program,
			"semester":   u.Semester,
			"batch":      u.Batch,
			"year":       u.Year,
			"department": u.Department,
			"section":    u.Section,
			"photo_url":  u.PhotoURL,
			"last_login": u.LastLogin,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var rec userRecord
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"reg_number": u.RegNumber}, update, opts).Decode(&rec); err != nil {
		return nil, err
	}

	return &model.User{
		ID:         rec.ID.Hex(),
		RegNumber:  rec.RegNumber,
		Name:       rec.Name,
		Mobile:     rec.Mobile,
		Program:    rec.Program,
		Semester:   rec.Semester,
		Batch:      rec.Batch,
		Year:       rec.Year,
		Department: rec.Department,
		Section:    rec.Section,
		PhotoURL:   rec.PhotoURL,
		LastLogin:  rec.LastLogin,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}, nil
}
