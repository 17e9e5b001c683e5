package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docvault/internal/config"
)

// mongoIndexModels returns the indexes of the documents and users collections.
func mongoIndexModels() (documents, users []mongo.IndexModel) {
	documents = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("owner_created_at"),
		},
		{
			Keys:    bson.D{{Key: "storage_key", Value: 1}},
			Options: options.Index().SetName("storage_key_unique").SetUnique(true),
		},
	}
	users = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "reg_number", Value: 1}},
			Options: options.Index().SetName("reg_number_unique").SetUnique(true),
		},
	}
	return documents, users
}

// EnsureMongoIndexes creates the collection indexes. createIndexes is idempotent in MongoDB.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database, c config.MongoConfig, logger *slog.Logger) error {
	start := time.Now()
	logger = logger.With("component", "database", "db_name", db.Name())

	documents, users := mongoIndexModels()
	targets := []struct {
		collection string
		models     []mongo.IndexModel
	}{
		{c.DocumentsCollection, documents},
		{c.UsersCollection, users},
	}

	for _, target := range targets {
		names, err := db.Collection(target.collection).Indexes().CreateMany(ctx, target.models)
		if err != nil {
			logger.Error("db_migration_failed", "status", "error",
				"collection", target.collection,
				"error_message", err.Error(),
				"duration_ms", time.Since(start).Milliseconds())
			return fmt.Errorf("create indexes on %s: %w", target.collection, err)
		}
		logger.Info("db_migration_step", "status", "success",
			"collection", target.collection,
			"indexes", names)
	}

	logger.Info("db_migration_success", "status", "success",
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}
