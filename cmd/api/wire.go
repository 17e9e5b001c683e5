package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"docvault/internal/config"
	"docvault/internal/database"
	"docvault/internal/database/migration"
	"docvault/internal/events"
	"docvault/internal/identity"
	"docvault/internal/repository"
	"docvault/internal/repository/mongodb"
	"docvault/internal/repository/postgres"
	"docvault/internal/storage"
)

const startupTimeout = 30 * time.Second

type metadata struct {
	documents repository.DocumentRepository
	users     repository.UserRepository
	pinger    database.Pinger
	close     func()
}

// openMetadata connects the configured metadata store and brings its schema up to date.
func openMetadata(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := migration.EnsureMigrated(ctx, db, logger, cfg.Database.Host); err != nil {
			db.Close()
			return nil, err
		}
		return &metadata{
			documents: postgres.NewDocumentPostgres(db),
			users:     postgres.NewUserPostgres(db),
			pinger:    db,
			close:     func() { db.Close() },
		}, nil

	case config.DriverMongo:
		client, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		mdb := client.Database(cfg.Mongo.Database)
		if err := migration.EnsureMongoIndexes(ctx, mdb, cfg.Mongo, logger); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &metadata{
			documents: mongodb.NewDocumentMongo(mdb.Collection(cfg.Mongo.DocumentsCollection)),
			users:     mongodb.NewUserMongo(mdb.Collection(cfg.Mongo.UsersCollection)),
			pinger:    database.MongoPinger{Client: client},
			close: func() {
				dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = client.Disconnect(dctx)
			},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
}

// newBlobStore builds the configured provider. No network call happens until the first Authorize.
func newBlobStore(ctx context.Context, cfg *config.AppConfig) (storage.BlobStore, error) {
	switch cfg.Storage.Provider {
	case config.ProviderMinIO:
		return storage.NewMinIO(cfg.MinIO)
	case config.ProviderS3:
		return storage.NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported STORAGE_PROVIDER %q", cfg.Storage.Provider)
	}
}

func newPublisher(cfg *config.AppConfig, logger *slog.Logger) events.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("events_disabled", "component", "events")
		return events.Noop{}
	}
	logger.Info("events_enabled", "component", "events", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	return events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
}

// newResolver wires the identity lookup, with a Redis profile cache when REDIS_ADDR is set.
func newResolver(ctx context.Context, cfg *config.AppConfig, users repository.UserRepository, logger *slog.Logger) (*identity.Resolver, func(), error) {
	lookup, err := identity.NewHTTPClient(cfg.Identity.URL, cfg.Identity.Timeout)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Redis.Addr == "" {
		return identity.NewResolver(lookup, nil, users, logger), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		logger.Warn("identity_cache_unreachable", "component", "identity", "addr", cfg.Redis.Addr, "error", err.Error())
	}

	cache := identity.NewRedisCache(rdb, cfg.Identity.CacheTTL)
	return identity.NewResolver(lookup, cache, users, logger), func() { _ = rdb.Close() }, nil
}
