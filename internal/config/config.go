package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported metadata store drivers.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Supported object storage providers.
const (
	ProviderMinIO = "minio"
	ProviderS3    = "s3"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Driver             string
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI                 string
	Database            string
	DocumentsCollection string
	UsersCollection     string
	MaxPoolSize         uint64
	ConnectTimeout      time.Duration
}

// StorageConfig selects the object storage backend.
type StorageConfig struct {
	Provider string
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL overrides the endpoint used to build download URLs.
	PublicURL string
}

// S3Config holds object storage settings for AWS S3 or any S3-compatible endpoint.
type S3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
	// UploadURLExpiry bounds the lifetime of the presigned upload target.
	UploadURLExpiry time.Duration
}

// UploadConfig holds limits for incoming files.
type UploadConfig struct {
	MaxBytes int64
}

// PaginationConfig controls page sizes and the response-time budget of read queries.
type PaginationConfig struct {
	DefaultLimit  int
	MaxLimit      int
	ListDeadline  time.Duration
	QueryDeadline time.Duration
}

// IdentityConfig points at the upstream token introspection service.
type IdentityConfig struct {
	URL      string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// RedisConfig holds the optional identity cache connection.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig holds the optional lifecycle event sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost    string
	Port       string
	Timezone   string
	LogLevel   string
	Database   DatabaseConfig
	Mongo      MongoConfig
	Storage    StorageConfig
	MinIO      MinIOConfig
	S3         S3Config
	Upload     UploadConfig
	Pagination PaginationConfig
	Identity   IdentityConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"),
		Timezone: getEnv("APP_TIMEZONE", "UTC"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Driver:             getEnv("DB_DRIVER", DriverPostgres),
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Mongo: MongoConfig{
			URI:                 getEnv("MONGO_URI", ""),
			Database:            getEnv("MONGO_DATABASE", "docvault"),
			DocumentsCollection: getEnv("MONGO_DOCUMENTS_COLLECTION", "documents"),
			UsersCollection:     getEnv("MONGO_USERS_COLLECTION", "users"),
			MaxPoolSize:         uint64(getEnvInt("MONGO_MAX_POOL_SIZE", 10)),
			ConnectTimeout:      getEnvDuration("MONGO_CONNECT_TIMEOUT", 15*time.Second),
		},
		Storage: StorageConfig{
			Provider: getEnv("STORAGE_PROVIDER", ProviderMinIO),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			PublicURL: getEnv("MINIO_PUBLIC_URL", ""),
		},
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKey:       getEnv("S3_ACCESS_KEY", ""),
			SecretKey:       getEnv("S3_SECRET_KEY", ""),
			Bucket:          getEnv("S3_BUCKET", ""),
			PublicURL:       getEnv("S3_PUBLIC_URL", ""),
			UploadURLExpiry: getEnvDuration("S3_UPLOAD_URL_EXPIRY", 15*time.Minute),
		},
		Upload: UploadConfig{
			MaxBytes: getEnvInt64("UPLOAD_MAX_BYTES", 10*1024*1024),
		},
		Pagination: PaginationConfig{
			DefaultLimit:  getEnvInt("PAGINATION_DEFAULT_LIMIT", 10),
			MaxLimit:      getEnvInt("PAGINATION_MAX_LIMIT", 50),
			ListDeadline:  getEnvDuration("LIST_DEADLINE", 15*time.Second),
			QueryDeadline: getEnvDuration("QUERY_DEADLINE", 25*time.Second),
		},
		Identity: IdentityConfig{
			URL:      getEnv("IDENTITY_URL", ""),
			Timeout:  getEnvDuration("IDENTITY_TIMEOUT", 10*time.Second),
			CacheTTL: getEnvDuration("IDENTITY_CACHE_TTL", 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "document-events"),
		},
	}
}

// Location resolves the configured timezone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}

// getEnvDuration accepts Go duration strings ("15s") or a bare number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
