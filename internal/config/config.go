// Package config reads the storefront's settings from the environment.
package config

import (
	"os"
	"strings"
	"time"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageMongo  = "mongo"
	StorageSQLite = "sqlite"
)

// Product sources accepted by PRODUCT_SOURCE.
const (
	SourceFakeStore = "fakestore"
	SourceDummyJSON = "dummyjson"
)

type Config struct {
	HTTPPort           string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64

	StorageBackend string
	RedisAddr      string
	RedisPassword  string
	MongoURI       string
	MongoDBName    string
	SQLitePath     string

	KafkaBrokers []string

	ProductSource   string
	FakeStoreURL    string
	DummyJSONURL    string
	CountriesURL    string
	UpstreamTimeout time.Duration
	CatalogCache    bool

	JWTSecret      string
	TokenTTL       time.Duration
	SessionIdleTTL time.Duration

	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:    10 * time.Second,
		MaxRequestBodySize: 1 << 20, // 1MB

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", StorageMemory)),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:    getEnv("MONGO_DB_NAME", "storefront"),
		SQLitePath:     getEnv("SQLITE_PATH", "./data/storefront.db"),

		KafkaBrokers: getList("KAFKA_BROKERS"),

		ProductSource:   strings.ToLower(getEnv("PRODUCT_SOURCE", SourceFakeStore)),
		FakeStoreURL:    getEnv("FAKESTORE_URL", "https://fakestoreapi.com"),
		DummyJSONURL:    getEnv("DUMMYJSON_URL", "https://dummyjson.com"),
		CountriesURL:    getEnv("COUNTRIES_URL", "https://countriesnow.space/api/v0.1"),
		UpstreamTimeout: getDuration("UPSTREAM_TIMEOUT", 5*time.Second),
		CatalogCache:    getBool("CATALOG_CACHE", true),

		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:       getDuration("TOKEN_TTL", 24*time.Hour),
		SessionIdleTTL: getDuration("SESSION_IDLE_TTL", 30*time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d < 0 {
		return defaultValue
	}
	return d
}

func getBool(key string, defaultValue bool) bool {
	switch strings.ToLower(getEnv(key, "")) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// getList splits a comma separated variable, dropping empty parts.
func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
