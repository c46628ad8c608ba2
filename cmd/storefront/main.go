package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fjod/go_cart/storefront/internal/address"
	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/blob"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/events"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/logging"
	"github.com/fjod/go_cart/storefront/internal/orders"
	"github.com/fjod/go_cart/storefront/internal/storefront"
	"github.com/fjod/go_cart/storefront/internal/upstream"
	redisotel "github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// storedSessionTTL bounds how long the Redis backend keeps a session's blobs.
const storedSessionTTL = 30 * 24 * time.Hour

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	var redisClient *redis.Client
	if cfg.StorageBackend == config.StorageRedis || cfg.CatalogCache {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		closers = append(closers, func() { redisClient.Close() })
		if err := redisotel.InstrumentTracing(redisClient); err != nil {
			log.WithError(err).Warn("failed to instrument Redis tracing")
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			if cfg.StorageBackend == config.StorageRedis {
				log.WithError(err).Fatal("Redis connection failed")
			}
			log.WithError(err).Warn("Redis unavailable, catalog cache disabled")
			redisClient = nil
		} else {
			log.WithField("addr", cfg.RedisAddr).Info("Redis ping succeeded")
		}
	}

	store, closeStore, err := openStore(ctx, cfg, redisClient, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open storage")
	}
	closers = append(closers, closeStore)

	var source catalog.Source
	switch cfg.ProductSource {
	case config.SourceDummyJSON:
		source = catalog.NewDummyJSON(upstream.New("dummyjson", cfg.DummyJSONURL, cfg.UpstreamTimeout, log))
	default:
		source = catalog.NewFakeStore(upstream.New("fakestore", cfg.FakeStoreURL, cfg.UpstreamTimeout, log))
	}
	if cfg.CatalogCache && redisClient != nil {
		source = catalog.NewCached(source, catalog.NewRedisCache(redisClient, cfg.ProductSource), log)
	}
	geo := address.NewGeo(upstream.New("countriesnow", cfg.CountriesURL, cfg.UpstreamTimeout, log))

	// Checkouts reach the order history through Kafka when brokers are
	// configured and directly otherwise.
	history := orders.NewHistory(store, log)
	var sink events.Sink = history
	if len(cfg.KafkaBrokers) > 0 {
		sink = events.NewKafkaPublisher(log, cfg.KafkaBrokers...)
		log.WithField("brokers", cfg.KafkaBrokers).Info("checkout events go to Kafka")

		consumer := orders.NewKafkaConsumer(history, log, cfg.KafkaBrokers...)
		consumerCtx, stopConsumer := context.WithCancel(context.Background())
		consumerDone := make(chan struct{})
		go func() {
			defer close(consumerDone)
			consumer.Run(consumerCtx)
		}()
		closers = append(closers, func() {
			stopConsumer()
			<-consumerDone
			if err := consumer.Close(); err != nil {
				log.WithError(err).Warn("failed to close order consumer")
			}
		})
	}
	closers = append(closers, func() {
		if err := sink.Close(); err != nil {
			log.WithError(err).Warn("failed to close checkout sink")
		}
	})

	registry := storefront.NewRegistry(storefront.Deps{
		Blobs:    store,
		Tokens:   auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		Checkout: sink,
		Log:      log,
	}, storefront.WithIdleTTL(cfg.SessionIdleTTL))
	closers = append(closers, registry.Close)

	router := h.NewRouter(h.RouterConfig{
		Sessions:       registry,
		Catalog:        source,
		Geo:            geo,
		Orders:         history,
		RequestTimeout: cfg.RequestTimeout,
		MaxBodySize:    cfg.MaxRequestBodySize,
		Log:            log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":    cfg.HTTPPort,
			"storage": cfg.StorageBackend,
			"source":  cfg.ProductSource,
		}).Info("storefront starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}

	log.Info("server exited")
}

// openStore connects the configured blob backend and returns its release
// function.
func openStore(ctx context.Context, cfg *config.Config, redisClient *redis.Client, log logrus.FieldLogger) (blob.Store, func(), error) {
	switch cfg.StorageBackend {
	case config.StorageRedis:
		return blob.NewRedis(redisClient, storedSessionTTL), func() {}, nil

	case config.StorageMongo:
		db, err := blob.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		store := blob.NewMongo(db)
		if err := store.CreateIndexes(ctx); err != nil {
			log.WithError(err).Warn("failed to create blob indexes")
		}
		log.WithField("uri", cfg.MongoURI).Info("connected to MongoDB")
		return store, func() { db.Client().Disconnect(context.Background()) }, nil

	case config.StorageSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, err
			}
		}
		store, err := blob.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := store.RunMigrations(); err != nil {
			store.Close()
			return nil, nil, err
		}
		log.WithField("path", cfg.SQLitePath).Info("SQLite storage ready")
		return store, func() { store.Close() }, nil

	default:
		log.Warn("using in-memory storage, sessions are lost on restart")
		return blob.NewMemory(), func() {}, nil
	}
}
