package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/smkmitra/pkl-location-service/internal/adapter/backend"
	httpadapter "github.com/smkmitra/pkl-location-service/internal/adapter/http"
	kafkaadapter "github.com/smkmitra/pkl-location-service/internal/adapter/kafka"
	"github.com/smkmitra/pkl-location-service/internal/adapter/nominatim"
	"github.com/smkmitra/pkl-location-service/internal/config"
	"github.com/smkmitra/pkl-location-service/internal/enrich"
	"github.com/smkmitra/pkl-location-service/internal/geocache"
	"github.com/smkmitra/pkl-location-service/internal/mapview"
	"github.com/smkmitra/pkl-location-service/internal/notify"
	"github.com/smkmitra/pkl-location-service/internal/observability"
	"github.com/smkmitra/pkl-location-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Geocode cache: in-process map persisted to the configured store.
	var store geocache.Store
	var redisClient *redis.Client
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store = geocache.NewRedisStore(redisClient, cfg.CacheKey, cfg.CacheTTL)
		logger.Info("redis geocode cache enabled", "addr", cfg.RedisAddr, "key", cfg.CacheKey)
	default:
		store = geocache.NewMemoryStore()
		logger.Info("in-memory geocode cache enabled")
	}
	cache := geocache.New(ctx, store, logger)

	// Resolver is feature-flagged; cached coordinates still serve when off.
	var resolver enrich.Resolver
	if cfg.GeocodeEnabled {
		resolver = nominatim.NewClient(cfg.GeocodeBaseURL, cfg.GeocodeUserAgent, cfg.GeocodeTimeout, metrics, logger)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("nominatim geocoding enabled", "base_url", cfg.GeocodeBaseURL, "delay", cfg.GeocodeDelay)
	} else {
		metrics.GeocodeEnabled.Set(0)
		logger.Info("nominatim geocoding disabled")
	}

	notices := notify.NewRecorder(64)
	notifier := notify.Multi{notify.NewLogNotifier(logger), notices}

	enricher := enrich.New(resolver, cache, notifier, metrics, logger, cfg.GeocodeDelay)
	mapctl := mapview.NewController(metrics, logger)
	fetcher := backend.NewClient(cfg.BackendBaseURL, cfg.CompaniesEndpoint, cfg.BackendTimeout, logger)

	var publisher pipeline.EventPublisher
	var kafkaWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		kafkaWriter = kafkaadapter.NewWriter(cfg, logger)
		publisher = kafkaWriter
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	svc := pipeline.New(fetcher, enricher, publisher, mapctl, notifier, logger, metrics, cfg.RefreshInterval)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, mapctl, notices, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start refresh loop.
	go func() {
		if err := svc.Run(ctx); err != nil {
			logger.Error("refresh loop error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
