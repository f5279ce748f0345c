package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Dashboard backend (facility source).
	BackendBaseURL    string
	BackendTimeout    time.Duration
	CompaniesEndpoint string
	RefreshInterval   time.Duration

	// Geocoding.
	GeocodeEnabled   bool
	GeocodeBaseURL   string
	GeocodeUserAgent string
	GeocodeTimeout   time.Duration
	GeocodeDelay     time.Duration

	// Geocode cache persistence.
	CacheBackend  string
	CacheKey      string
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Resolved-location event publishing.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	backendTimeout, err := durationEnv("BACKEND_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	refreshInterval, err := durationEnv("REFRESH_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := durationEnv("GEOCODE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	geocodeDelay, err := delayEnv("GEOCODE_DELAY", 400*time.Millisecond)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := durationEnv("CACHE_TTL", 12*time.Hour)
	if err != nil {
		return nil, err
	}
	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	kafkaBrokers := splitList(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(kafkaBrokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	geocodeEnabled := true
	if v := os.Getenv("GEOCODE_ENABLED"); v != "" {
		geocodeEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		BackendBaseURL:    envOrDefault("BACKEND_BASE_URL", "http://localhost:8000/api"),
		BackendTimeout:    backendTimeout,
		CompaniesEndpoint: envOrDefault("COMPANIES_ENDPOINT", "companie"),
		RefreshInterval:   refreshInterval,

		GeocodeEnabled:   geocodeEnabled,
		GeocodeBaseURL:   envOrDefault("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocodeUserAgent: envOrDefault("GEOCODE_USER_AGENT", "PKL-Location-Mapper/1.0"),
		GeocodeTimeout:   geocodeTimeout,
		GeocodeDelay:     geocodeDelay,

		CacheBackend:  envOrDefault("CACHE_BACKEND", CacheBackendMemory),
		CacheKey:      envOrDefault("CACHE_KEY", "companyGeocodeCache_v1"),
		CacheTTL:      cacheTTL,
		RedisAddr:     envOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: kafkaBrokers,
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "pkl-resolved-locations"),
	}

	if cfg.BackendBaseURL == "" {
		return nil, fmt.Errorf("BACKEND_BASE_URL is required")
	}
	if cfg.CompaniesEndpoint == "" {
		return nil, fmt.Errorf("COMPANIES_ENDPOINT is required")
	}
	if cfg.GeocodeEnabled && cfg.GeocodeBaseURL == "" {
		return nil, fmt.Errorf("GEOCODE_BASE_URL is required when geocoding is enabled")
	}
	if cfg.CacheBackend != CacheBackendMemory && cfg.CacheBackend != CacheBackendRedis {
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q: must be %q or %q",
			cfg.CacheBackend, CacheBackendMemory, CacheBackendRedis)
	}
	if cfg.CacheBackend == CacheBackendRedis && cfg.RedisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND is redis")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, fmt.Errorf("KAFKA_TOPIC is required when Kafka publishing is enabled")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// durationEnv parses a positive duration from the environment.
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

// delayEnv parses a non-negative duration; zero disables the inter-request
// pause, which is useful in tests and one-shot tools.
func delayEnv(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
