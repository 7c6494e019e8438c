package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/couchcryptid/vessel-position-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Cache settings.
	CacheBackend       string // memory, redis or mongo
	CacheFreshness     time.Duration
	CacheMaxVessels    int
	CacheSweepInterval time.Duration

	// History settings.
	HistoryBackend      string // memory, sql or mongo
	HistorySQLDriver    string // sqlite, postgres or mysql
	HistorySQLDSN       string
	HistoryKafkaBrokers []string
	HistoryKafkaTopic   string // empty disables the Kafka mirror

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI      string
	MongoDatabase string

	// Provider settings.
	RapidAPIKey      string
	AISBaseURL       string
	AISHost          string
	WeatherAPIKey    string
	WeatherBaseURL   string
	MapboxToken      string
	MapboxBaseURL    string
	MLServiceURL     string
	ProviderTimeout  time.Duration
	InferenceTimeout time.Duration
	PersistTimeout   time.Duration

	VesselNames domain.StaticNames
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		CacheBackend:        sharedcfg.EnvOrDefault("CACHE_BACKEND", "memory"),
		HistoryBackend:      sharedcfg.EnvOrDefault("HISTORY_BACKEND", "memory"),
		HistorySQLDriver:    sharedcfg.EnvOrDefault("HISTORY_SQL_DRIVER", "sqlite"),
		HistorySQLDSN:       os.Getenv("HISTORY_SQL_DSN"),
		HistoryKafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("HISTORY_KAFKA_BROKERS", "localhost:9092")),
		HistoryKafkaTopic:   os.Getenv("HISTORY_KAFKA_TOPIC"),

		RedisAddr:     sharedcfg.EnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: sharedcfg.EnvOrDefault("MONGO_DATABASE", "vessels"),

		RapidAPIKey:    os.Getenv("RAPIDAPI_KEY"),
		AISBaseURL:     os.Getenv("AIS_BASE_URL"),
		AISHost:        os.Getenv("AIS_HOST"),
		WeatherAPIKey:  os.Getenv("WEATHER_API_KEY"),
		WeatherBaseURL: os.Getenv("WEATHER_BASE_URL"),
		MapboxToken:    os.Getenv("MAPBOX_ACCESS_TOKEN"),
		MapboxBaseURL:  os.Getenv("MAPBOX_BASE_URL"),
		MLServiceURL:   sharedcfg.EnvOrDefault("ML_SERVICE_URL", "http://127.0.0.1:5001/predict"),
	}

	for _, d := range []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"CACHE_FRESHNESS", "24h", &cfg.CacheFreshness},
		{"CACHE_SWEEP_INTERVAL", "10m", &cfg.CacheSweepInterval},
		{"PROVIDER_TIMEOUT", "5s", &cfg.ProviderTimeout},
		{"INFERENCE_TIMEOUT", "30s", &cfg.InferenceTimeout},
		{"PERSIST_TIMEOUT", "5s", &cfg.PersistTimeout},
	} {
		if *d.dst, err = parsePositiveDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	if cfg.CacheMaxVessels, err = parseInt("CACHE_MAX_VESSELS", 1000, 1); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = parseInt("REDIS_DB", 0, 0); err != nil {
		return nil, err
	}

	cfg.VesselNames, err = domain.ParseAliases(domain.DefaultNames(), os.Getenv("VESSEL_ALIASES"))
	if err != nil {
		return nil, fmt.Errorf("invalid VESSEL_ALIASES: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.CacheBackend {
	case "memory", "redis", "mongo":
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q: expected memory, redis or mongo", c.CacheBackend)
	}
	switch c.HistoryBackend {
	case "memory", "sql", "mongo":
	default:
		return fmt.Errorf("invalid HISTORY_BACKEND %q: expected memory, sql or mongo", c.HistoryBackend)
	}
	switch c.HistorySQLDriver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("invalid HISTORY_SQL_DRIVER %q: expected sqlite, postgres or mysql", c.HistorySQLDriver)
	}

	if c.CacheBackend == "redis" && c.RedisAddr == "" {
		return errors.New("CACHE_BACKEND is redis but REDIS_ADDR is not set")
	}
	if (c.CacheBackend == "mongo" || c.HistoryBackend == "mongo") && c.MongoURI == "" {
		return errors.New("mongo backend selected but MONGO_URI is not set")
	}
	if c.HistoryBackend == "sql" && c.HistorySQLDriver != "sqlite" && c.HistorySQLDSN == "" {
		return fmt.Errorf("HISTORY_SQL_DSN is required for driver %s", c.HistorySQLDriver)
	}
	if c.HistoryKafkaTopic != "" && len(c.HistoryKafkaBrokers) == 0 {
		return errors.New("HISTORY_KAFKA_TOPIC is set but HISTORY_KAFKA_BROKERS is empty")
	}
	return nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	s := sharedcfg.EnvOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseInt(key string, def, minimum int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minimum {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}
