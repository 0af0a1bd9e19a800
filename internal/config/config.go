package config

import (
	"os"
	"strconv"
	"time"

	"gotix/internal/cache"
	"gotix/internal/database"
	"gotix/internal/messaging"
)

// Config holds the full application configuration.
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// Reservation lifecycle
	ReservationTimeout time.Duration
	SweepInterval      time.Duration
	SweepBatchSize     int

	// Geospatial search
	DefaultSearchRadiusKm float64

	Database      database.Config
	NATS          messaging.Config
	Redis         cache.Config
	Elasticsearch ElasticsearchConfig
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		ReservationTimeout: time.Duration(getEnvInt("RESERVATION_TIMEOUT_SEC", 120)) * time.Second,
		SweepInterval:      time.Duration(getEnvInt("SWEEP_INTERVAL_SEC", 60)) * time.Second,
		SweepBatchSize:     getEnvInt("SWEEP_BATCH_SIZE", 100),

		DefaultSearchRadiusKm: getEnvFloat("DEFAULT_SEARCH_RADIUS_KM", 50.0),

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "gotix"),
			Password:           getEnv("DB_PASSWORD", "gotix"),
			DBName:             getEnv("DB_NAME", "gotix"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "gotix"),
			ClientID:  getEnv("NATS_CLIENT_ID", "gotix-api"),
		},

		Redis: cache.Config{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			TTL:      time.Duration(getEnvInt("REDIS_EVENTS_TTL_SEC", 30)) * time.Second,
		},

		Elasticsearch: ElasticsearchConfig{
			URL:        getEnv("ELASTICSEARCH_URL", ""),
			Username:   getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:   getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:      getEnv("ELASTICSEARCH_INDEX", "events"),
			MaxRetries: getEnvInt("ELASTICSEARCH_MAX_RETRIES", 3),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
