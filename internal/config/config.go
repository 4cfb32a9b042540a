package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Decode-failure policies for malformed image payloads (see the assembler).
const (
	DecodePolicyFail   = "fail"
	DecodePolicyNormal = "normal"
)

// History store drivers.
const (
	DriverCSV      = "csv"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Gemini model configuration.
	GeminiAPIKey      string
	GeminiModel       string
	GeminiVisionModel string
	ModelTimeout      time.Duration
	MaxHistoryTurns   int

	// Reverse geocoding configuration.
	GeocoderBaseURL   string
	GeocoderUserAgent string
	GeocoderTimeout   time.Duration
	GeocoderCacheSize int

	// Historical store configuration. For csv and sqlite the DSN is a file
	// path; for postgres it is a connection string.
	HistoryDriver string
	HistoryDSN    string

	// Matcher lookback window; zero means all history.
	MatchLookback time.Duration

	// Optional Kafka report feed. Publishing is disabled when no brokers
	// are configured.
	KafkaBrokers   []string
	KafkaSinkTopic string

	// What to do when the image payload cannot be decoded: "fail" aborts the
	// ingestion, "normal" records a Normal report from the decode error.
	DecodeFailurePolicy string

	// Session scoping.
	SessionApp string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	modelTimeout, err := parseDuration("MODEL_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}
	geocoderTimeout, err := parseDuration("GEOCODER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	matchLookback, err := parseLookback()
	if err != nil {
		return nil, err
	}
	maxHistoryTurns, err := parsePositiveInt("MAX_HISTORY_TURNS", 20)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("GEOCODER_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       envOrDefault("GEMINI_MODEL", "gemini-2.5-flash-lite"),
		GeminiVisionModel: envOrDefault("GEMINI_VISION_MODEL", "gemini-2.5-flash"),
		ModelTimeout:      modelTimeout,
		MaxHistoryTurns:   maxHistoryTurns,

		GeocoderBaseURL:   envOrDefault("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent: envOrDefault("GEOCODER_USER_AGENT", "city-anomaly-ingest/1.0"),
		GeocoderTimeout:   geocoderTimeout,
		GeocoderCacheSize: cacheSize,

		HistoryDriver: envOrDefault("HISTORY_DRIVER", DriverCSV),
		HistoryDSN:    envOrDefault("HISTORY_DSN", "submission_history.csv"),

		MatchLookback: matchLookback,

		KafkaBrokers:   parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "city-anomaly-reports"),

		DecodeFailurePolicy: envOrDefault("DECODE_FAILURE_POLICY", DecodePolicyFail),

		SessionApp: envOrDefault("SESSION_APP", "city_anomaly_detector"),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	switch cfg.HistoryDriver {
	case DriverCSV, DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("invalid HISTORY_DRIVER %q (want csv, sqlite, or postgres)", cfg.HistoryDriver)
	}
	if cfg.HistoryDSN == "" {
		return nil, errors.New("HISTORY_DSN is required")
	}
	switch cfg.DecodeFailurePolicy {
	case DecodePolicyFail, DecodePolicyNormal:
	default:
		return nil, fmt.Errorf("invalid DECODE_FAILURE_POLICY %q (want fail or normal)", cfg.DecodeFailurePolicy)
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether the report feed publisher should be wired.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

// parseLookback parses MATCH_LOOKBACK; "0" (the default) means all history.
func parseLookback() (time.Duration, error) {
	s := envOrDefault("MATCH_LOOKBACK", "0")
	if s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, errors.New("invalid MATCH_LOOKBACK")
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
