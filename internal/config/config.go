package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const DefaultAPIKey = "sk-default-key-please-change"

type Config struct {
	Addr      string
	AppEnv    string
	APIKey    string
	JWTSecret string

	// session memory
	SessionBackend  string
	SessionCapacity int
	SessionTTL      time.Duration
	EnableMemory    bool

	// per-client requests/minute on /v1, 0 disables
	RateLimitRPM int

	// responder
	EnableMath    bool
	ResponseStyle string
	Elaborate     bool
	ModelsFile    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// transcript archive
	DBDSN                   string
	TranscriptRetentionDays int
	RetentionSchedule       string

	// rabbitMQ
	RabbitURL         string
	RabbitQueue       string
	WorkerConcurrency int

	LogLevel    string
	LogFormat   string
	LogFile     string
	OtelEnabled bool
	OtelDir     string
}

func Load() Config {
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8000"
	}

	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development"
	}

	apiKey := os.Getenv("API_KEY")
	if apiKey == "" {
		apiKey = DefaultAPIKey
	}

	backend := strings.ToLower(os.Getenv("SESSION_BACKEND"))
	if backend == "" {
		backend = "memory"
	}

	style := strings.ToLower(os.Getenv("RESPONSE_STYLE"))
	if style == "" {
		style = "rules"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}

	rabbitQueue := os.Getenv("RABBIT_QUEUE")
	if rabbitQueue == "" {
		rabbitQueue = "mockai_transcripts"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "console"
	}

	retentionSchedule := os.Getenv("RETENTION_SCHEDULE")
	if retentionSchedule == "" {
		retentionSchedule = "0 3 * * *"
	}

	otelDir := os.Getenv("OTEL_DIR")
	if otelDir == "" {
		otelDir = "telemetry"
	}

	return Config{
		Addr:      addr,
		AppEnv:    appEnv,
		APIKey:    apiKey,
		JWTSecret: os.Getenv("JWT_SECRET"),

		SessionBackend:  backend,
		SessionCapacity: envInt("SESSION_CAPACITY", 10),
		SessionTTL:      time.Duration(envInt("SESSION_TTL_SECONDS", 3600)) * time.Second,
		EnableMemory:    envBool("ENABLE_MEMORY", true),
		RateLimitRPM:    envInt("RATE_LIMIT_RPM", 0),

		EnableMath:    envBool("ENABLE_MATH", true),
		ResponseStyle: style,
		Elaborate:     envBool("ELABORATE", style == "template"),
		ModelsFile:    os.Getenv("MODELS_FILE"),

		RedisAddr:     redisAddr,
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		DBDSN:                   os.Getenv("DB_DSN"),
		TranscriptRetentionDays: envInt("TRANSCRIPT_RETENTION_DAYS", 30),
		RetentionSchedule:       retentionSchedule,

		RabbitURL:         os.Getenv("RABBIT_URL"),
		RabbitQueue:       rabbitQueue,
		WorkerConcurrency: envInt("WORKER_CONCURRENCY", 4),

		LogLevel:    logLevel,
		LogFormat:   logFormat,
		LogFile:     os.Getenv("LOG_FILE"),
		OtelEnabled: envBool("OTEL_ENABLED", false),
		OtelDir:     otelDir,
	}
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.AppEnv == "production" && c.APIKey == DefaultAPIKey {
		errs = append(errs, errors.New("API_KEY must be set in production"))
	}
	switch c.SessionBackend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("SESSION_BACKEND %q: want memory or redis", c.SessionBackend))
	}
	switch c.ResponseStyle {
	case "rules", "template":
	default:
		errs = append(errs, fmt.Errorf("RESPONSE_STYLE %q: want rules or template", c.ResponseStyle))
	}
	if c.SessionCapacity <= 0 {
		errs = append(errs, errors.New("SESSION_CAPACITY must be positive"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL_SECONDS must be positive"))
	}
	if c.RateLimitRPM < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPM must not be negative"))
	}
	if c.WorkerConcurrency <= 0 {
		errs = append(errs, errors.New("WORKER_CONCURRENCY must be positive"))
	}
	return errors.Join(errs...)
}

// ArchiveEnabled reports whether completed turns are recorded.
func (c Config) ArchiveEnabled() bool {
	return c.DBDSN != "" || c.RabbitURL != ""
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
