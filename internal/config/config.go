package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Module loads configuration from the environment.
var Module = fx.Module("config",
	fx.Provide(Load),
)

// TracingConfig configures the OTLP exporter.
type TracingConfig struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
}

// Config holds all runtime settings for the back office.
type Config struct {
	Environment    string
	ServiceName    string
	ServiceVersion string

	HTTPAddr string

	DatabaseURL          string
	DatabaseMaxOpenConns int
	DatabaseMaxIdleConns int

	SessionTTL          time.Duration
	IdempotencyWindow   time.Duration
	LoginRateLimit      int
	LoginRateWindow     time.Duration
	PermissionSyncEvery time.Duration

	// PermissionSyncEndpoint is the provisioning backend that acknowledges
	// permission toggles. Empty confirms toggles locally.
	PermissionSyncEndpoint string

	// EventWebhookURL receives outbox events. Empty drains the outbox
	// without delivery.
	EventWebhookURL    string
	EventDispatchEvery time.Duration

	Tracing TracingConfig

	EnsureDefaultISPAndAdmin bool
}

// IsProduction reports whether the service runs in the production environment.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

// Load reads .env when present and builds the config from the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:    envString("ISPCORE_ENV", "development"),
		ServiceName:    envString("ISPCORE_SERVICE_NAME", "isp-core"),
		ServiceVersion: envString("ISPCORE_SERVICE_VERSION", "dev"),

		HTTPAddr: envString("ISPCORE_HTTP_ADDR", ":8080"),

		DatabaseURL:          envString("ISPCORE_DATABASE_URL", ""),
		DatabaseMaxOpenConns: envInt("ISPCORE_DATABASE_MAX_OPEN_CONNS", 20),
		DatabaseMaxIdleConns: envInt("ISPCORE_DATABASE_MAX_IDLE_CONNS", 5),

		SessionTTL:          envDuration("ISPCORE_SESSION_TTL", 12*time.Hour),
		IdempotencyWindow:   envDuration("ISPCORE_IDEMPOTENCY_WINDOW", 10*time.Minute),
		LoginRateLimit:      envInt("ISPCORE_LOGIN_RATE_LIMIT", 10),
		LoginRateWindow:     envDuration("ISPCORE_LOGIN_RATE_WINDOW", time.Minute),
		PermissionSyncEvery: envDuration("ISPCORE_PERMISSION_SYNC_EVERY", 5*time.Second),

		PermissionSyncEndpoint: envString("ISPCORE_PERMISSION_SYNC_ENDPOINT", ""),

		EventWebhookURL:    envString("ISPCORE_EVENT_WEBHOOK_URL", ""),
		EventDispatchEvery: envDuration("ISPCORE_EVENT_DISPATCH_EVERY", 5*time.Second),

		Tracing: TracingConfig{
			Enabled:          envBool("ISPCORE_TRACING_ENABLED", false),
			ExporterEndpoint: envString("ISPCORE_TRACING_ENDPOINT", ""),
			ExporterProtocol: envString("ISPCORE_TRACING_PROTOCOL", "grpc"),
			SamplingRatio:    envFloat("ISPCORE_TRACING_SAMPLING_RATIO", 0.1),
		},

		EnsureDefaultISPAndAdmin: envBool("ISPCORE_BOOTSTRAP_DEFAULTS", true),
	}
	return cfg, nil
}

func envString(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
