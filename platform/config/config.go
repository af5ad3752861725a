// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	GetDBMaxConns() int32
	GetDBMinConns() int32
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq worker and periodic jobs.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetMaintenanceCron() string
}

// GatewayConfig provides settings for the outbound messaging gateway transport.
// Credentials are not part of it: they live in the module configuration row.
type GatewayConfig interface {
	GetGatewayEndpoint() string
	GetGatewayTimeout() time.Duration
}

// NotificationConfig provides settings for the dispatch engine.
type NotificationConfig interface {
	IsActivityLogEnabled() bool
	GetPhoneDefaultRegion() string
	GetFailedLoginWindow() time.Duration
	GetBilletPaymentMethods() []string
}

// StorageConfig provides settings for the payment-slip document store.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOBucketBillets() string
	IsMinIOEnabled() bool
}

// SecretConfig provides the key used to encrypt gateway credentials at rest.
type SecretConfig interface {
	GetSecretEncryptionKey() []byte
}

// HookAuthConfig provides settings for authenticating inbound host hooks.
type HookAuthConfig interface {
	GetHookSigningSecret() string
	GetHookRateLimitRPS() float64
	GetHookRateLimitBurst() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

type Config struct {
	Env            string
	HTTPAddr       string
	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int
	MaintenanceCron  string

	GatewayEndpoint string
	GatewayTimeout  time.Duration

	ActivityLogEnabled   bool
	PhoneDefaultRegion   string
	FailedLoginWindow    time.Duration
	BilletPaymentMethods []string

	MinIOEndpoint      string
	MinIOAccessKey     string
	MinIOSecretKey     string
	MinIOUseSSL        bool
	MinIOBucketBillets string

	SecretEncryptionKey []byte

	HookSigningSecret  string
	HookRateLimitRPS   float64
	HookRateLimitBurst int
}

// DatabaseConfig
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }
func (c *Config) GetDBMaxConns() int32   { return c.DBMaxConns }
func (c *Config) GetDBMinConns() int32   { return c.DBMinConns }

// HTTPConfig
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig
func (c *Config) GetRedisURL() string        { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool  { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string  { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int   { return c.AsynqConcurrency }
func (c *Config) GetMaintenanceCron() string { return c.MaintenanceCron }

// GatewayConfig
func (c *Config) GetGatewayEndpoint() string       { return c.GatewayEndpoint }
func (c *Config) GetGatewayTimeout() time.Duration { return c.GatewayTimeout }

// NotificationConfig
func (c *Config) IsActivityLogEnabled() bool          { return c.ActivityLogEnabled }
func (c *Config) GetPhoneDefaultRegion() string       { return c.PhoneDefaultRegion }
func (c *Config) GetFailedLoginWindow() time.Duration { return c.FailedLoginWindow }
func (c *Config) GetBilletPaymentMethods() []string   { return c.BilletPaymentMethods }

// StorageConfig
func (c *Config) GetMinIOEndpoint() string      { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string     { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string     { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool          { return c.MinIOUseSSL }
func (c *Config) GetMinIOBucketBillets() string { return c.MinIOBucketBillets }
func (c *Config) IsMinIOEnabled() bool          { return c.MinIOEndpoint != "" }

// SecretConfig
func (c *Config) GetSecretEncryptionKey() []byte { return c.SecretEncryptionKey }

// HookAuthConfig
func (c *Config) GetHookSigningSecret() string { return c.HookSigningSecret }
func (c *Config) GetHookRateLimitRPS() float64 { return c.HookRateLimitRPS }
func (c *Config) GetHookRateLimitBurst() int   { return c.HookRateLimitBurst }

// DefaultGatewayEndpoint is the production endpoint of the messaging gateway.
const DefaultGatewayEndpoint = "https://api.zapme.com.br"

func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:4200"))
	corsAllowAll := containsWildcard(corsOrigins)

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		CORSAllowCreds:       strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		DBMaxConns:           int32(mustInt64(getEnv("DB_MAX_CONNS", "10"))),
		DBMinConns:           int32(mustInt64(getEnv("DB_MIN_CONNS", "1"))),
		RedisURL:             getEnv("REDIS_URL", ""),
		RedisTLSInsecure:     strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:       getEnv("ASYNQ_QUEUE_NAME", "default"),
		AsynqConcurrency:     int(mustInt64(getEnv("ASYNQ_CONCURRENCY", "2"))),
		MaintenanceCron:      getEnv("MAINTENANCE_CRON", "0 3 * * *"),
		GatewayEndpoint:      strings.TrimSpace(getEnv("GATEWAY_ENDPOINT", DefaultGatewayEndpoint)),
		GatewayTimeout:       mustDuration(getEnv("GATEWAY_TIMEOUT", "0s")),
		ActivityLogEnabled:   !strings.EqualFold(getEnv("ACTIVITY_LOG_ENABLED", "true"), "false"),
		PhoneDefaultRegion:   strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "BR")),
		FailedLoginWindow:    mustDuration(getEnv("FAILED_LOGIN_WINDOW", "2s")),
		BilletPaymentMethods: splitCSV(strings.ToLower(getEnv("BILLET_PAYMENT_METHODS", "paghiper,boleto"))),
		MinIOEndpoint:        getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:       getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:       getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:          strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOBucketBillets:   getEnv("MINIO_BUCKET_BILLETS", "billets"),
		HookSigningSecret:    getEnv("HOOK_SIGNING_SECRET", ""),
		HookRateLimitRPS:     mustFloat(getEnv("HOOK_RATE_LIMIT_RPS", "20")),
		HookRateLimitBurst:   int(mustInt64(getEnv("HOOK_RATE_LIMIT_BURST", "40"))),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.HookSigningSecret == "" {
		return nil, fmt.Errorf("HOOK_SIGNING_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ORIGINS contains *")
	}
	if cfg.FailedLoginWindow <= 0 {
		return nil, fmt.Errorf("FAILED_LOGIN_WINDOW must be a positive duration")
	}

	key, err := parseEncryptionKey(getEnv("SECRET_ENCRYPTION_KEY", ""))
	if err != nil {
		return nil, err
	}
	cfg.SecretEncryptionKey = key

	return cfg, nil
}

func parseEncryptionKey(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("SECRET_ENCRYPTION_KEY is required")
	}
	key, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("SECRET_ENCRYPTION_KEY must be hex encoded: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("SECRET_ENCRYPTION_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
