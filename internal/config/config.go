package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DevJWTSecret is only accepted outside production.
const DevJWTSecret = "gradnet-dev-secret-change-me"

// Circle posting policies.
const (
	CirclePostMember = "member"
	CirclePostOwner  = "owner"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppURL  string
	Port    string

	// Database (sqlite or pgx)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret        string
	JWTExpiry        time.Duration
	CirclePostPolicy string

	// Rate limiting for signup/signin (per client IP)
	RateLimitAuth   int
	RateLimitWindow time.Duration
	RedisURL        string

	// Honour X-Forwarded-For and X-Real-IP. Only enable behind a proxy that overwrites them.
	TrustProxy bool

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible, optional: profile picture uploads are disabled without a bucket)
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string
}

// Load reads configuration from the environment, falling back to a .env file when present.
func Load() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppName: envString("APP_NAME", "GradNet"),
		AppEnv:  envString("APP_ENV", "development"),
		AppURL:  envString("APP_URL", "http://localhost:8090"),
		Port:    envString("PORT", "8090"),

		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/gradnet.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"),

		JWTSecret:        envString("JWT_SECRET", DevJWTSecret),
		JWTExpiry:        envDuration("JWT_EXPIRY", 720*time.Hour), // 30 days
		CirclePostPolicy: strings.ToLower(envString("CIRCLE_POST_POLICY", CirclePostMember)),

		RateLimitAuth:   envInt("RATE_LIMIT_AUTH", 5),
		RateLimitWindow: envDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		RedisURL:        envString("REDIS_URL", ""),
		TrustProxy:      envBool("TRUST_PROXY", false),

		EmailFrom:    envString("EMAIL_FROM", "noreply@gradnet.local"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		SentryDSN: envString("SENTRY_DSN", ""),

		S3Region:    envString("S3_REGION", ""),
		S3Bucket:    envString("S3_BUCKET", ""),
		S3AccessKey: envString("S3_ACCESS_KEY", ""),
		S3SecretKey: envString("S3_SECRET_KEY", ""),
		S3Endpoint:  envString("S3_ENDPOINT", ""),
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at request time.
func (c *Config) Validate() error {
	var errs []error

	if c.AppEnv != "development" && c.AppEnv != "production" {
		errs = append(errs, fmt.Errorf("APP_ENV must be development or production, got %q", c.AppEnv))
	}
	if c.DBDriver != "sqlite" && c.DBDriver != "pgx" {
		errs = append(errs, fmt.Errorf("DB_DRIVER must be sqlite or pgx, got %q", c.DBDriver))
	}
	if c.CirclePostPolicy != CirclePostMember && c.CirclePostPolicy != CirclePostOwner {
		errs = append(errs, fmt.Errorf("CIRCLE_POST_POLICY must be member or owner, got %q", c.CirclePostPolicy))
	}
	if c.JWTExpiry <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY must be positive"))
	}
	if c.RateLimitAuth <= 0 || c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_AUTH and RATE_LIMIT_WINDOW must be positive"))
	}

	if c.IsProduction() {
		if c.JWTSecret == DevJWTSecret || len(c.JWTSecret) < 32 {
			errs = append(errs, errors.New("production requires JWT_SECRET of at least 32 characters"))
		}
		if !strings.HasPrefix(c.AppURL, "https://") {
			errs = append(errs, errors.New("production requires an https APP_URL"))
		}
		if c.ResendAPIKey == "" {
			errs = append(errs, errors.New("production requires RESEND_API_KEY"))
		}
	}

	return errors.Join(errs...)
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// StorageEnabled reports whether profile picture uploads can be served.
func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Sanitized returns a copy of the config without secrets, suitable for logging.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:          c.AppName,
		AppEnv:           c.AppEnv,
		AppURL:           c.AppURL,
		Port:             c.Port,
		DBDriver:         c.DBDriver,
		JWTExpiry:        c.JWTExpiry,
		CirclePostPolicy: c.CirclePostPolicy,
		RateLimitAuth:    c.RateLimitAuth,
		RateLimitWindow:  c.RateLimitWindow,
		TrustProxy:       c.TrustProxy,
		EmailFrom:        c.EmailFrom,
		S3Region:         c.S3Region,
		S3Bucket:         c.S3Bucket,
		S3Endpoint:       c.S3Endpoint,
	}
}
