package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_EXPIRY", "")
	t.Setenv("CIRCLE_POST_POLICY", "")
	t.Setenv("TRUST_PROXY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "GradNet", cfg.AppName)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 30*24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, CirclePostMember, cfg.CirclePostPolicy)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.StorageEnabled())
	assert.False(t, cfg.TrustProxy)
}

func TestLoadTrustProxy(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	t.Setenv("TRUST_PROXY", "true")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.TrustProxy)
	assert.True(t, cfg.Sanitized().TrustProxy)

	t.Setenv("TRUST_PROXY", "sometimes")
	cfg, err = Load()
	require.NoError(t, err)
	assert.False(t, cfg.TrustProxy)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_EXPIRY", "soon")
	t.Setenv("RATE_LIMIT_AUTH", "many")
	t.Setenv("TRUST_PROXY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 720*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 5, cfg.RateLimitAuth)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			AppEnv:           "development",
			AppURL:           "http://localhost:8090",
			DBDriver:         "sqlite",
			JWTSecret:        DevJWTSecret,
			JWTExpiry:        time.Hour,
			CirclePostPolicy: CirclePostMember,
			RateLimitAuth:    5,
			RateLimitWindow:  time.Minute,
		}
	}

	t.Run("development accepts dev secret", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("unknown circle policy", func(t *testing.T) {
		cfg := base()
		cfg.CirclePostPolicy = "anyone"
		assert.ErrorContains(t, cfg.Validate(), "CIRCLE_POST_POLICY")
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := base()
		cfg.DBDriver = "mysql"
		assert.ErrorContains(t, cfg.Validate(), "DB_DRIVER")
	})

	t.Run("production rejects dev secret and plain http", func(t *testing.T) {
		cfg := base()
		cfg.AppEnv = "production"
		err := cfg.Validate()
		require.Error(t, err)
		assert.ErrorContains(t, err, "JWT_SECRET")
		assert.ErrorContains(t, err, "https")
		assert.ErrorContains(t, err, "RESEND_API_KEY")
	})

	t.Run("production ok", func(t *testing.T) {
		cfg := base()
		cfg.AppEnv = "production"
		cfg.AppURL = "https://gradnet.example"
		cfg.JWTSecret = "0123456789abcdef0123456789abcdef"
		cfg.ResendAPIKey = "re_test"
		assert.NoError(t, cfg.Validate())
	})
}

func TestSanitizedDropsSecrets(t *testing.T) {
	cfg := &Config{AppName: "GradNet", JWTSecret: "s3cret", ResendAPIKey: "re_x", S3SecretKey: "k", SentryDSN: "dsn"}
	safe := cfg.Sanitized()
	assert.Equal(t, "GradNet", safe.AppName)
	assert.Empty(t, safe.JWTSecret)
	assert.Empty(t, safe.ResendAPIKey)
	assert.Empty(t, safe.S3SecretKey)
	assert.Empty(t, safe.SentryDSN)
}
