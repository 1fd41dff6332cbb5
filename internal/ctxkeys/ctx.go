package ctxkeys

import (
	"context"

	"github.com/gradnet/gradnet/internal/config"
	"github.com/gradnet/gradnet/internal/model"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	IdentityKey   contextKey = "identity"
	AuthSourceKey contextKey = "auth_source"
	ConfigKey     contextKey = "config"
	CSRFTokenKey  contextKey = "csrf_token"
)

// Identity returns the caller resolved by the auth middleware, or nil for anonymous requests.
func Identity(ctx context.Context) *model.Identity {
	identity, _ := ctx.Value(IdentityKey).(*model.Identity)
	return identity
}

func WithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// AuthSource reports where the session token came from: "bearer", "cookie" or "".
func AuthSource(ctx context.Context) string {
	source, _ := ctx.Value(AuthSourceKey).(string)
	return source
}

func WithAuthSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, AuthSourceKey, source)
}

func Config(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(ConfigKey).(*config.Config)
	return cfg
}

func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, ConfigKey, cfg)
}

func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(CSRFTokenKey).(string)
	return token
}

func WithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, CSRFTokenKey, token)
}
