package middleware

import (
	"net/http"
	"strings"

	"github.com/gradnet/gradnet/internal/ctxkeys"
	"github.com/gradnet/gradnet/internal/service"
)

// Where the session token was found.
const (
	AuthSourceBearer = "bearer"
	AuthSourceCookie = "cookie"
)

// AuthMiddleware resolves the caller once per request and stores it in the
// context. Requests without a valid token continue anonymously.
//
// An Authorization: Bearer header wins over the token cookie, even when the
// header's token turns out to be invalid.
func AuthMiddleware(tokens *service.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, source := extractToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity := tokens.ResolveCaller(raw)
			if identity == nil {
				// Invalid or expired cookie, clear it and continue
				if source == AuthSourceCookie {
					tokens.ClearCookie(w)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithIdentity(r.Context(), identity)
			ctx = ctxkeys.WithAuthSource(ctx, source)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) (string, string) {
	header := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token), AuthSourceBearer
	}

	cookie, err := r.Cookie(service.SessionCookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value, AuthSourceCookie
	}
	return "", ""
}

// RequireAuth rejects anonymous requests with 401
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.Identity(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	}
}
