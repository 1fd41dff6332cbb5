package service

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gradnet/gradnet/internal/model"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "token"

// TokenService issues and verifies HS256 session tokens. It holds no state
// besides the secret, so verification is a pure function of token, secret and clock.
type TokenService struct {
	secret       []byte
	expiry       time.Duration
	isProduction bool
	now          func() time.Time
}

func NewTokenService(secret string, expiry time.Duration, isProduction bool) *TokenService {
	return &TokenService{
		secret:       []byte(secret),
		expiry:       expiry,
		isProduction: isProduction,
		now:          time.Now,
	}
}

// WithClock returns a copy of the service that reads time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

func (s *TokenService) Expiry() time.Duration {
	return s.expiry
}

func (s *TokenService) Issue(user *model.User) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.expiry)
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     expiresAt.Unix(),
		"iat":     issuedAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry and decodes the caller identity.
func (s *TokenService) Verify(raw string) (*model.Identity, error) {
	if raw == "" {
		return nil, errors.New("missing token")
	}

	token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	id, _ := claims["user_id"].(string)
	email, _ := claims["email"].(string)
	if id == "" {
		return nil, errors.New("token has no subject")
	}
	return &model.Identity{ID: id, Email: email}, nil
}

// ResolveCaller maps a raw token to an identity, or nil for any failure.
func (s *TokenService) ResolveCaller(raw string) *model.Identity {
	identity, err := s.Verify(raw)
	if err != nil {
		return nil
	}
	return identity
}

func (s *TokenService) SetCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(s.expiry.Seconds()),
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *TokenService) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}
