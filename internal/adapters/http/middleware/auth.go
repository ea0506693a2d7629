package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const identityContextKey contextKey = "identity"

// AccessTokenCookie is the auth provider's access-token cookie.
const AccessTokenCookie = "sb-access-token"

// Identity is the authenticated trainer.
type Identity struct {
	TrainerID string
	Email     string

	// Dev is true when the identity came from the dev fallback, not a token.
	Dev bool
}

// TrainerClaims are the claims read from the auth provider's access token.
// The trainer id is the subject.
type TrainerClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AuthConfig controls token verification.
type AuthConfig struct {
	// Secret verifies HS256 signatures. Empty disables token verification.
	Secret []byte
	// DevTrainerID is used when a request carries no token. Empty disables
	// the fallback; set it only outside production.
	DevTrainerID string
}

// Auth returns middleware that verifies the access token (Bearer header or
// AccessTokenCookie) and puts the trainer identity in context.
// It does NOT block unauthenticated requests; use RequireTrainer for that.
// INVARIANT: an invalid token never falls back to the dev identity
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := accessToken(r)
			switch {
			case raw != "":
				id, err := ParseAccessToken(raw, cfg.Secret)
				if err != nil {
					slog.Warn("auth_token_rejected", "path", r.URL.Path, "error", err)
					break
				}
				r = r.WithContext(ContextWithIdentity(r.Context(), id))
			case cfg.DevTrainerID != "":
				r = r.WithContext(ContextWithIdentity(r.Context(), Identity{TrainerID: cfg.DevTrainerID, Dev: true}))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ParseAccessToken verifies an HS256 token and returns its identity.
// PRE: secret is the provider's signing secret
// POST: returns an error for a bad signature, an expired token or a missing subject
func ParseAccessToken(raw string, secret []byte) (Identity, error) {
	if len(secret) == 0 {
		return Identity{}, errors.New("token verification is not configured")
	}
	claims := &TrainerClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, err
	}
	if !token.Valid {
		return Identity{}, jwt.ErrTokenSignatureInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, errors.New("token has no subject")
	}
	return Identity{TrainerID: claims.Subject, Email: claims.Email}, nil
}

func accessToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// RequireTrainer returns middleware that blocks requests without an identity.
func RequireTrainer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			http.Error(w, "not authenticated", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IdentityFromContext extracts the identity from the request context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok
}

// ContextWithIdentity returns a context with the given identity set.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}
