// Package auth verifies bearer credentials and extracts the identity claim
// that owns a session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrAuthenticationFailed is returned for every verification failure.
// Expired, malformed, and badly signed tokens are deliberately
// indistinguishable to callers.
var ErrAuthenticationFailed = errors.New("authentication failed")

// Identity is the claim a verified credential resolves to.
type Identity struct {
	UserID string
}

// Claims is the JWT claim set issued for gateway users. The subject is the
// user ID.
type Claims struct {
	jwt.RegisteredClaims
}

// Verifier validates signed bearer tokens. Verification is pure: nothing is
// read or written beyond the configured key.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier for HS256 tokens signed with secret. An
// empty secret yields a fail-closed verifier that rejects everything.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates token, returning the identity it carries.
func (v *Verifier) Verify(token string) (Identity, error) {
	if len(v.secret) == 0 {
		return Identity{}, ErrAuthenticationFailed
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, ErrAuthenticationFailed
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return Identity{}, ErrAuthenticationFailed
	}

	return Identity{UserID: claims.Subject}, nil
}

// Sign mints a token for userID valid for ttl. The gateway itself only
// verifies; this is for tests and companion tooling.
func Sign(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

type identityContextKey struct{}

// ContextWithIdentity stores a verified identity on the context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity placed by RequireAuth.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

// Middleware guards HTTP handlers with bearer-token authentication.
type Middleware struct {
	verifier *Verifier
}

// NewMiddleware creates auth middleware backed by the given verifier.
func NewMiddleware(v *Verifier) *Middleware {
	return &Middleware{verifier: v}
}

// RequireAuth wraps next, rejecting requests without a valid bearer token.
// The verified identity is placed on the request context.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		id, err := m.verifier.Verify(parts[1])
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
	}
}
