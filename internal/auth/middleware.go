package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/bbg-music/auth-service/internal/model"
)

// Identity is the authenticated principal attached to a request after the
// bearer token checks out. It is what the middleware hands to handlers —
// handlers pass it (or fields of it) to the service layer explicitly, so the
// core never reaches into ambient state to learn who is calling.
type Identity struct {
	UserID   string
	Username string
	Role     model.Role
}

// contextKey is an unexported type for context keys in this package.
// A package-private key type means no other package can read or shadow the
// identity value — collisions with plain-string keys are impossible.
type contextKey int

const identityKey contextKey = iota

// IdentityFromContext returns the authenticated identity set by RequireAuth,
// or ok=false on an unauthenticated request.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// WithIdentity returns a context carrying the given identity.
// Exported for handler tests that bypass the middleware.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Returns "" if the header is absent or not in bearer form.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return h[len(prefix):]
}

// RequireAuth enforces authentication on protected routes.
//
// It reads the bearer token from the Authorization header, verifies it, and
// requires purpose "access" — a structurally valid refresh token presented
// against a protected resource is rejected here, never accepted as a stand-in.
// On success the identity is stored in the request context; on any failure
// the chain stops with the unauthorize callback (the handler package supplies
// one that writes the standard error envelope).
func RequireAuth(tokens *TokenService, unauthorize func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				unauthorize(w, r, ErrTokenMalformed)
				return
			}

			claims, err := tokens.Verify(tokenStr)
			if err != nil {
				unauthorize(w, r, err)
				return
			}
			if claims.Purpose != PurposeAccess {
				unauthorize(w, r, ErrTokenMalformed)
				return
			}

			ctx := WithIdentity(r.Context(), Identity{
				UserID:   claims.Subject,
				Username: claims.Username,
				Role:     claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates a route on the ADMIN role claim. Must be mounted after
// RequireAuth. The role checked here is the one cached in the access token at
// mint time; a demotion takes effect once outstanding tokens expire.
func RequireAdmin(forbid func(w http.ResponseWriter, r *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok || id.Role != model.RoleAdmin {
				forbid(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
