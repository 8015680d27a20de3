package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/wolfman30/leadbox/internal/auth"
	"github.com/wolfman30/leadbox/internal/http/response"
	"github.com/wolfman30/leadbox/pkg/logging"
)

// Authenticate requires a valid bearer token and attaches the caller's
// identity to the request context.
func Authenticate(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				response.Fail(w, http.StatusUnauthorized, "No token provided")
				return
			}
			tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			id, err := verifier.Verify(tokenString)
			if err != nil {
				msg := "Invalid token"
				if errors.Is(err, auth.ErrTokenExpired) {
					msg = "Token has expired"
				}
				response.Fail(w, http.StatusUnauthorized, msg)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole rejects callers whose role is not in roles. It must run after
// Authenticate or APIKey.
func RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	allowed := make(map[auth.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				response.Fail(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if _, ok := allowed[id.Role]; !ok {
				response.Fail(w, http.StatusForbidden, "you don't have permission")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// APIKeyAuthenticator resolves an X-API-Key header value to its client.
type APIKeyAuthenticator interface {
	Authenticate(ctx context.Context, key string) (auth.Identity, error)
}

// APIKeyHeader carries the plaintext key on ingestion requests.
const APIKeyHeader = "X-API-Key"

// APIKey authenticates machine callers by API key.
func APIKey(authenticator APIKeyAuthenticator, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := authenticator.Authenticate(r.Context(), r.Header.Get(APIKeyHeader))
			if err != nil {
				response.Error(w, logger, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}
