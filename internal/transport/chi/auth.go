package chi

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/memsearch/internal/logger"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// apiKey is an accepted bearer token and the short id logged in its place.
type apiKey struct {
	token []byte
	id    string
}

// KeyID returns the id logged for an API key: the first 8 hex chars of its sha256.
func KeyID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:4])
}

// BearerAuthMiddleware returns a middleware that validates Bearer tokens.
// If apiKeys is empty, authentication is disabled (pass-through).
// Accepted requests carry api_key_id on the request logger.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	keys := make([]apiKey, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, apiKey{token: []byte(k), id: KeyID(k)})
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "missing authorization header")
				return
			}

			token, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			id, ok := match(keys, []byte(token))
			if !ok {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid api key")
				return
			}

			ctx := logpkg.With(r.Context(), zap.String("api_key_id", id))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// match compares token against every key in constant time per key.
func match(keys []apiKey, token []byte) (string, bool) {
	id, found := "", false
	for _, k := range keys {
		if subtle.ConstantTimeCompare(k.token, token) == 1 {
			id, found = k.id, true
		}
	}
	return id, found
}
