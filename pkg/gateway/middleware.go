package gateway

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AuthMiddleware validates the Authorization: Bearer <token> header
// against the configured API key. WebSocket clients that cannot set
// headers may pass ?access_token= instead. Public paths bypass auth; an
// entry ending in "/" matches the whole subtree.
func AuthMiddleware(apiKey string, publicPaths []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, p := range publicPaths {
			if r.URL.Path == p || (strings.HasSuffix(p, "/") && strings.HasPrefix(r.URL.Path, p)) {
				next.ServeHTTP(w, r)
				return
			}
		}

		// Open mode
		if apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := r.URL.Query().Get("access_token")
		if token == "" {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) {
				writeError(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}
			token = auth[len(prefix):]
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}
