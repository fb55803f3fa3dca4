package httpapi

import (
	"crypto/subtle"
	"net/http"
)

// requireAPIKey enforces the X-API-Key header when a key is configured.
// With no configured key the check is a no-op, matching open-ingress
// deployments behind a trusted gateway.
func (s *Server) requireAPIKey() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.apiKey != "" {
				got := r.Header.Get("X-API-Key")
				if subtle.ConstantTimeCompare([]byte(got), []byte(s.apiKey)) != 1 {
					fail(w, http.StatusUnauthorized, errUnauthorized, "Invalid or missing API key")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
