package httpapi

import (
	"context"
	"net/http"
	"time"
)

// health handles GET /health with the standard response envelope.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ok(w, http.StatusOK, "Card tracking service is running", nil)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	// Probe the store with a short timeout when it implements ReadyChecker.
	ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
	defer cancel()
	if rc, ok := any(s.repo).(ReadyChecker); ok {
		if err := rc.Ready(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}
