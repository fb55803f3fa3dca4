package httpapi

import (
	"net/http"

	"github.com/cardops/cardtrack/internal/analytics"
)

// getAnalytics handles GET /analytics, serving the precomputed snapshot.
// Without a configured loader the endpoint serves a zero-valued snapshot so
// dashboards render consistently in every environment.
func (s *Server) getAnalytics(w http.ResponseWriter, r *http.Request) {
	var snap analytics.Snapshot
	if s.analytics != nil {
		snap = s.analytics.Current()
	}
	ok(w, http.StatusOK, "Analytics retrieved", snap)
}
