package api

import (
	"net/http"
	"time"
)

// HealthHandler reports process liveness. Unauthenticated so load balancers
// can probe it.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
