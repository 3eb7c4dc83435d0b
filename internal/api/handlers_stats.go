package api

import (
	"net/http"
)

func (s *Server) handleFlattenStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "flatten stats unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stats":       s.stats.Snapshot(),
		"by_strategy": s.stats.ByStrategy(),
	})
}
