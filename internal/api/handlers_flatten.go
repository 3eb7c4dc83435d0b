package api

import (
	"io"
	"net/http"

	"github.com/dgallion1/navflat/internal/parser"
)

// handleFlatten flattens a JSON forest without storing it.
func (s *Server) handleFlatten(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		jsonError(w, "failed to read body: "+err.Error(), errorStatus(err, http.StatusBadRequest))
		return
	}

	forest, err := parser.DecodeForestJSON(data)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	settings := s.settingsFrom(r)
	res, err := s.builder.Flatten(forest, settings)
	if err != nil {
		flattenFailures.WithLabelValues(failureReason(err)).Inc()
		jsonError(w, err.Error(), errorStatus(err, http.StatusBadRequest))
		return
	}
	observe(res)

	writeJSON(w, http.StatusOK, map[string]any{
		"options":        settings.String(),
		"count":          len(res.Records()),
		"records":        recordsOrEmpty(res.Records()),
		"skipped_cycles": skippedMessages(res.Skipped),
	})
}
