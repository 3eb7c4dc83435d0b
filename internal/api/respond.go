package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/navflat/internal/config"
	"github.com/dgallion1/navflat/internal/menutree"
	"github.com/dgallion1/navflat/internal/pipeline"
	"github.com/dgallion1/navflat/internal/store"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// errorStatus maps domain errors to HTTP status codes. Anything unrecognised
// is reported with fallback.
func errorStatus(err error, fallback int) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, menutree.ErrCyclicStructure):
		return http.StatusUnprocessableEntity
	case errors.Is(err, menutree.ErrBrokenChain):
		return http.StatusConflict
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrFull):
		return http.StatusServiceUnavailable
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	}
	return fallback
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, menutree.ErrCyclicStructure):
		return "cyclic"
	case errors.Is(err, menutree.ErrBrokenChain):
		return "broken_chain"
	}
	return "invalid"
}

// settingsFrom applies the key_field, on_cycle and strategy query
// parameters over the configured defaults.
func (s *Server) settingsFrom(r *http.Request) config.FlattenSettings {
	q := r.URL.Query()
	return s.cfg.Flatten.Override(q.Get("key_field"), q.Get("on_cycle"), q.Get("strategy"))
}

// observe feeds a successful build into the metrics.
func observe(res *pipeline.Result) {
	flattenDuration.WithLabelValues(res.Strategy.String()).Observe(res.Elapsed.Seconds())
	flattenRecords.Observe(float64(len(res.Records())))
	cyclesSkipped.Add(float64(len(res.Skipped)))
}

func recordsOrEmpty(recs []menutree.FlatRecord) []menutree.FlatRecord {
	if recs == nil {
		return []menutree.FlatRecord{}
	}
	return recs
}

func skippedMessages(skipped []*menutree.CyclicStructureError) []string {
	out := make([]string, 0, len(skipped))
	for _, c := range skipped {
		out = append(out, c.Error())
	}
	return out
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
