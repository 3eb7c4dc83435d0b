package api

import (
	"net/http"
	"regexp"
	"strconv"

	"github.com/dgallion1/navflat/internal/menutree"
	"github.com/dgallion1/navflat/internal/query"
)

// handleFind returns the first record whose field equals value.
func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	m, ok := s.menu(w, r)
	if !ok {
		return
	}
	field, value := r.URL.Query().Get("field"), r.URL.Query().Get("value")
	if field == "" {
		jsonError(w, "field is required", http.StatusBadRequest)
		return
	}

	rec, found := m.Index.FindFirst(field, value)
	if !found {
		jsonError(w, "no record matches", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"record":   rec,
		"position": m.Index.Position(rec),
	})
}

// handleSearch combines every supplied filter with And. No filters returns
// the whole menu.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	m, ok := s.menu(w, r)
	if !ok {
		return
	}
	pred, err := searchPredicate(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	recs := m.Index.Find(pred)
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(recs),
		"records": recordsOrEmpty(recs),
	})
}

func searchPredicate(r *http.Request) (query.Predicate, error) {
	q := r.URL.Query()
	var preds []query.Predicate
	if v := q.Get("route_contains"); v != "" {
		preds = append(preds, query.RouteContains(v))
	}
	if v := q.Get("route_prefix"); v != "" {
		preds = append(preds, query.RouteHasPrefix(v))
	}
	if v := q.Get("route_regex"); v != "" {
		re, err := regexp.Compile(v)
		if err != nil {
			return nil, err
		}
		preds = append(preds, query.RouteMatches(re))
	}
	if v := q.Get("label_contains"); v != "" {
		preds = append(preds, query.LabelContains(v))
	}
	if v := q.Get("level"); v != "" {
		level, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		preds = append(preds, query.AtLevel(level))
	}
	if v := q.Get("has_route"); v != "" {
		want, err := strconv.ParseBool(v)
		if err != nil {
			return nil, err
		}
		if want {
			preds = append(preds, query.HasRoute())
		} else {
			preds = append(preds, query.Not(query.HasRoute()))
		}
	}
	return query.And(preds...), nil
}

// handleAncestors returns the root-to-record chain for the first record
// whose field equals value.
func (s *Server) handleAncestors(w http.ResponseWriter, r *http.Request) {
	m, ok := s.menu(w, r)
	if !ok {
		return
	}
	field := r.URL.Query().Get("field")
	if field == "" {
		field = m.Index.KeyField().String()
	}
	rec, found := m.Index.FindFirst(field, r.URL.Query().Get("value"))
	if !found {
		jsonError(w, "no record matches", http.StatusNotFound)
		return
	}
	chain, err := m.Index.AncestorChain(rec)
	if err != nil {
		jsonError(w, err.Error(), errorStatus(err, http.StatusInternalServerError))
		return
	}
	writeChain(w, chain)
}

func (s *Server) handleHierarchy(w http.ResponseWriter, r *http.Request) {
	m, ok := s.menu(w, r)
	if !ok {
		return
	}
	route := r.URL.Query().Get("route")
	if route == "" {
		jsonError(w, "route is required", http.StatusBadRequest)
		return
	}
	chain, err := m.Index.HierarchyByRoute(route)
	if err != nil {
		jsonError(w, err.Error(), errorStatus(err, http.StatusInternalServerError))
		return
	}
	if chain == nil {
		jsonError(w, "no record has that route", http.StatusNotFound)
		return
	}
	writeChain(w, chain)
}

func writeChain(w http.ResponseWriter, chain []menutree.FlatRecord) {
	writeJSON(w, http.StatusOK, map[string]any{
		"chain":  chain,
		"labels": query.Labels(chain),
	})
}

func (s *Server) handleDescendants(w http.ResponseWriter, r *http.Request) {
	s.related(w, r, (*query.Index).Descendants)
}

func (s *Server) handleChildren(w http.ResponseWriter, r *http.Request) {
	s.related(w, r, (*query.Index).Children)
}

// related serves the key-addressed traversals.
func (s *Server) related(w http.ResponseWriter, r *http.Request, fn func(*query.Index, string) []menutree.FlatRecord) {
	m, ok := s.menu(w, r)
	if !ok {
		return
	}
	key := r.URL.Query().Get("key")
	if _, found := m.Index.Lookup(key); !found {
		jsonError(w, "no record has that key", http.StatusNotFound)
		return
	}
	recs := fn(m.Index, key)
	writeJSON(w, http.StatusOK, map[string]any{
		"key":     key,
		"count":   len(recs),
		"records": recordsOrEmpty(recs),
	})
}

type levelGroup struct {
	Level   int                   `json:"level"`
	Count   int                   `json:"count"`
	Records []menutree.FlatRecord `json:"records"`
}

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	m, ok := s.menu(w, r)
	if !ok {
		return
	}
	groups := m.Index.GroupByLevel()
	out := make([]levelGroup, 0, len(groups))
	for _, level := range query.Levels(groups) {
		out = append(out, levelGroup{Level: level, Count: len(groups[level]), Records: groups[level]})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"depth":  query.Depth(m.Index.Records()),
		"levels": out,
	})
}
