package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/navflat/internal/config"
	"github.com/dgallion1/navflat/internal/pipeline"
	"github.com/dgallion1/navflat/internal/stats"
	"github.com/dgallion1/navflat/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP API server for navflat.
type Server struct {
	router  chi.Router
	store   *store.MenuStore
	builder *pipeline.Builder
	stats   *stats.FlattenStats
	log     *slog.Logger
	cfg     config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(menus *store.MenuStore, builder *pipeline.Builder, fs *stats.FlattenStats, log *slog.Logger, cfg config.Config) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		store:   menus,
		builder: builder,
		stats:   fs,
		log:     log,
		cfg:     cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(Metrics)

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.Server.APIKey, s.log))

		r.Post("/api/flatten", s.handleFlatten)

		r.Get("/api/menus", s.handleListMenus)
		r.Post("/api/menus", s.handleCreateMenu)
		r.Post("/api/menus/batch", s.handleBatchCreate)

		r.Route("/api/menus/{menuID}", func(r chi.Router) {
			r.Get("/", s.handleGetMenu)
			r.Delete("/", s.handleDeleteMenu)
			r.Get("/find", s.handleFind)
			r.Get("/search", s.handleSearch)
			r.Get("/ancestors", s.handleAncestors)
			r.Get("/hierarchy", s.handleHierarchy)
			r.Get("/descendants", s.handleDescendants)
			r.Get("/children", s.handleChildren)
			r.Get("/levels", s.handleLevels)
		})

		r.Get("/api/stats/flatten", s.handleFlattenStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"menus":  s.store.Len(),
	})
}
