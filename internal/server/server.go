// Package server provides the HTTP API for CampusLens.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/campuslens/campuslens/internal/catalog"
	"github.com/campuslens/campuslens/internal/config"
	"github.com/campuslens/campuslens/internal/fetcher"
	"github.com/campuslens/campuslens/internal/llm"
	"github.com/campuslens/campuslens/internal/prompt"
	"github.com/campuslens/campuslens/internal/resolver"
	"github.com/campuslens/campuslens/internal/storage"
)

// Server is the HTTP server for the CampusLens API.
type Server struct {
	resolver *resolver.Resolver
	fetcher  *fetcher.Fetcher
	composer *prompt.Composer
	model    llm.Client
	storage  storage.Storage
	index    *storage.ScholarshipIndex
	catalog  *catalog.Catalog
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	res *resolver.Resolver,
	fet *fetcher.Fetcher,
	composer *prompt.Composer,
	model llm.Client,
	store storage.Storage,
	index *storage.ScholarshipIndex,
	cat *catalog.Catalog,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		resolver: res,
		fetcher:  fet,
		composer: composer,
		model:    model,
		storage:  store,
		index:    index,
		catalog:  cat,
		config:   cfg,
		logger:   logger,
	}
}

// Handler builds the full route tree. Exposed so tests can mount the API on
// an httptest server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Get("/api/v1/institutions", s.handleListInstitutions)
		r.Get("/api/v1/institutions/{key}", s.handleGetInstitution)
		r.Get("/api/v1/institutions/{key}/scholarships", s.handleInstitutionScholarships)
		r.Get("/api/v1/catalog", s.handleCatalog)
		r.Get("/api/v1/status", s.handleStatus)
		r.Get("/health", s.handleHealth)
	})

	// The chat endpoint streams for as long as the model talks; no fixed
	// timeout, cancellation comes from the client disconnecting.
	r.Post("/api/v1/chat", s.handleChat)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
