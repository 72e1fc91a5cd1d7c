// Package server provides the HTTP API for Deckform.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/deckform/deckform/internal/assets"
	"github.com/deckform/deckform/internal/compose"
	"github.com/deckform/deckform/internal/config"
	"github.com/deckform/deckform/internal/convert"
	"github.com/deckform/deckform/internal/index"
	"github.com/deckform/deckform/internal/storage"
	"github.com/deckform/deckform/internal/thumbnail"
	"github.com/deckform/deckform/internal/watcher"
)

// Server is the HTTP server for the Deckform API.
type Server struct {
	converter *convert.Converter
	composer  *compose.Composer
	extractor *assets.Extractor
	renderer  thumbnail.Renderer
	store     storage.Store
	binStore  storage.BinaryStore
	idx       *index.Index
	inbox     *watcher.Inbox
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	converter *convert.Converter,
	composer *compose.Composer,
	extractor *assets.Extractor,
	renderer thumbnail.Renderer,
	store storage.Store,
	binStore storage.BinaryStore,
	idx *index.Index,
	inbox *watcher.Inbox,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		converter: converter,
		composer:  composer,
		extractor: extractor,
		renderer:  renderer,
		store:     store,
		binStore:  binStore,
		idx:       idx,
		inbox:     inbox,
		config:    cfg,
		logger:    logger,
	}
}

// Router builds the chi router with all API routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/convert", s.handleConvert)
	r.Post("/api/v1/compose", s.handleCompose)
	r.Post("/api/v1/assets/extract", s.handleExtractAssets)
	r.Post("/api/v1/thumbnail", s.handleThumbnail)
	r.Get("/api/v1/presentations", s.handleListPresentations)
	r.Get("/api/v1/presentations/{id}", s.handleGetPresentation)
	r.Delete("/api/v1/presentations/{id}", s.handleDeletePresentation)
	r.Get("/api/v1/presentations/{id}/assets", s.handleListAssets)
	r.Get("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/api/v1/watch/directories", s.handleListWatchDirectories)
	r.Post("/api/v1/watch/directories", s.handleAddWatchDirectory)
	r.Delete("/api/v1/watch/directories", s.handleRemoveWatchDirectory)
	r.Get("/health", s.handleHealth)

	if s.config != nil && s.config.Storage.AssetDir != "" {
		fs := http.StripPrefix("/assets/", http.FileServer(http.Dir(s.config.Storage.AssetDir)))
		r.Get("/assets/*", fs.ServeHTTP)
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
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
