// Copyright 2026 Veritom Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/veritom/knowbase/config"
	"github.com/veritom/knowbase/ingest"
	"github.com/veritom/knowbase/search"
	"github.com/veritom/knowbase/storage"
)

var (
	// ErrSearcherRequired is returned when a searcher is not provided.
	ErrSearcherRequired = errors.New("searcher required")

	// ErrPipelineRequired is returned when an ingest pipeline is not provided.
	ErrPipelineRequired = errors.New("ingest pipeline required")

	// ErrGateRequired is returned when an ingest gate is not provided.
	ErrGateRequired = errors.New("ingest gate required")

	// ErrStoreRequired is returned when a vector store is not provided.
	ErrStoreRequired = errors.New("vector store required")

	// ErrSettingsRequired is returned when runtime settings are not provided.
	ErrSettingsRequired = errors.New("settings required")
)

// Server is the HTTP front of the retrieval core.
type Server struct {
	echo     *echo.Echo
	searcher *search.Searcher
	pipeline *ingest.Pipeline
	gate     *ingest.Gate
	store    storage.VectorStore
	settings *config.Settings
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewServer wires the HTTP routes over the given collaborators.
func NewServer(
	searcher *search.Searcher,
	pipeline *ingest.Pipeline,
	gate *ingest.Gate,
	store storage.VectorStore,
	settings *config.Settings,
	opts ...Option,
) (*Server, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	if gate == nil {
		return nil, ErrGateRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}
	if settings == nil {
		return nil, ErrSettingsRequired
	}

	s := &Server{
		searcher: searcher,
		pipeline: pipeline,
		gate:     gate,
		store:    store,
		settings: settings,
		logger:   slog.Default().With("component", "http-server"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	s.registerRoutes(e)
	s.echo = e

	return s, nil
}

func (s *Server) registerRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")

	api.POST("/search", s.handleSearch)
	api.POST("/documents", s.handleIngest)

	api.GET("/collections", s.handleListCollections)
	api.DELETE("/collections/:name", s.handleClearCollection)
	api.GET("/collections/:name/documents/:id", s.handleGetDocument)
	api.DELETE("/collections/:name/documents/:id", s.handleDeleteDocument)

	api.GET("/config/similarity-threshold", s.handleGetThreshold)
	api.PUT("/config/similarity-threshold", s.handleSetThreshold)
	api.GET("/config/top-results", s.handleGetTopResults)
	api.PUT("/config/top-results", s.handleSetTopResults)
}

// Handler exposes the underlying HTTP handler, mostly for tests.
func (s *Server) Handler() *echo.Echo {
	return s.echo
}

// Start listens on addr and serves until Shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
