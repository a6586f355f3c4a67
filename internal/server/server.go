// Package server exposes generation and config-editor endpoints over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/upliftlab/affirmd/internal/kvstore"
	"github.com/upliftlab/affirmd/types"
)

// Generator abstracts the generation pipeline so handlers can be tested with
// a double.
type Generator interface {
	Generate(ctx context.Context, req types.GenerateRequest) (types.GenerationResult, error)
}

type Server struct {
	store     kvstore.Store
	generator Generator
	logger    *zap.Logger
	validate  *validator.Validate
	origins   map[string]struct{}
	server    *http.Server
}

// New builds the HTTP server on the given port. allowedOrigins is the CORS
// allowlist; an empty list reflects any origin, for local development.
func New(port int, allowedOrigins []string, store kvstore.Store, generator Generator, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}

	s := &Server{
		store:     store,
		generator: generator,
		logger:    logger,
		validate:  validator.New(),
		origins:   origins,
	}

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.registerRoutes(),
	}

	return s
}

// Start serves in the background, reporting a fatal listen error on errChan.
func (s *Server) Start(wg *sync.WaitGroup, errChan chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		s.logger.Info("http server listening", zap.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
