// Package server exposes import sessions over HTTP with gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/factory"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/importer"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Catalog is the read side of the dictionaries shown to API clients.
type Catalog interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	LoadCities(ctx context.Context) ([]models.City, error)
	ListUnrecognizedCities(ctx context.Context, limit int) ([]models.UnrecognizedCity, error)
}

// Options configures the HTTP layer.
type Options struct {
	AllowedOrigins []string
	SessionTTL     time.Duration
	MaxUploadBytes int64
	ParseOptions   factory.Options
	Delimiter      rune
}

// Server serves the import API.
type Server struct {
	engine   *gin.Engine
	manager  *importer.Manager
	catalog  Catalog
	mappings importer.MappingStore
	opts     Options
	logger   logging.Logger
}

// New builds the router. catalog and mappings may be nil; the endpoints
// that need them then answer 503.
func New(manager *importer.Manager, catalog Catalog, mappings importer.MappingStore, opts Options, logger logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = time.Hour
	}

	s := &Server{
		engine:   gin.New(),
		manager:  manager,
		catalog:  catalog,
		mappings: mappings,
		opts:     opts,
		logger:   logging.OrDefault(logger),
	}

	s.engine.Use(gin.Recovery(), s.requestLogger())
	if len(opts.AllowedOrigins) > 0 {
		s.engine.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Type"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	s.engine.MaxMultipartMemory = opts.MaxUploadBytes

	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, pruning idle sessions in the
// background, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.pruneLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", logging.F("address", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("Shutting down HTTP server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func (s *Server) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.SessionTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.manager.Prune(s.opts.SessionTTL)
		}
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("HTTP request",
			logging.F("method", c.Request.Method),
			logging.F("path", c.FullPath()),
			logging.F("status", c.Writer.Status()),
			logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	}
}
