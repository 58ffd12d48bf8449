package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/the-snesler/samnesler.com/internal/core/converter"
	"github.com/the-snesler/samnesler.com/internal/core/feed"
	"github.com/the-snesler/samnesler.com/internal/core/playground"
	"github.com/the-snesler/samnesler.com/internal/shell/api"
	"github.com/the-snesler/samnesler.com/internal/shell/store"
	"github.com/the-snesler/samnesler.com/internal/shell/workers"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitDatabaseError   = 2
	ExitContentError    = 3
	ExitHTTPServerError = 4
)

// =============================================================================
// Server
// =============================================================================

// Server represents the site application server.
type Server struct {
	config      *Config
	httpServer  *http.Server
	store       store.Store
	contentSync *workers.ContentSync
	logger      *slog.Logger
}

// NewServer creates a new server with the given config.
func NewServer(cfg *Config, logger *slog.Logger) (*Server, error) {
	// Connect to database
	s, err := store.NewSQLiteStore(cfg.Database.DSN)
	if err != nil {
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitDatabaseError,
		}
	}

	// Verify the content directory exists
	if info, err := os.Stat(cfg.Content.Dir); err != nil || !info.IsDir() {
		s.Close()
		if err == nil {
			err = errors.New("content.dir is not a directory")
		}
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitContentError,
		}
	}

	// Create content sync worker
	contentSync := workers.NewContentSync(s, os.DirFS(cfg.Content.Dir), workers.ContentSyncConfig{
		Interval: cfg.Content.SyncInterval,
	}, logger)

	// Create converter orchestrator and simulated playground engine
	conv := converter.NewOrchestrator(converter.WithDebounce(cfg.Converter.Debounce))
	engine := playground.NewEngine(playground.WithBuildDelay(cfg.Playground.BuildDelay))

	site := feed.Site{
		BaseURL:     cfg.Site.BaseURL,
		Title:       cfg.Site.Title,
		Description: cfg.Site.Description,
	}

	// Create HTTP handler
	handler := api.NewHandler(s, conv, engine, site, logger)

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config:      cfg,
		httpServer:  httpServer,
		store:       s,
		contentSync: contentSync,
		logger:      logger,
	}, nil
}

// Start starts the server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start content sync in background
	s.contentSync.Start()

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server",
			"address", s.config.Server.Address())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		s.logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		return &ServerError{
			Op:       "Start",
			Err:      err,
			ExitCode: ExitHTTPServerError,
		}
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("initiating graceful shutdown")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	// Shutdown HTTP server
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	// Stop content sync worker
	s.contentSync.Stop()

	// Close database
	if err := s.store.Close(); err != nil {
		s.logger.Error("database close error", "error", err)
	}

	s.logger.Info("shutdown complete")
	return nil
}

// =============================================================================
// Server Error
// =============================================================================

// ServerError represents an error during server operation.
type ServerError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *ServerError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
