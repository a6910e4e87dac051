package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/muurk/luxws/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Config holds the server configuration
type Config struct {
	Listen string // host:port, ":8080" listens on all interfaces
}

// Server serves the HTTP surface of the daemon.
type Server struct {
	config     *Config
	httpServer *http.Server

	// Cancels every request context, releasing requests still waiting
	// for the first snapshot.
	cancelBase context.CancelFunc

	mu       sync.Mutex
	listener net.Listener
}

// New creates a new Server instance
func New(config *Config, snap Snapshot, status StatusSource, gatherer prometheus.Gatherer) *Server {
	base, cancel := context.WithCancel(context.Background())
	return &Server{
		config: config,
		httpServer: &http.Server{
			Handler:           NewHandler(snap, status, gatherer),
			ReadHeaderTimeout: readHeaderTimeout,
			BaseContext:       func(net.Listener) context.Context { return base },
		},
		cancelBase: cancel,
	}
}

// Listen binds the listener without serving. Start calls it when needed.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}
	s.listener = listener
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Listen
}

// Start serves until ctx is cancelled or the listener fails, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	logging.Info("HTTP server listening",
		zap.String("addr", s.Addr()),
	)

	errChan := make(chan error, 1)
	go func() {
		s.mu.Lock()
		listener := s.listener
		s.mu.Unlock()
		errChan <- s.httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down HTTP server...")
	s.cancelBase()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
		return s.httpServer.Close()
	}

	logging.Info("All connections closed gracefully")
	return nil
}
