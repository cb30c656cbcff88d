package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/wonny/aegis/v13/optimizer/pkg/config"
	"github.com/wonny/aegis/v13/optimizer/pkg/logger"
)

// Server represents the HTTP API server
// ⭐ SSOT: API 서버 설정은 이 파일에서만
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *logger.Logger

	mu    sync.RWMutex
	addr  string
	ready chan struct{}
}

// New creates a new API server; every timeout comes from cfg.API
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	if log == nil {
		log = logger.Nop()
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      router,
			ReadTimeout:  cfg.API.ReadTimeout,
			WriteTimeout: cfg.API.WriteTimeout,
			IdleTimeout:  cfg.API.IdleTimeout,
		},
		shutdownTimeout: cfg.API.ShutdownTimeout,
		logger:          log.WithComponent("api").WithField("env", cfg.Env),
		addr:            ":" + cfg.Port,
		ready:           make(chan struct{}),
	}
}

// Addr returns the bound address once Ready, the configured one before
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Ready is closed once Run accepts connections
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Run serves until ctx is done, then shuts down gracefully.
// Request contexts derive from ctx so running optimizations stop with the server.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	s.httpServer.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	s.logger.WithField("addr", s.Addr()).Info("API server listening")
	close(s.ready)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.WithField("timeout", s.shutdownTimeout).Info("Shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	<-errCh // http.ErrServerClosed

	s.logger.Info("API server stopped")
	return nil
}
