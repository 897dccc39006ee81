// Package server assembles the taskgate HTTP stack and runs it until the
// context is cancelled.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/teilomillet/taskgate/config"
	"github.com/teilomillet/taskgate/server/handlers"
	"github.com/teilomillet/taskgate/server/metrics"
	"github.com/teilomillet/taskgate/server/processing"
	"github.com/teilomillet/taskgate/server/routing"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NewHandler builds the processor, the endpoint handlers and the router on
// top of client. m may be nil, in which case no metrics are recorded.
func NewHandler(cfg *config.Config, client processing.Inference, m *metrics.Metrics, logger *zap.Logger) (http.Handler, error) {
	proc, err := processing.NewProcessor(cfg.Processing, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create processor: %w", err)
	}

	var observer handlers.ErrorObserver
	if m != nil {
		observer = m
	}

	return routing.NewRouter(cfg, routing.Handlers{
		Root:    http.HandlerFunc(handlers.RootHandler),
		Health:  http.HandlerFunc(handlers.HealthHandler),
		Process: handlers.NewProcessHandler(proc, cfg.Server.MaxBodyBytes, logger, observer),
	}, m, logger), nil
}

// Server represents the HTTP server
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *zap.Logger
}

// NewServer creates a new server instance
func NewServer(cfg config.ServerConfig, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			MaxHeaderBytes:    cfg.MaxHeaderBytes,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start listens on the configured address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully, giving in-flight requests up to the shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Server started", zap.String("address", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.logger.Info("Shutting down server")
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error during server shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
