package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Server runs the sandbox API over HTTP.
//
// A Server is created stopped. Start (or Serve) blocks until its context is cancelled,
// after which the server shuts down gracefully within Config.ShutdownTimeout.
type Server struct {
	server        *http.Server
	metricsServer *http.Server
	registry      *prometheus.Registry
	config        Config
	clock         Clock
	logger        *zap.Logger
	addr          net.Addr
	addrLock      sync.Mutex
	shutdownOnce  sync.Once
}

// NewServer creates a server for cfg. The uptime clock starts now. Request metrics are
// always recorded; they are only served when cfg.MetricsPort is set.
func NewServer(cfg Config, logger *zap.Logger) *Server {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := NewClock()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := NewMetrics(registry)

	s := &Server{
		server: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      NewRouter(clock, logger, WithMetrics(metrics)),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		registry: registry,
		config:   cfg,
		clock:    clock,
		logger:   logger,
	}
	if addr := cfg.MetricsAddr(); addr != "" {
		s.metricsServer = &http.Server{
			Addr:        addr,
			Handler:     MetricsHandler(registry),
			ReadTimeout: cfg.ReadTimeout,
		}
	}
	return s
}

// Registry is the Prometheus registry holding the server's metrics.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Start listens on the configured address and serves until ctx is cancelled. When a
// metrics port is configured, metrics are served on it for the same lifetime.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.Addr(), err)
	}
	if s.metricsServer != nil {
		metricsLn, err := net.Listen("tcp", s.metricsServer.Addr)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("listening on %s: %w", s.metricsServer.Addr, err)
		}
		go s.serveMetrics(metricsLn)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) serveMetrics(ln net.Listener) {
	s.logger.Info("Metrics listening", zap.String("addr", ln.Addr().String()))
	if err := s.metricsServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Metrics server failed", zap.Error(err))
	}
}

// Serve serves on ln until ctx is cancelled or the listener fails. It returns nil after a
// graceful shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.addrLock.Lock()
	s.addr = ln.Addr()
	s.addrLock.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Sandbox API listening",
			zap.String("addr", ln.Addr().String()),
			zap.Time("started_at", s.clock.StartedAt()),
		)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutdown signal received")
		// ctx is already done, so shutdown gets its own deadline
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errCh:
		// stop the metrics listener too
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		_ = s.Stop(shutdownCtx)
		return fmt.Errorf("sandbox API server failed: %w", err)
	}
}

// Stop shuts the server down gracefully. It is safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.metricsServer != nil {
			if err := s.metricsServer.Shutdown(ctx); err != nil {
				s.logger.Warn("Metrics shutdown failed", zap.Error(err))
			}
		}
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("sandbox API shutdown: %w", err)
			s.logger.Error("Shutdown failed", zap.Error(err))
			return
		}
		s.logger.Info("Sandbox API stopped")
	})
	return shutdownErr
}

// Addr is the address being served, or nil before Serve has been called.
func (s *Server) Addr() net.Addr {
	s.addrLock.Lock()
	defer s.addrLock.Unlock()
	return s.addr
}
