// ABOUTME: HTTP server wiring for teamup: store, services, routes and lifecycle
// ABOUTME: Opens the configured store driver and shuts down gracefully on cancel

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/2389/teamup/internal/account"
	"github.com/2389/teamup/internal/api"
	"github.com/2389/teamup/internal/auth"
	"github.com/2389/teamup/internal/config"
	"github.com/2389/teamup/internal/metrics"
	"github.com/2389/teamup/internal/repository"
	"github.com/2389/teamup/internal/store"
)

// readyTimeout bounds the store ping behind /health/ready.
const readyTimeout = 2 * time.Second

// Server is a configured teamup instance.
type Server struct {
	config     *config.Config
	store      store.Client
	accounts   *account.Service
	httpServer *http.Server
	logger     *slog.Logger
}

// OpenStore opens the store selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (store.Client, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		s, err := store.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return s, nil
	case config.DriverPostgres:
		s, err := store.NewPostgresStore(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return s, nil
	case config.DriverMemory:
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// Services are the domain services built on one store.
type Services struct {
	Repos    *repository.Repositories
	Accounts *account.Service
	Verifier *auth.JWTVerifier
	Registry *auth.Registry
}

// NewServices builds the repositories, the token verifier, the password
// hasher and the account service.
func NewServices(cfg *config.Config, client store.Client, logger *slog.Logger) (*Services, error) {
	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("creating JWT verifier: %w", err)
	}
	hasher, err := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("creating password hasher: %w", err)
	}

	repos := repository.New(client, logger)
	return &Services{
		Repos:    repos,
		Accounts: account.NewService(repos.Users, hasher, verifier, logger),
		Verifier: verifier,
		Registry: account.Principals(repos.Users),
	}, nil
}

// New creates a Server for cfg. The caller must Run or Shutdown it so the
// store is closed.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	client, err := OpenStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	srv, err := newServer(cfg, client, logger)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return srv, nil
}

func newServer(cfg *config.Config, client store.Client, logger *slog.Logger) (*Server, error) {
	services, err := NewServices(cfg, client, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:   cfg,
		store:    client,
		accounts: services.Accounts,
		logger:   logger.With("component", "server"),
	}

	mux := http.NewServeMux()

	// Health endpoints - no auth required
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/ready", s.handleReady)

	if cfg.Metrics.Enabled {
		reg := metrics.NewRegistry(services.Repos.Users, logger)
		mux.Handle("GET "+cfg.Metrics.Path, metrics.Handler(reg))
		s.logger.Info("metrics enabled", "path", cfg.Metrics.Path)
	}

	api.New(api.Config{
		Accounts: services.Accounts,
		Repos:    services.Repos,
		Verifier: services.Verifier,
		Registry: services.Registry,
		Logger:   logger,
	}).Register(mux)

	s.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           withLogging(s.logger, withRecovery(s.logger, mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Accounts returns the account service.
func (s *Server) Accounts() *account.Service {
	return s.accounts
}

// Run listens on server.http_addr and serves until ctx is canceled or the
// listener fails. Returns nil on graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		_ = s.store.Close()
		return fmt.Errorf("listening on %s: %w", s.config.Server.HTTPAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled or serving fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := s.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown uses a fresh context since the caller's is already canceled.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}

// Shutdown stops the HTTP server and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}
	return errors.Join(errs...)
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK if the store answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
