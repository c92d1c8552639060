// ABOUTME: Server orchestrator that wires the store, services and HTTP API together
// ABOUTME: Runs the HTTP server and optional gRPC health server until the context ends

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"tailscale.com/tsnet"

	"github.com/Vladimir-28/FitLife/internal/account"
	"github.com/Vladimir-28/FitLife/internal/activity"
	"github.com/Vladimir-28/FitLife/internal/api"
	"github.com/Vladimir-28/FitLife/internal/auth"
	"github.com/Vladimir-28/FitLife/internal/config"
	"github.com/Vladimir-28/FitLife/internal/mailer"
	"github.com/Vladimir-28/FitLife/internal/store"
	"github.com/Vladimir-28/FitLife/internal/throttle"
)

// HealthService is the service name reported by the gRPC health server.
const HealthService = "fitlife.Api"

const (
	defaultHealthInterval = 10 * time.Second
	shutdownTimeout       = 5 * time.Second
)

// Server owns every long-lived component of fitlife-api.
type Server struct {
	config      *config.Config
	store       *store.SQLiteStore
	accounts    *account.Service
	limiter     *throttle.Limiter
	httpServer  *http.Server
	grpcServer  *grpc.Server
	health      *health.Server
	tsnetServer *tsnet.Server
	logger      *slog.Logger

	// healthInterval is how often the store is pinged for the gRPC health status
	healthInterval time.Duration
}

// New opens the store and builds the services and servers described by cfg.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}

	srv, err := build(ctx, cfg, st, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return srv, nil
}

func build(ctx context.Context, cfg *config.Config, st *store.SQLiteStore, logger *slog.Logger) (*Server, error) {
	hasher, err := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("creating password hasher: %w", err)
	}

	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating JWT verifier: %w", err)
	}

	mail, err := mailer.New(ctx, cfg.Mail, logger)
	if err != nil {
		return nil, fmt.Errorf("creating mailer: %w", err)
	}

	opts := account.Options{
		ResetTokenTTL:    cfg.Auth.ResetTokenTTL,
		ExposeResetToken: cfg.Auth.ExposeResetToken,
	}
	var limiter *throttle.Limiter
	if cfg.Auth.ResetCooldown > 0 {
		limiter = throttle.New(cfg.Auth.ResetCooldown, 0)
		opts.ResetThrottle = limiter
	}

	accounts := account.NewService(st, hasher, verifier, mail, opts, logger)
	if cfg.Auth.ExposeResetToken {
		logger.Warn("auth.expose_reset_token is enabled; reset tokens are returned to clients")
	}

	handler := api.NewHandler(api.Deps{
		Accounts:   accounts,
		Activities: activity.NewService(st, logger),
		Users:      st,
		Verifier:   verifier,
		Store:      st,
		Logger:     logger,
	})

	srv := &Server{
		config:   cfg,
		store:    st,
		accounts: accounts,
		limiter:  limiter,
		httpServer: &http.Server{
			Addr:              cfg.Server.HTTPAddr,
			Handler:           handler.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger:         logger.With("component", "server"),
		healthInterval: defaultHealthInterval,
	}

	if cfg.Server.GRPCAddr != "" {
		srv.grpcServer, srv.health = newHealthServer()
	}
	return srv, nil
}

// newHealthServer creates a gRPC server exposing only the standard health service.
func newHealthServer() (*grpc.Server, *health.Server) {
	gs := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    15 * time.Second,
			Timeout: 5 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
	)
	hs := health.NewServer()
	hs.SetServingStatus(HealthService, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(gs, hs)
	return gs, hs
}

// Seed creates the admin account and the sample activities when the
// configuration asks for them. Both steps are idempotent.
func (s *Server) Seed(ctx context.Context) error {
	seed := s.config.Seed

	if seed.AdminEmail != "" && seed.AdminPassword != "" {
		created, err := s.accounts.EnsureAdmin(ctx, seed.AdminEmail, seed.AdminPassword)
		if err != nil {
			return fmt.Errorf("seeding admin: %w", err)
		}
		if created {
			s.logger.Warn("admin account created with the configured seed password; change it", "email", seed.AdminEmail)
		}
	}

	if seed.SampleActivities {
		if _, err := s.store.SeedSampleActivities(ctx); err != nil {
			return fmt.Errorf("seeding activities: %w", err)
		}
	}
	return nil
}

// setupTCPListeners creates standard TCP listeners. grpcLn is nil when gRPC is off.
func (s *Server) setupTCPListeners() (httpLn, grpcLn net.Listener, err error) {
	s.logger.Info("starting fitlife-api",
		"http_addr", s.config.Server.HTTPAddr,
		"grpc_addr", s.config.Server.GRPCAddr,
	)

	httpLn, err = net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("listening on HTTP address: %w", err)
	}

	if s.grpcServer == nil {
		return httpLn, nil, nil
	}

	grpcLn, err = net.Listen("tcp", s.config.Server.GRPCAddr)
	if err != nil {
		_ = httpLn.Close()
		return nil, nil, fmt.Errorf("listening on gRPC address: %w", err)
	}
	return httpLn, grpcLn, nil
}

// setupListeners creates listeners based on configuration (Tailscale or TCP).
func (s *Server) setupListeners(ctx context.Context) (httpLn, grpcLn net.Listener, err error) {
	if s.config.Tailscale.Enabled {
		if s.config.Server.HTTPAddr != "" {
			s.logger.Warn("server.http_addr is ignored when tailscale is enabled", "http_addr", s.config.Server.HTTPAddr)
		}
		return s.setupTailscaleListeners(ctx)
	}
	return s.setupTCPListeners()
}

// startServers starts the servers in goroutines, returning the error channel.
func (s *Server) startServers(httpLn, grpcLn net.Listener) chan error {
	errCh := make(chan error, 2)

	go func() {
		s.logger.Info("HTTP server listening", "addr", httpLn.Addr().String())
		if err := s.httpServer.Serve(httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	if grpcLn != nil {
		go func() {
			s.logger.Info("gRPC health server listening", "addr", grpcLn.Addr().String())
			if err := s.grpcServer.Serve(grpcLn); err != nil {
				errCh <- fmt.Errorf("gRPC server: %w", err)
			}
		}()
	}

	return errCh
}

// watchStore keeps the gRPC health status in line with database reachability.
func (s *Server) watchStore(ctx context.Context) {
	if s.health == nil {
		return
	}

	check := func() {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		status := healthpb.HealthCheckResponse_SERVING
		if err := s.store.Ping(pingCtx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			s.logger.Warn("database ping failed", "error", err)
		}
		s.health.SetServingStatus(HealthService, status)
		s.health.SetServingStatus("", status)
	}

	check()
	ticker := time.NewTicker(s.healthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

// waitForShutdownSignal waits for context cancellation or server error.
func (s *Server) waitForShutdownSignal(ctx context.Context, errCh chan error) error {
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
		return nil
	case err := <-errCh:
		s.logger.Error("server error", "error", err)
		s.drainErrors(errCh)
		return err
	}
}

func (s *Server) drainErrors(errCh chan error) {
	select {
	case additionalErr := <-errCh:
		s.logger.Error("additional server error", "error", additionalErr)
	default:
	}
}

// Run starts the servers and blocks until ctx is canceled or a server fails.
// It returns nil after a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	httpLn, grpcLn, err := s.setupListeners(ctx)
	if err != nil {
		return err
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go s.watchStore(watchCtx)

	errCh := s.startServers(httpLn, grpcLn)
	serverErr := s.waitForShutdownSignal(ctx, errCh)
	stopWatch()

	shutdownErr := s.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown runs Shutdown with a fresh context, since the run context
// is already canceled by the time it is called.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}

// shutdownGRPCServer gracefully stops the gRPC server or force-stops on context cancel.
func (s *Server) shutdownGRPCServer(ctx context.Context) {
	if s.grpcServer == nil {
		return
	}
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		s.grpcServer.Stop()
	}
}

// Shutdown stops the servers and closes the store last, so in-flight
// requests can still finish their queries.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}

	s.shutdownGRPCServer(ctx)

	if s.tsnetServer != nil {
		if err := s.tsnetServer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("tailscale shutdown: %w", err))
		}
	}
	if s.limiter != nil {
		s.limiter.Close()
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}

	return errors.Join(errs...)
}
