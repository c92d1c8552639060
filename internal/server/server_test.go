// ABOUTME: Tests for the server orchestrator
// ABOUTME: Starts real listeners and checks HTTP, gRPC health, seeding and shutdown

package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Vladimir-28/FitLife/internal/config"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

// testConfig creates a config with free ports and a database in a temp dir.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.HTTPAddr = freeAddr(t)
	cfg.Server.GRPCAddr = freeAddr(t)
	cfg.Database.Path = filepath.Join(t.TempDir(), "fitlife.db")
	cfg.Auth.JWTSecret = "server-test-secret-0123456789abc"
	cfg.Auth.BcryptCost = 4
	cfg.Auth.TokenTTL = time.Hour
	cfg.Auth.ResetTokenTTL = time.Hour
	cfg.Auth.ResetCooldown = time.Minute
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startServer runs srv in the background and waits until HTTP answers.
func startServer(t *testing.T, srv *Server) (cancel func(), done <-chan error) {
	t.Helper()
	ctx, cancelFn := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	url := "http://" + srv.config.Server.HTTPAddr + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	return cancelFn, errCh
}

func TestNew(t *testing.T) {
	srv, err := New(t.Context(), testConfig(t), testLogger())
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	assert.NotNil(t, srv.store)
	assert.NotNil(t, srv.accounts)
	assert.NotNil(t, srv.grpcServer)
	assert.NotNil(t, srv.health)
	assert.NotNil(t, srv.limiter)
}

func TestNew_WithoutGRPC(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.GRPCAddr = ""

	srv, err := New(t.Context(), cfg, testLogger())
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	assert.Nil(t, srv.grpcServer)
}

func TestNew_Errors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.JWTSecret = "short"
	_, err := New(t.Context(), cfg, testLogger())
	assert.ErrorContains(t, err, "JWT verifier")

	cfg = testConfig(t)
	cfg.Mail.Provider = "carrier-pigeon"
	_, err = New(t.Context(), cfg, testLogger())
	assert.ErrorContains(t, err, "mailer")
}

func TestRunAndShutdown(t *testing.T) {
	srv, err := New(t.Context(), testConfig(t), testLogger())
	require.NoError(t, err)

	cancel, done := startServer(t, srv)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}

	assert.Error(t, srv.store.Ping(context.Background()), "store should be closed after shutdown")
}

func TestRun_ServesAPI(t *testing.T) {
	cfg := testConfig(t)
	srv, err := New(t.Context(), cfg, testLogger())
	require.NoError(t, err)

	cancel, done := startServer(t, srv)
	defer func() {
		cancel()
		<-done
	}()

	base := "http://" + cfg.Server.HTTPAddr

	resp, err := http.Post(base+"/auth/register", "application/json",
		strings.NewReader(`{"name":"Ana Lopez","email":"ana@x.com","password":"secret1"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(base + "/health/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestRun_GRPCHealth(t *testing.T) {
	cfg := testConfig(t)
	srv, err := New(t.Context(), cfg, testLogger())
	require.NoError(t, err)

	cancel, done := startServer(t, srv)
	defer func() {
		cancel()
		<-done
	}()

	conn, err := grpc.NewClient(cfg.Server.GRPCAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client := healthpb.NewHealthClient(conn)
	require.Eventually(t, func() bool {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: HealthService})
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, 5*time.Second, 20*time.Millisecond)
}

func TestRun_ListenError(t *testing.T) {
	cfg := testConfig(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	cfg.Server.HTTPAddr = ln.Addr().String()

	srv, err := New(t.Context(), cfg, testLogger())
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	err = srv.Run(t.Context())
	assert.ErrorContains(t, err, "listening on HTTP address")
}

func TestSeed(t *testing.T) {
	cfg := testConfig(t)
	srv, err := New(t.Context(), cfg, testLogger())
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	ctx := t.Context()
	require.NoError(t, srv.Seed(ctx))
	// second run changes nothing
	require.NoError(t, srv.Seed(ctx))

	admin, err := srv.store.GetUserByEmail(ctx, "admin@fitlife.com")
	require.NoError(t, err)
	assert.Equal(t, "Administrador", admin.Name)

	n, err := srv.store.CountActivities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	users, err := srv.store.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, users)
}

func TestSeed_Disabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Seed = config.SeedConfig{}
	srv, err := New(t.Context(), cfg, testLogger())
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	require.NoError(t, srv.Seed(t.Context()))

	n, err := srv.store.CountActivities(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = srv.store.GetUserByEmail(t.Context(), "admin@fitlife.com")
	assert.Error(t, err)
}

func TestGRPCPort(t *testing.T) {
	assert.Equal(t, "9000", grpcPort("127.0.0.1:9000"))
	assert.Equal(t, defaultGRPCPort, grpcPort("127.0.0.1:0"))
	assert.Equal(t, defaultGRPCPort, grpcPort("nonsense"))
}

func TestResolveTailscaleAuthKey(t *testing.T) {
	t.Setenv("TS_AUTHKEY", "")
	_, err := resolveTailscaleAuthKey("")
	assert.Error(t, err)

	t.Setenv("TS_AUTHKEY", "tskey-env")
	key, err := resolveTailscaleAuthKey("")
	require.NoError(t, err)
	assert.Equal(t, "tskey-env", key)

	key, err = resolveTailscaleAuthKey("tskey-config")
	require.NoError(t, err)
	assert.Equal(t, "tskey-config", key)
}
