package photoservice

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yongikim/photolio-lambda-functions/internal/config"
	"github.com/yongikim/photolio-lambda-functions/internal/factory"
)

func TestStartupWindow(t *testing.T) {
	cfg := config.NewForTesting()
	// 2 * (30s + 2 stores * max(2s probe, 3s AWS timeout))
	assert.Equal(t, 72*time.Second, startupWindow(cfg))

	cfg.HealthProbeTimeoutSeconds = 10
	assert.Equal(t, 100*time.Second, startupWindow(cfg))

	cfg.HealthIntervalSeconds = 1
	cfg.HealthProbeTimeoutSeconds = 1
	cfg.AWSHTTPTimeoutSeconds = 1
	assert.Equal(t, minStartupWindow, startupWindow(cfg))
}

func TestHealthCheckersWithMemoryStores(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.NewForTesting()
	cfg.HealthIntervalSeconds = 1
	stores, err := factory.NewStores(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)

	svcHealth := startHealthCheckers(ctx, cfg, zerolog.Nop(), stores)
	waitCtx, waitCancel := context.WithTimeout(ctx, 5*time.Second)
	defer waitCancel()
	require.NoError(t, waitUntilHealthy(waitCtx, cfg, svcHealth))
	assert.True(t, svcHealth.IsHealthy())
}

func TestServeHTTP_BindFailureIsImmediate(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	_, err = serveHTTP(&http.Server{Addr: taken.Addr().String()}, zerolog.Nop())
	assert.Error(t, err)
}

func TestServeHTTP_ShutdownIsNotAnError(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	errCh, err := serveHTTP(srv, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, srv.Shutdown(context.Background()))
	select {
	case err := <-errCh:
		t.Fatalf("unexpected serve error: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNewServerContextFollowsParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := newServerContext(parent)
	defer stop()

	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("server context not cancelled with parent")
	}
}

func TestNewHTTPServerUsesConfiguredPort(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.HTTPPort = 9191
	srv := newHTTPServer(context.Background(), cfg, nil)
	assert.Equal(t, ":9191", srv.Addr)
}
