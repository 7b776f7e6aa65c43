package photoservice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/yongikim/photolio-lambda-functions/internal/api"
	"github.com/yongikim/photolio-lambda-functions/internal/config"
	"github.com/yongikim/photolio-lambda-functions/internal/factory"
	"github.com/yongikim/photolio-lambda-functions/internal/health"
	"github.com/yongikim/photolio-lambda-functions/internal/logger"
	"github.com/yongikim/photolio-lambda-functions/internal/photoid"
	"github.com/yongikim/photolio-lambda-functions/internal/services"
)

// Run starts the photo service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("photo-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	log = logger.WithLevel(log, cfg.LogLevel)

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("store_driver", cfg.StoreDriver).
		Int("http_port", cfg.HTTPPort).
		Msg("Photo service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext(context.Background())
	defer stop()

	stores, err := factory.NewStores(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapters unavailable")
		return err
	}

	svc := services.NewPhotoService(stores.Metadata, stores.Objects, photoid.NewULID(), services.Options{
		DefaultAlbumID:    cfg.DefaultAlbumID,
		ListLimit:         cfg.ListLimit,
		DeleteConcurrency: cfg.DeleteConcurrency,
	}, log)

	svcHealth := startHealthCheckers(ctx, cfg, log, stores)
	router := api.NewRouter(svc, svcHealth.IsHealthy, log)

	// Block startup until dependencies report healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh, err := serveHTTP(server, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("HTTP server failed to bind")
		return err
	}

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		// in-flight requests cannot outlive the write timeout
		ctxShutdown, cancel := context.WithTimeout(context.Background(), server.WriteTimeout)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// storeCount is the number of stores startHealthCheckers probes.
const storeCount = 2

// startHealthCheckers starts one checker per store and the service-level aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, stores *factory.Stores) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	checkers := []health.HealthChecker{
		health.NewPingChecker("metadata-store", stores.MetadataPinger, log, probeTimeout),
		health.NewPingChecker("object-store", stores.ObjectsPinger, log, probeTimeout),
	}
	for _, c := range checkers {
		go c.Start(ctx, interval)
	}

	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	go svcHealth.Start(ctx, interval)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

// serveHTTP binds the listener before returning so a taken port fails Run
// directly; serve errors after that arrive on the channel.
func serveHTTP(server *http.Server, log zerolog.Logger) (<-chan error, error) {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", server.Addr, err)
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("HTTP server listening")
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh, nil
}

// minStartupWindow bounds startupWindow from below.
const minStartupWindow = 15 * time.Second

// startupWindow is how long Run waits for both stores to report healthy:
// two check rounds, each allowed to spend the longer of the probe timeout
// and the AWS HTTP timeout on every store.
func startupWindow(cfg *config.Config) time.Duration {
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second
	probe := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	if t := cfg.AWSHTTPTimeout(); t > probe {
		probe = t
	}
	window := 2 * (interval + storeCount*probe)
	if window < minStartupWindow {
		return minStartupWindow
	}
	return window
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	window := startupWindow(cfg)
	deadline := time.Now().Add(window)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: %s stores %v not healthy within %s", cfg.StoreDriver, svcHealth.Unhealthy(), window)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext derives the server context from parent and cancels it on SIGINT/SIGTERM.
func newServerContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
