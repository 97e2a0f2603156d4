package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"starmatch/internal/adapter"
	"starmatch/internal/apiclient"
	"starmatch/internal/cache"
	"starmatch/internal/camera"
	"starmatch/internal/config"
	"starmatch/internal/domain"
	"starmatch/internal/handler"
	"starmatch/internal/logger"
	"starmatch/internal/service"
	"starmatch/internal/session"
	"starmatch/internal/view"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

// NewServeCmd builds the subcommand that runs the web frontend.
func NewServeCmd(configPath *string) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web frontend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath, port)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (overrides server.port)")
	return cmd
}

func runServe(ctx context.Context, configPath string, portFlag int) error {
	cfg, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()
	appLogger := logger.Get()

	if portFlag > 0 {
		cfg.Server.Port = portFlag
	}

	handoffCache, closeCache, err := newCache(ctx, cfg.Redis)
	if err != nil {
		appLogger.Error("Failed to connect to Redis", zap.Error(err))
		return err
	}
	defer closeCache()

	client := apiclient.New(cfg.BackendOrigin(), cfg.Backend.Timeout, cfg.Backend.Auth)
	appLogger.Info("Backend client initialized", zap.String("base_url", cfg.BackendOrigin()))

	registry := session.NewRegistry(newFactory(client, newCameraDevice(cfg.Camera, cfg.Backend.Timeout), cfg.Camera.JPEGQuality), cfg.Session.IdleTTL)

	auth, err := service.NewAdminAuthService(cfg.Admin)
	if err != nil {
		appLogger.Error("Failed to initialize admin auth", zap.Error(err))
		return err
	}
	if !auth.Enabled() {
		appLogger.Warn("admin.password is not set; the admin panel is open")
	}

	pages, err := view.Load()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	app := handler.NewApp(handler.AppConfig{
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		PublicURL:      cfg.Server.PublicURL,
		BackendBaseURL: cfg.Backend.BaseURL,
		SessionTTL:     cfg.Session.IdleTTL,
		JPEGQuality:    cfg.Camera.JPEGQuality,
	}, handler.Deps{
		Pages:    pages,
		Registry: registry,
		Handoffs: service.NewHandoffStore(handoffCache, cfg.Handoff.TTL),
		Auth:     auth,
		Cache:    handoffCache,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		appLogger.Info("Starting server", zap.String("address", addr), zap.String("public_url", cfg.Server.PublicURL))
		return app.Listen(addr)
	})
	g.Go(func() error {
		return registry.Run(gctx, sweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := app.ShutdownWithContext(shutdownCtx)
		// Releases camera streams still held by open sessions.
		registry.Close()
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Server stopped with error", zap.Error(err))
		return err
	}
	appLogger.Info("Server exited gracefully")
	return nil
}

// newCache returns the redis-backed handoff cache when redis.address is
// set, otherwise an in-process one.
func newCache(ctx context.Context, redisCfg config.RedisConfig) (domain.Cache, func(), error) {
	if redisCfg.Address == "" {
		logger.Get().Warn("redis.address is not set; handoffs are kept in process memory")
		return adapter.NewMemoryCache(), func() {}, nil
	}
	client, err := cache.NewRedisClient(ctx, redisCfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Get().Info("Successfully connected to Redis", zap.String("address", redisCfg.Address))
	return adapter.NewRedisCacheAdapter(client), func() {
		if err := client.Close(); err != nil {
			logger.Get().Warn("Failed to close Redis client", zap.Error(err))
		}
	}, nil
}

func newCameraDevice(cfg config.CameraConfig, timeout time.Duration) camera.Device {
	switch cfg.Driver {
	case "snapshot":
		return camera.NewSnapshotDevice(cfg.URL, &http.Client{Timeout: timeout})
	case "websocket":
		return camera.NewWebSocketDevice(cfg.URL)
	default:
		return camera.Unavailable{}
	}
}

func newFactory(client *apiclient.Client, device camera.Device, jpegQuality int) session.Factory {
	return session.Factory{
		Quiz:        client,
		Selfie:      client,
		Result:      client,
		Questions:   client.Questions(),
		Characters:  client.Characters(),
		Camera:      device,
		JPEGQuality: jpegQuality,
	}
}
