package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/celebrity-recognition/internal/config"
	"github.com/example/celebrity-recognition/internal/handlers"
	"github.com/example/celebrity-recognition/internal/health"
	"github.com/example/celebrity-recognition/internal/ratelimit"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web front-end",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runServe(cmd.Context(), cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	gin.SetMode(cfg.GinMode)

	uc, err := newRecognitionUseCase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return serve(ctx, cfg, logger, uc)
}

// serve runs the HTTP server, and the gRPC health server when configured,
// until ctx is done or either server fails.
func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger, uc handlers.Recognizer) error {
	router, err := handlers.NewRouter(logger, cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	var uploadMiddleware []gin.HandlerFunc
	if cfg.RateLimitEnabled() {
		redisCtx, redisCancel := context.WithTimeout(ctx, 5*time.Second)
		redisClient, err := initRedis(redisCtx, cfg.RateLimit.RedisAddr, logger)
		redisCancel()
		if err != nil {
			logger.Warn("upload rate limiting disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			limiter := ratelimit.NewLimiter(ratelimit.NewRedisCounter(redisClient), cfg.RateLimit.Limit, cfg.RateLimit.Window, logger)
			uploadMiddleware = append(uploadMiddleware, handlers.RateLimit(limiter))
		}
	}

	handlers.RegisterRoutes(router, uc, logger, uploadMiddleware...)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	var healthServer *health.Server
	if cfg.GRPCHealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCHealthAddr)
		if err != nil {
			return fmt.Errorf("failed to listen for grpc health on %s: %w", cfg.GRPCHealthAddr, err)
		}
		healthServer = health.NewServer(logger)
		server.RegisterOnShutdown(healthServer.MarkNotServing)
		g.Go(func() error {
			return healthServer.Serve(lis)
		})
	}

	g.Go(func() error {
		if healthServer != nil {
			defer healthServer.Stop()
		}
		logger.Info("celebrity recognition listening", zap.String("addr", cfg.HTTPAddr))
		return serveHTTPServer(gctx, server, cfg.ShutdownTimeout, logger, nil)
	})

	return g.Wait()
}

func initRedis(ctx context.Context, addr string, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("redis connection failed", zap.Error(err), zap.String("addr", addr))
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// serveHTTPServer runs server until it fails or ctx is done, then shuts it
// down gracefully within shutdownTimeout. A nil listener means ListenAndServe.
func serveHTTPServer(ctx context.Context, server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down http server", zap.NamedError("cause", context.Cause(ctx)))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
