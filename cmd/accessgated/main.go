package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/accessgate/accessgate/internal/app"
	"github.com/accessgate/accessgate/internal/authz"
	"github.com/accessgate/accessgate/internal/identity"
	"github.com/accessgate/accessgate/internal/observability"
	"github.com/accessgate/accessgate/internal/platform/cache"
	"github.com/accessgate/accessgate/internal/platform/db"
	"github.com/accessgate/accessgate/internal/registry"
	"github.com/accessgate/accessgate/internal/request"
	"github.com/accessgate/accessgate/internal/shared"
	"github.com/accessgate/accessgate/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Error("ensure schema", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	identityStore := identity.NewStore(redisClient)
	guard := authz.NewGuard(identityStore)
	identityService := identity.NewService(identityStore, guard, logger)

	// The deploying principal becomes Admin on every start, the same way a
	// redeploy re-grants Admin to the upgrader.
	if err := identityService.EnsureAdmin(ctx, shared.Principal(cfg.BootstrapPrincipal)); err != nil {
		logger.Error("bootstrap admin", slog.Any("error", err))
		os.Exit(1)
	}

	registryStore := registry.NewStore(redisClient)
	registryService := registry.NewService(registryStore, identityStore, guard, logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobsClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	requestRepo := request.NewRepository(pool)
	lifecycle := request.NewLifecycle(requestRepo, logger)
	requestService := request.NewService(requestRepo, lifecycle, guard, jobsClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		IdentityHandler: identity.NewHandler(logger, identityService),
		RegistryHandler: registry.NewHandler(logger, registryService),
		RequestHandler:  request.NewHandler(logger, requestService),
		JobHandler:      jobs.NewHandler(asynq.NewInspector(redisOpts), logger),
		Metrics:         observability.NewMetrics(),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server run", slog.Any("error", err))
		os.Exit(1)
	}
}
