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

	"github.com/audithub/audithub/internal/app"
	"github.com/audithub/audithub/internal/directory"
	"github.com/audithub/audithub/internal/grants"
	"github.com/audithub/audithub/internal/identity"
	"github.com/audithub/audithub/internal/observability"
	"github.com/audithub/audithub/internal/ordering"
	"github.com/audithub/audithub/internal/platform/cache"
	"github.com/audithub/audithub/internal/platform/db"
	"github.com/audithub/audithub/internal/platform/idp"
	"github.com/audithub/audithub/internal/shared"
	"github.com/audithub/audithub/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	verifier := idp.NewVerifier(cfg.IDPURL)
	adminClient, err := idp.NewAdmin(cfg.IDPURL, cfg.IDPServiceKey)
	if err != nil {
		logger.Error("init idp admin client", slog.Any("error", err))
		os.Exit(1)
	}

	profileRepo := identity.NewRepository(dbpool)
	resolver := identity.NewResolver(verifier, profileRepo)

	auditLogger := shared.NewAuditLogger(dbpool)
	locker := shared.NewRedisLocker(redisClient)
	metrics := observability.NewMetrics()

	grantsRepo := grants.NewRepository(dbpool)
	grantsService := grants.NewService(grantsRepo, locker)
	grantsHandler := grants.NewHandler(logger, grantsService, metrics)

	directoryRepo := directory.NewRepository(dbpool)
	directoryService := directory.NewService(adminClient, directoryRepo, grantsRepo, auditLogger, metrics, logger, directory.ServiceConfig{
		ListPageSize: cfg.ListPageSize,
		ListMaxPages: cfg.ListMaxPages,
	})
	directoryHandler := directory.NewHandler(logger, directoryService)

	orderingRepo := ordering.NewRepository(dbpool)
	orderingService := ordering.NewService(orderingRepo)
	orderingHandler := ordering.NewHandler(logger, orderingService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Resolver:         resolver,
		DirectoryHandler: directoryHandler,
		GrantsHandler:    grantsHandler,
		OrderingHandler:  orderingHandler,
		JobsHandler:      jobsHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
