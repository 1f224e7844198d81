package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/audithub/audithub/internal/app"
	jobmetrics "github.com/audithub/audithub/internal/jobs"
	"github.com/audithub/audithub/internal/ordering"
	"github.com/audithub/audithub/internal/platform/db"
	"github.com/audithub/audithub/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	orderingRepo := ordering.NewRepository(pool)
	orderingService := ordering.NewService(orderingRepo)
	metrics := jobmetrics.NewMetrics(nil)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskOrderingNormalize, Handler: jobs.NewNormalizeOrderHandler(orderingService, logger, metrics)},
			{Type: jobs.TaskOrderingSweep, Handler: jobs.NewOrderingSweepHandler(orderingService, logger, metrics)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.NormalizeCron, Task: jobs.NewOrderingSweepTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("queue", jobs.QueueDefault))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker exit", slog.Any("error", err))
		os.Exit(1)
	}
}
