package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/backline-app/backline/internal/app"
	"github.com/backline-app/backline/internal/bookings"
	"github.com/backline-app/backline/internal/offers"
	"github.com/backline-app/backline/internal/platform/db"
	"github.com/backline-app/backline/jobs"
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

	bookingRepo := bookings.NewRepository(pool)
	offerRepo := offers.NewRepository(pool)

	purgeJob := jobs.NewPurgePeriodsJob(bookingRepo, logger)
	sweepJob := jobs.NewOfferSweepJob(offerRepo, logger)

	purgeTask, err := jobs.NewPurgePeriodsTask(jobs.PurgePeriodsPayload{Retention: cfg.PeriodRetention})
	if err != nil {
		logger.Error("build purge task", slog.Any("error", err))
		os.Exit(1)
	}
	sweepTask, err := jobs.NewOfferSweepTask(jobs.OfferSweepPayload{MaxAge: 30 * 24 * time.Hour})
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypePurgePeriods, Handler: purgeJob.Handle},
			{Type: jobs.TaskTypeOfferSweep, Handler: sweepJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: purgeTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 3 * * *", Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
