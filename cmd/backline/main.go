package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/backline-app/backline/internal/app"
	"github.com/backline-app/backline/internal/bookings"
	"github.com/backline-app/backline/internal/fleet"
	"github.com/backline-app/backline/internal/observability"
	"github.com/backline-app/backline/internal/offers"
	"github.com/backline-app/backline/internal/platform/cache"
	"github.com/backline-app/backline/internal/platform/db"
	"github.com/backline-app/backline/internal/projects"
	"github.com/backline-app/backline/internal/shared"
	"github.com/backline-app/backline/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, public offer cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	clock := shared.NewClock()

	projectRepo := projects.NewRepository(pool)
	fleetRepo := fleet.NewRepository(pool)
	allocator := fleet.NewAllocator(fleetRepo)

	offerRepo := offers.NewRepository(pool)
	offerService := offers.NewService(offerRepo, projectRepo, clock, shared.NewTokenGenerator(), logger)
	publicService := offers.NewPublicService(offerRepo, projectRepo, offerService, redisClient, cfg.PublicCacheTTL, logger)
	offerHandler := offers.NewHandler(logger, offerService, publicService)

	bookingRepo := bookings.NewRepository(pool)
	owners := bookings.NewOwnerDirectory(pool)
	materializer := bookings.NewMaterializer(bookingRepo, offerService, projectRepo, owners, allocator, metrics, clock, logger)
	bookingHandler := bookings.NewHandler(logger, materializer, bookingRepo, projectRepo)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Config:         cfg,
		Metrics:        metrics,
		OfferHandler:   offerHandler,
		BookingHandler: bookingHandler,
		JobHandler:     jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
