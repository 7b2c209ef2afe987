package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/reparalo-app/reparalo-backend/internal/cron"
	"github.com/reparalo-app/reparalo-backend/internal/media"
	"github.com/reparalo-app/reparalo-backend/internal/notifications"
	"github.com/reparalo-app/reparalo-backend/internal/shipments"
	"github.com/reparalo-app/reparalo-backend/pkg/config"
	"github.com/reparalo-app/reparalo-backend/pkg/correos"
	"github.com/reparalo-app/reparalo-backend/pkg/db"
	"github.com/reparalo-app/reparalo-backend/pkg/logger"
	"github.com/reparalo-app/reparalo-backend/pkg/metrics"
	"github.com/reparalo-app/reparalo-backend/pkg/migrate"
	"github.com/reparalo-app/reparalo-backend/pkg/outbox"
	"github.com/reparalo-app/reparalo-backend/pkg/redis"
	"github.com/reparalo-app/reparalo-backend/pkg/storage/gcs"
)

const lockKeyFormat = "reparalo:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing gcs", err)
		}
	}()

	gormDB := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	shipmentsService, err := shipments.NewService(shipments.NewRepository(gormDB), dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipments service", err)
		os.Exit(1)
	}

	carrier, err := correos.NewClient(
		cfg.Correos.APIKey,
		correos.WithBaseURL(cfg.Correos.BaseURL),
		correos.WithTimeout(cfg.Correos.HTTPTimeout),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create carrier client", err)
		os.Exit(1)
	}

	trackingJob, err := cron.NewTrackingReconcileJob(cron.TrackingReconcileJobParams{
		Logger:    logg,
		Shipments: shipmentsService,
		Carrier:   carrier,
		BatchSize: cfg.Tracking.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create tracking reconcile job", err)
		os.Exit(1)
	}

	mediaCleanupJob, err := cron.NewPendingMediaCleanupJob(cron.PendingMediaCleanupJobParams{
		Logger:    logg,
		MediaRepo: media.NewRepository(gormDB),
		Storage:   gcsClient,
		Bucket:    cfg.GCS.BucketName,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create pending media cleanup job", err)
		os.Exit(1)
	}

	notificationCleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: notifications.NewRepository(gormDB),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification cleanup job", err)
		os.Exit(1)
	}

	outboxRetentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outbox.NewRepository(gormDB),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(trackingJob, mediaCleanupJob, notificationCleanupJob, outboxRetentionJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Tracking.PollInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
