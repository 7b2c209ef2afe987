package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/reparalo-app/reparalo-backend/api/routes"
	"github.com/reparalo-app/reparalo-backend/internal/auth"
	"github.com/reparalo-app/reparalo-backend/internal/media"
	"github.com/reparalo-app/reparalo-backend/internal/messaging"
	"github.com/reparalo-app/reparalo-backend/internal/negotiation"
	"github.com/reparalo-app/reparalo-backend/internal/notifications"
	"github.com/reparalo-app/reparalo-backend/internal/offers"
	"github.com/reparalo-app/reparalo-backend/internal/requests"
	"github.com/reparalo-app/reparalo-backend/internal/reviews"
	"github.com/reparalo-app/reparalo-backend/internal/shipments"
	"github.com/reparalo-app/reparalo-backend/internal/users"
	"github.com/reparalo-app/reparalo-backend/pkg/auth/session"
	"github.com/reparalo-app/reparalo-backend/pkg/config"
	"github.com/reparalo-app/reparalo-backend/pkg/db"
	"github.com/reparalo-app/reparalo-backend/pkg/logger"
	"github.com/reparalo-app/reparalo-backend/pkg/migrate"
	"github.com/reparalo-app/reparalo-backend/pkg/outbox"
	"github.com/reparalo-app/reparalo-backend/pkg/redis"
	"github.com/reparalo-app/reparalo-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	svcs, err := buildServices(cfg, logg, dbClient, gcsClient, sessionManager)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, gcsClient, sessionManager, svcs),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	gcsClient *gcs.Client,
	sessionManager *session.Manager,
) (routes.Services, error) {
	gormDB := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(gormDB),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return routes.Services{}, err
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}

	usersService, err := users.NewService(users.NewRepository(gormDB))
	if err != nil {
		return routes.Services{}, err
	}

	shipmentsService, err := shipments.NewService(shipments.NewRepository(gormDB), dbClient, outboxService)
	if err != nil {
		return routes.Services{}, err
	}

	requestsService, err := requests.NewService(requests.NewRepository(gormDB), dbClient, outboxService, shipmentsService)
	if err != nil {
		return routes.Services{}, err
	}

	offersService, err := offers.NewService(offers.NewRepository(gormDB), dbClient, outboxService)
	if err != nil {
		return routes.Services{}, err
	}

	negotiationService, err := negotiation.NewService(negotiation.NewRepository(gormDB), dbClient, outboxService)
	if err != nil {
		return routes.Services{}, err
	}

	mediaService, err := media.NewService(media.ServiceParams{
		Repo:                media.NewRepository(gormDB),
		GCS:                 gcsClient,
		Bucket:              cfg.GCS.BucketName,
		UploadTTL:           cfg.GCS.UploadURLExpiry,
		DownloadTTL:         cfg.GCS.DownloadURLExpiry,
		MaxUploadMB:         cfg.Media.MaxUploadMB,
		MaxImagesPerRequest: cfg.Media.MaxImagesPerRequest,
	})
	if err != nil {
		return routes.Services{}, err
	}

	messagingService, err := messaging.NewService(messaging.NewRepository(gormDB), dbClient, outboxService)
	if err != nil {
		return routes.Services{}, err
	}

	reviewsService, err := reviews.NewService(reviews.NewRepository(gormDB), dbClient, outboxService)
	if err != nil {
		return routes.Services{}, err
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(gormDB))
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:          authService,
		Register:      registerService,
		Users:         usersService,
		Requests:      requestsService,
		Offers:        offersService,
		Negotiation:   negotiationService,
		Shipments:     shipmentsService,
		Media:         mediaService,
		Messaging:     messagingService,
		Reviews:       reviewsService,
		Notifications: notificationsService,
	}, nil
}
