package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/api/controllers"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/api/middleware"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/api/routes"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/internal/documents"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/internal/listings"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/internal/notifications"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/internal/uploads"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/config"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/db"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/logger"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/metrics"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/migrate"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/pubsub"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/redis"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/resilience"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/storage"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/storage/gcs"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/storage/local"
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
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	pingers := map[string]controllers.Pinger{"db": dbClient}

	var rateStore middleware.RateStore = middleware.NewMemoryRateStore()
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		requireResource(ctx, logg, "redis", err)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		rateStore = redisClient
		pingers["redis"] = redisClient
	} else {
		logg.Warn(ctx, "redis not configured, upload rate limits are per instance")
	}

	// The backend choice is made once here and injected everywhere below.
	storageCfg := storage.ConfigurationFrom(cfg)
	localBackend, err := local.New(storageCfg.UploadRoot, storageCfg.PublicBaseURL, logg)
	requireResource(ctx, logg, "local storage", err)

	var cloudBackend storage.Backend
	if storageCfg.CloudEnabled() {
		exec := resilience.NewExecutor(resilience.ConfigFrom(cfg.Resilience), logg)
		gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, exec, logg)
		requireResource(ctx, logg, "gcs", err)
		defer gcsClient.Close()
		cloudBackend = gcsClient
		pingers["gcs"] = gcsClient
	}
	backends, err := storage.NewSet(storageCfg, localBackend, cloudBackend)
	requireResource(ctx, logg, "storage backends", err)
	logg.Info(logg.WithField(ctx, "storage_backend", string(storageCfg.PreferredBackend())), "storage configured")

	registry := metrics.NewRegistry()

	notificationsRepo := notifications.NewRepository(dbClient.DB())
	inApp, err := notifications.NewInAppDispatcher(notificationsRepo)
	requireResource(ctx, logg, "in-app dispatcher", err)
	dispatchers := []notifications.Dispatcher{inApp}

	if cfg.PubSub.Enabled() {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		requireResource(ctx, logg, "pubsub", err)
		defer func() {
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		publisher, err := notifications.NewTopicPublisher(psClient.NotificationPublisher())
		requireResource(ctx, logg, "pubsub publisher", err)
		psDispatcher, err := notifications.NewPubSubDispatcher(publisher)
		requireResource(ctx, logg, "pubsub dispatcher", err)
		dispatchers = append(dispatchers, psDispatcher)
		pingers["pubsub"] = psClient
	}
	dispatcher := notifications.NewFanout(dispatchers...)

	notificationsService, err := notifications.NewService(notificationsRepo)
	requireResource(ctx, logg, "notifications service", err)

	uploadService, err := uploads.NewService(backends, uploads.LimitsFrom(cfg.Uploads), logg, metrics.NewUploadMetrics(registry))
	requireResource(ctx, logg, "upload service", err)

	documentService, err := documents.NewService(
		documents.NewRepository(dbClient.DB()),
		dbClient,
		dispatcher,
		notifications.NewAdminDirectory(dbClient.DB()),
		uploadService,
		logg,
		metrics.NewVerificationMetrics(registry),
	)
	requireResource(ctx, logg, "document service", err)

	listingService, err := listings.NewService(listings.NewRepository(dbClient.DB()), dbClient, uploadService, documentService, logg)
	requireResource(ctx, logg, "listing service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Services{
			Uploads:       uploadService,
			Listings:      listingService,
			Documents:     documentService,
			Notifications: notificationsService,
		}, routes.Infra{
			Registry:  registry,
			RateStore: rateStore,
			Pingers:   pingers,
		}),
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
		return
	case <-ctx.Done():
	}

	logg.Info(serverCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(serverCtx, "graceful shutdown failed", err)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(ctx, "resource", resource), "failed to bootstrap "+resource, err)
	os.Exit(1)
}
