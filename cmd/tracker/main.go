package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/fitgrid/settlement-tracker/internal/authority"
	"github.com/fitgrid/settlement-tracker/internal/config"
	"github.com/fitgrid/settlement-tracker/internal/handler"
	"github.com/fitgrid/settlement-tracker/internal/infra/postgresql"
	"github.com/fitgrid/settlement-tracker/internal/infra/postgresql/migrations"
	infraredis "github.com/fitgrid/settlement-tracker/internal/infra/redis"
	"github.com/fitgrid/settlement-tracker/internal/membership"
	"github.com/fitgrid/settlement-tracker/internal/notify"
	"github.com/fitgrid/settlement-tracker/internal/observability"
	"github.com/fitgrid/settlement-tracker/internal/queue"
	"github.com/fitgrid/settlement-tracker/internal/repository"
	"github.com/fitgrid/settlement-tracker/internal/tracker"
	"github.com/fitgrid/settlement-tracker/internal/transport"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger: ", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	publisher := queue.NewRabbitMQPublisher(rabbit)
	defer publisher.Close()

	statusAuthority, err := authority.NewClient(cfg.AuthorityBaseURL, cfg.AuthorityAPIKey)
	if err != nil {
		logger.Fatal("authority client initialization failed", zap.Error(err))
	}

	dedupStore, err := infraredis.NewDedupStore(rdb)
	if err != nil {
		logger.Fatal("dedup store initialization failed", zap.Error(err))
	}

	queueSink, err := queue.NewNotificationSink(publisher)
	if err != nil {
		logger.Fatal("notification sink initialization failed", zap.Error(err))
	}
	sink, err := notify.NewFanoutSink(queueSink, notify.NewZapSink(logger))
	if err != nil {
		logger.Fatal("notification fan-out initialization failed", zap.Error(err))
	}

	paymentRepo := repository.NewGormPaymentRepo(db)
	transitionRepo := repository.NewGormTransitionRepo(db)
	membershipRepo := repository.NewGormMembershipRepo(db)

	memberships, err := membership.NewCachingStore(statusAuthority, membershipRepo, logger)
	if err != nil {
		logger.Fatal("membership store initialization failed", zap.Error(err))
	}

	scheduler, err := tracker.NewScheduler(cfg.PollInterval(), cfg.MaxPollDuration(), logger)
	if err != nil {
		logger.Fatal("scheduler initialization failed", zap.Error(err))
	}

	controller, err := tracker.NewController(
		statusAuthority,
		tracker.NewRegistry(),
		scheduler,
		dedupStore,
		sink,
		memberships,
		paymentRepo,
		transitionRepo,
		logger,
	)
	if err != nil {
		logger.Fatal("tracker controller initialization failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	controller.SetMetrics(metrics)

	app := fiber.New(fiber.Config{
		AppName:      "settlement-tracker",
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(metrics.HTTPMiddleware())
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	if err := handler.RegisterTrackingRoutes(app, controller, transitionRepo); err != nil {
		logger.Fatal("route registration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("settlement tracker listening", zap.Int("port", cfg.APIPort))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			return fmt.Errorf("http server stopped: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		controller.RunDiscovery(groupCtx, cfg.DiscoveryInterval())
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")

		controller.StopAll()
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Warn("http server shutdown failed", zap.Error(err))
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Fatal("settlement tracker exited", zap.Error(err))
	}
	logger.Info("settlement tracker stopped")
}
