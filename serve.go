package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"battle-pass-service/config"
	"battle-pass-service/database"
	"battle-pass-service/handlers"
	"battle-pass-service/middleware"
	"battle-pass-service/services"
	"battle-pass-service/utils"
	"battle-pass-service/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the grant replay worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadRuntime()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *logrus.Entry) error {
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(registry)

	var (
		cache     services.CatalogCache   = services.NopCatalogCache{}
		publisher services.ClaimPublisher = services.NopClaimPublisher{}
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		cache = services.NewRedisCatalogCache(rdb, cfg.CacheTTL, log)
		publisher = services.NewRedisClaimPublisher(rdb)
		log.Info("[REDIS] catalog cache and claim events enabled")
	}

	images, err := newImageStore(ctx, cfg)
	if err != nil {
		return err
	}

	httpClient := utils.NewHTTPClient(cfg.HTTPTimeout)
	characters := services.NewCharacterClient(cfg.CharacterServiceURL, cfg.ServiceToken, httpClient, log)
	benefits := services.NewBenefitClient(cfg.BenefitServiceURL, cfg.ServiceToken, httpClient, log)

	seasons := services.NewSeasonRegistry(db, cache, log)
	catalog := services.NewRewardCatalog(db, seasons, cache, log)
	dispatcher := services.NewGrantDispatcher(db, benefits, cfg.GrantMaxAttempts, metrics, log)
	claims := services.NewClaimEngine(db, characters, dispatcher, publisher, metrics, log)
	progress := services.NewProgressTracker(db, characters, seasons, catalog, log)

	replay := workers.NewGrantReplayWorker(dispatcher, cfg.GrantReplayInterval, cfg.GrantReplayBatch, log)
	if err := replay.Start(ctx); err != nil {
		return err
	}
	defer replay.Stop()

	app := fiber.New(fiber.Config{
		BodyLimit:             10 * 1024 * 1024,
		DisableStartupMessage: true,
	})

	app.Use(middleware.RequestID(), middleware.RequestContext(), middleware.Metrics(metrics))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Origins(), ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Ops endpoints sit in front of the gateway check so probes and scrapers need no token.
	app.Get("/healthz", healthz(db))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	if _, local := images.(*utils.LocalStore); local {
		app.Static("/uploads", cfg.UploadDir)
	}

	// 🔐 Everything below must come from the gateway
	app.Use(middleware.GatewayAuthMiddleware(cfg.GameServiceToken, log))

	handlers.SetupBattlePassRoutes(app, &handlers.BattlePassHandler{
		Seasons:  seasons,
		Catalog:  catalog,
		Progress: progress,
		Claims:   claims,
		Log:      log,
	})
	handlers.SetupAdminRoutes(app, &handlers.AdminHandler{
		Seasons: seasons,
		Catalog: catalog,
		Grants:  dispatcher,
		Images:  images,
		Log:     log,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + cfg.Port)
	}()
	log.WithFields(logrus.Fields{
		"port":    cfg.Port,
		"driver":  cfg.DatabaseDriver,
		"origins": cfg.Origins(),
	}).Info("[SERVER] listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("[SERVER] shutting down")
	return app.ShutdownWithTimeout(15 * time.Second)
}

func newImageStore(ctx context.Context, cfg *config.Config) (utils.ImageStore, error) {
	if cfg.R2Enabled() {
		return utils.NewR2Store(ctx, utils.R2Options{
			AccountID:       cfg.CloudflareAccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			Bucket:          cfg.R2BucketName,
			CDNBaseURL:      cfg.CDNBaseURL,
		})
	}
	store := &utils.LocalStore{Root: cfg.UploadDir, BaseURL: cfg.PublicBaseURL}
	if err := store.EnsureDir(); err != nil {
		return nil, fmt.Errorf("failed to ensure upload dir: %w", err)
	}
	return store, nil
}

func healthz(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"data":    fiber.Map{"database": "down"},
				"message": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"data": fiber.Map{"database": "up"}, "message": "ok"})
	}
}
