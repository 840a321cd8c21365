package main

import (
	"context"
	"database/sql"
	"errors"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oksasatya/cosmebag/config"
	"github.com/oksasatya/cosmebag/internal/application"
	"github.com/oksasatya/cosmebag/internal/container"
	"github.com/oksasatya/cosmebag/internal/infrastructure/catalog"
	"github.com/oksasatya/cosmebag/internal/infrastructure/gemini"
	"github.com/oksasatya/cosmebag/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/cosmebag/internal/infrastructure/postgres"
	"github.com/oksasatya/cosmebag/internal/interface/middleware"
	"github.com/oksasatya/cosmebag/internal/router"
	"github.com/oksasatya/cosmebag/pkg/helpers"
	"github.com/oksasatya/cosmebag/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	validation.Init()
	gin.SetMode(cfg.GinMode)

	ctx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	// Repositories: Postgres, or in-process for local runs
	var repos container.Repositories
	if cfg.UseMemoryStore() {
		logger.Warn("STORAGE_DRIVER=memory; data is lost on restart")
		repos = memoryRepositories(memory.NewStore())
	} else {
		pool, err := pginfra.NewPool(ctx, pginfra.PoolConfig{
			DSN:             cfg.PostgresDSN(),
			MaxConns:        cfg.DBMaxConns,
			MinConns:        cfg.DBMinConns,
			MaxConnLifetime: cfg.DBMaxConnLife,
		})
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		container.SetPGPool(pool)
		repos = postgresRepositories(pool)
	}

	// Redis
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()

	// GCS for bag covers and visit photos
	if cfg.GCSBucket != "" {
		gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			logger.WithError(err).Warn("GCS unavailable; image uploads disabled")
		} else {
			defer func() { _ = gcsClient.Close() }()
			container.SetGCS(gcsClient)
		}
	}

	// Elasticsearch bag index
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Warn("elasticsearch unavailable; bag search falls back to the database")
		} else {
			container.SetES(es)
		}
	}

	// RabbitMQ publisher for confirmation emails
	if cfg.MailSendEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; emails will not be queued")
		} else {
			defer pub.Close()
			container.SetRabbitPub(pub)
		}
	}

	// JWT
	jwtManager := helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)

	// Passport advice; without an API key the client only serves the built-in advice
	adviser, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	if err != nil {
		log.Fatalf("failed to init gemini client: %v", err)
	}
	defer adviser.Close()

	lookup := catalog.NewClient(catalog.Options{
		BaseURL:           cfg.ProductAPIBaseURL,
		Timeout:           cfg.ProductAPITimeout,
		RequestsPerSecond: cfg.ProductAPIRPS,
		Burst:             cfg.ProductAPIBurst,
		UserAgent:         cfg.ProductAPIUserAgent,
	}, logger)

	events := application.NewSessionEvents(rdb, logger)

	// Provide singletons to container for registry auto-wiring
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetRedis(rdb)
	container.SetJWT(jwtManager)
	container.SetRepositories(repos)
	container.SetSessionEvents(events)
	container.SetProductLookup(lookup)
	container.SetAdviser(adviser)

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r)
	deps := router.InitModules(reg)
	reg.RegisterAll()

	detach := deps.Spaces.Attach(deps.Sessions)
	defer detach()
	expvar.Publish("workspaces", expvar.Func(func() any { return deps.Spaces.Len() }))

	// Backfill the bag index; bags created while it was unreachable are missing from it
	if container.GetES() != nil {
		go func() {
			n, err := deps.Accessors.Bags.ReindexAll(ctx)
			if err != nil {
				logger.WithError(err).Warn("bag index backfill failed")
				return
			}
			logger.WithField("bags", n).Info("bag index backfilled")
		}()
	}

	go func() {
		if err := events.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("session events relay stopped")
		}
	}()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")
	cancelBackground()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

func postgresRepositories(pool *pgxpool.Pool) container.Repositories {
	return container.Repositories{
		Users:     pginfra.NewUserRepository(pool),
		Profiles:  pginfra.NewProfileRepository(pool),
		Bags:      pginfra.NewBagRepository(pool),
		BagItems:  pginfra.NewBagItemRepository(pool),
		Passports: pginfra.NewPassportRepository(pool),
		Visits:    pginfra.NewVisitRepository(pool),
		Follows:   pginfra.NewFollowRepository(pool),
	}
}

func memoryRepositories(s *memory.Store) container.Repositories {
	return container.Repositories{
		Users:     s.Users(),
		Profiles:  s.Profiles(),
		Bags:      s.Bags(),
		BagItems:  s.BagItems(),
		Passports: s.Passports(),
		Visits:    s.Visits(),
		Follows:   s.Follows(),
	}
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	// Open sql DB via pgx stdlib
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
