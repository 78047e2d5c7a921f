package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/oksasatya/zenplan-api/config"
	"github.com/oksasatya/zenplan-api/internal/container"
	pginfra "github.com/oksasatya/zenplan-api/internal/infrastructure/postgres"
	"github.com/oksasatya/zenplan-api/internal/infrastructure/search"
	"github.com/oksasatya/zenplan-api/internal/infrastructure/storage"
	"github.com/oksasatya/zenplan-api/internal/router"
	"github.com/oksasatya/zenplan-api/pkg/helpers"
	"github.com/oksasatya/zenplan-api/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	// Postgres
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()

	if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		logger.WithError(err).Fatal("migration failed")
	}

	// Redis holds login sessions and rate limit windows
	if cfg.RedisAddr != "" {
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer func() { _ = rdb.Close() }()
		if err := helpers.PingRedis(ctx, rdb); err != nil {
			logger.WithError(err).Fatal("failed to connect to redis")
		}
		container.SetRedis(rdb)
	} else {
		logger.Warn("REDIS_ADDR is empty: sessions cannot be revoked and rate limiting is off")
	}

	// Elasticsearch (optional) backs /list/search
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := search.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Fatal("failed to init elasticsearch client")
		}
		if err := search.NewActivityIndex(es, cfg.ESActivitiesIndex).EnsureIndex(ctx); err != nil {
			logger.WithError(err).Fatal("failed to prepare elasticsearch index")
		}
		container.SetES(es)
	}

	// GCS (optional) stores avatars
	if cfg.GCSBucket != "" {
		gcsClient, err := storage.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			logger.WithError(err).Fatal("failed to init GCS client")
		}
		defer func() { _ = gcsClient.Close() }()
		container.SetGCS(gcsClient)
	}

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	container.SetJWT(helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL))

	validation.Init()

	r := router.NewEngine(cfg, logger)
	reg := router.NewRegistry(r, cfg.APIPrefix)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	logger.Info("server exited properly")
}
