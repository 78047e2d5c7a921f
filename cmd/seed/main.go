package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/oksasatya/zenplan-api/config"
	"github.com/oksasatya/zenplan-api/internal/application"
	pginfra "github.com/oksasatya/zenplan-api/internal/infrastructure/postgres"
	"github.com/oksasatya/zenplan-api/internal/seed"
	"github.com/oksasatya/zenplan-api/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)

	opts := seed.DefaultOptions()
	flag.StringVar(&opts.Email, "email", opts.Email, "demo account email")
	flag.StringVar(&opts.Password, "password", opts.Password, "demo account password")
	flag.IntVar(&opts.Activities, "activities", opts.Activities, "number of activities to create")
	flag.Int64Var(&opts.Seed, "seed", 0, "random seed (0 = time based)")
	flag.Parse()

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()

	if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		logger.WithError(err).Fatal("migration failed")
	}

	jwt := helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	users := application.NewUserService(pginfra.NewUserRepository(pool), jwt, nil, nil, cfg.SessionTTL, logger)
	lists := application.NewListService(pginfra.NewActivityRepository(pool), nil, logger)

	res, err := seed.Run(ctx, users, lists, opts, logger)
	if err != nil {
		logger.WithError(err).Fatal("seed failed")
	}
	fmt.Printf("seeded user: id=%s email=%s password=%s activities=%d\n", res.UserID, opts.Email, opts.Password, res.Created)
}
