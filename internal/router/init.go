package router

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/zenplan-api/config"
	"github.com/oksasatya/zenplan-api/internal/application"
	"github.com/oksasatya/zenplan-api/internal/container"
	repo "github.com/oksasatya/zenplan-api/internal/domain/repository"
	pginfra "github.com/oksasatya/zenplan-api/internal/infrastructure/postgres"
	"github.com/oksasatya/zenplan-api/internal/infrastructure/search"
	"github.com/oksasatya/zenplan-api/internal/infrastructure/storage"
	handlers "github.com/oksasatya/zenplan-api/internal/interface/http"
	"github.com/oksasatya/zenplan-api/internal/router/modules"
	"github.com/oksasatya/zenplan-api/pkg/helpers"
)

// Deps are the collaborators the modules are built from. Index, Avatars
// and Redis are optional.
type Deps struct {
	Config     *config.Config
	Logger     *logrus.Logger
	Redis      *redis.Client
	JWT        *helpers.JWTManager
	Users      repo.UserRepository
	Activities repo.ActivityRepository
	Index      application.ActivityIndex
	Avatars    application.AvatarStorage
	Checks     map[string]modules.HealthCheck
}

// depsFromContainer wires the postgres repositories and the optional
// search index and avatar store from the container singletons.
func depsFromContainer() Deps {
	cfg := container.GetConfig()
	pool := container.GetPGPool()
	d := Deps{
		Config:     cfg,
		Logger:     container.GetLogger(),
		Redis:      container.GetRedis(),
		JWT:        container.GetJWT(),
		Users:      pginfra.NewUserRepository(pool),
		Activities: pginfra.NewActivityRepository(pool),
		Checks:     map[string]modules.HealthCheck{"postgres": pool.Ping},
	}
	if es := container.GetES(); es != nil {
		d.Index = search.NewActivityIndex(es, cfg.ESActivitiesIndex)
	}
	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		d.Avatars = storage.NewAvatarStore(gcs, cfg.GCSBucket)
	}
	if rdb := d.Redis; rdb != nil {
		d.Checks["redis"] = func(ctx context.Context) error { return helpers.PingRedis(ctx, rdb) }
	}
	return d
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	InitModulesWith(r, depsFromContainer())
}

// InitModulesWith registers the modules built from d.
func InitModulesWith(r *Registry, d Deps) {
	limiter := d.Redis
	if !d.Config.RateLimitEnabled {
		limiter = nil
	}

	listSvc := application.NewListService(d.Activities, d.Index, d.Logger)
	userSvc := application.NewUserService(d.Users, d.JWT, d.Redis, d.Avatars, d.Config.SessionTTL, d.Logger)

	r.Add(modules.NewDebugModule(limiter, d.Config.DebugMetricsEnabled, d.Checks, d.Logger))
	r.Add(modules.NewUserModule(
		handlers.NewUserHandler(userSvc, d.Logger, d.Config.CookieDomain, d.Config.CookieSecure),
		d.Redis, limiter, d.JWT,
	))
	r.Add(modules.NewListModule(handlers.NewListHandler(listSvc, d.Logger), d.Redis, limiter, d.JWT))
}

