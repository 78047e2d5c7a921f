// Package apitest builds a fully wired API engine over in-memory stores
// and miniredis for handler and client tests.
package apitest

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/zenplan-api/config"
	"github.com/oksasatya/zenplan-api/internal/router"
	"github.com/oksasatya/zenplan-api/internal/testutil"
	"github.com/oksasatya/zenplan-api/pkg/helpers"
	"github.com/oksasatya/zenplan-api/pkg/validation"
)

type Env struct {
	Engine     *gin.Engine
	Config     *config.Config
	Redis      *miniredis.Miniredis
	Activities *testutil.ActivityRepo
	Users      *testutil.UserRepo
	Index      *testutil.Index
	Avatars    *testutil.AvatarStore
}

// New returns an engine mounted at the root with rate limiting off.
func New(t testing.TB) *Env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.Load()
	cfg.APIPrefix = ""
	cfg.CookieDomain = ""
	cfg.CookieSecure = false
	cfg.HTTPLogEnabled = false
	cfg.RateLimitEnabled = false
	cfg.DebugMetricsEnabled = true

	env := &Env{
		Config:     cfg,
		Redis:      mr,
		Activities: testutil.NewActivityRepo(),
		Users:      testutil.NewUserRepo(),
		Index:      testutil.NewIndex(),
		Avatars:    testutil.NewAvatarStore(),
	}

	engine := router.NewEngine(cfg, nil)
	reg := router.NewRegistry(engine, cfg.APIPrefix)
	router.InitModulesWith(reg, router.Deps{
		Config:     cfg,
		Logger:     helpers.NewDiscardLogger(),
		Redis:      rdb,
		JWT:        helpers.NewJWTManager("test-access", "test-refresh", time.Hour, 24*time.Hour),
		Users:      env.Users,
		Activities: env.Activities,
		Index:      env.Index,
		Avatars:    env.Avatars,
	})
	reg.RegisterAll()
	env.Engine = engine
	return env
}
