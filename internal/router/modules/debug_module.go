package modules

import (
	"context"
	"expvar"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/zenplan-api/internal/interface/middleware"
	"github.com/oksasatya/zenplan-api/pkg/response"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// DebugModule serves the greeting, health, and metrics endpoints.
type DebugModule struct {
	Limiter     *redis.Client
	ExposeVars  bool
	HealthCheck map[string]HealthCheck
	Logger      *logrus.Logger
}

func NewDebugModule(limiter *redis.Client, exposeVars bool, checks map[string]HealthCheck, logger *logrus.Logger) *DebugModule {
	return &DebugModule{Limiter: limiter, ExposeVars: exposeVars, HealthCheck: checks, Logger: logger}
}

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rg.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "Hello ZenPlan!") })
	rg.GET("/healthz", m.health)

	// scrapers inside the cluster are not limited
	rl := middleware.RateLimit(m.Limiter, 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	rg.GET("/metrics", rl, gin.WrapH(promhttp.Handler()))
	if m.ExposeVars {
		rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
	}
}

func (m *DebugModule) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	// the cause is logged; the public body only names the check
	failed := map[string]string{}
	for name, check := range m.HealthCheck {
		if err := check(ctx); err != nil {
			failed[name] = "unavailable"
			if m.Logger != nil {
				m.Logger.WithError(err).WithField("check", name).Warn("health check failed")
			}
		}
	}
	if len(failed) > 0 {
		response.Error[any](c, http.StatusServiceUnavailable, "unhealthy", failed)
		return
	}
	c.String(http.StatusOK, "ok")
}
