package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/zenplan-api/internal/interface/http"
	"github.com/oksasatya/zenplan-api/internal/interface/middleware"
	"github.com/oksasatya/zenplan-api/pkg/helpers"
)

// ListModule wires the activity list routes; every one requires a session.
type ListModule struct {
	Handler  *handlers.ListHandler
	Sessions *redis.Client
	Limiter  *redis.Client
	JWT      *helpers.JWTManager
}

func NewListModule(h *handlers.ListHandler, sessions, limiter *redis.Client, jwt *helpers.JWTManager) *ListModule {
	return &ListModule{Handler: h, Sessions: sessions, Limiter: limiter, JWT: jwt}
}

func (m *ListModule) Register(rg *gin.RouterGroup) {
	list := rg.Group("/list")
	list.Use(middleware.Auth(m.Sessions, m.JWT))
	list.Use(middleware.RateLimit(m.Limiter, 300, time.Minute, middleware.KeyByUserID(), nil))
	{
		list.GET("/get", m.Handler.Get)
		list.GET("/search", m.Handler.Search)
		list.POST("/create", m.Handler.Create)
		list.PUT("/edit/:id", m.Handler.Edit)
		list.DELETE("/delete/:id", m.Handler.Delete)
		list.PATCH("/toggle/:id", m.Handler.Toggle)
		list.PATCH("/complete", m.Handler.CompleteAll)
	}
}
