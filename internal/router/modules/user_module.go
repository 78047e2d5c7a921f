package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/zenplan-api/internal/interface/http"
	"github.com/oksasatya/zenplan-api/internal/interface/middleware"
	"github.com/oksasatya/zenplan-api/pkg/helpers"
)

// UserModule wires account routes under /user.
// Public: POST /user/register, POST /user/login, POST /user/refresh
// Protected: POST /user/logout, GET|PUT /user/profile, POST /user/avatar
type UserModule struct {
	Handler  *handlers.UserHandler
	Sessions *redis.Client
	Limiter  *redis.Client
	JWT      *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, sessions, limiter *redis.Client, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, Sessions: sessions, Limiter: limiter, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	user := rg.Group("/user")

	registerLimiter := middleware.RateLimit(m.Limiter, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(m.Limiter, 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(m.Limiter, 60, time.Minute, middleware.KeyByIP(), nil)

	user.POST("/register", registerLimiter, m.Handler.Register)
	user.POST("/login", loginLimiter, m.Handler.Login)
	user.POST("/refresh", refreshLimiter, m.Handler.Refresh)

	auth := user.Group("")
	auth.Use(middleware.Auth(m.Sessions, m.JWT))
	auth.Use(middleware.RateLimit(m.Limiter, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.POST("/avatar", m.Handler.UploadAvatar)
	}
}
