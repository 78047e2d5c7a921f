package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/zenplan-api/pkg/helpers"
	"github.com/oksasatya/zenplan-api/pkg/response"
)

// Gin context keys set by Auth.
const (
	CtxUserIDKey    = "userID"
	CtxUserNameKey  = "userName"
	CtxUserEmailKey = "userEmail"
	CtxSessionIDKey = "sessionID"
)

type identityKey struct{}

// Identity is the verified caller attached to a request.
type Identity struct {
	UserID    string
	SessionID string
}

// WithIdentity stores id on ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by Auth, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.UserID != ""
}

// Auth validates the access token (cookie first, then Bearer header) and,
// when Redis is configured, ensures its session has not been revoked.
// On success it sets userID, userName, userEmail and sessionID in the Gin
// context and the Identity on the request context.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := accessToken(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid access token", nil)
			return
		}

		var name, email string
		if rdb != nil {
			data, err := rdb.HGetAll(c.Request.Context(), helpers.SessionKey(claims.UserID, claims.SessionID)).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				response.Abort(c, http.StatusServiceUnavailable, "session store unavailable", nil)
				return
			}
			// a hash without user_id is a stale write to a revoked session
			if len(data) == 0 || data["user_id"] != claims.UserID {
				response.Abort(c, http.StatusUnauthorized, "session not found", nil)
				return
			}
			name, email = data["name"], data["email"]
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxSessionIDKey, claims.SessionID)
		c.Set(CtxUserNameKey, name)
		c.Set(CtxUserEmailKey, email)
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), Identity{
			UserID:    claims.UserID,
			SessionID: claims.SessionID,
		}))
		c.Next()
	}
}

func accessToken(c *gin.Context) string {
	if token, err := c.Cookie(helpers.AccessCookie); err == nil && token != "" {
		return token
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
