package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/zenplan-api/internal/application"
	"github.com/oksasatya/zenplan-api/internal/interface/middleware"
	"github.com/oksasatya/zenplan-api/pkg/response"
	"github.com/oksasatya/zenplan-api/pkg/validation"
)

// writeError maps service errors onto the response envelope. Anything
// unrecognised is logged and reported as a generic 500.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	var verr *application.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Error[any](c, http.StatusBadRequest, "validation failed", verr.Fields)
	case errors.Is(err, application.ErrActivityNotFound):
		response.Error[any](c, http.StatusNotFound, "activity not found", nil)
	case errors.Is(err, application.ErrUserNotFound):
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
	case errors.Is(err, application.ErrEmailTaken):
		response.Error[any](c, http.StatusConflict, "email already registered", nil)
	case errors.Is(err, application.ErrInvalidCredentials):
		response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil)
	case errors.Is(err, application.ErrSessionNotFound):
		response.Error[any](c, http.StatusUnauthorized, "session expired", nil)
	case errors.Is(err, application.ErrStorageDisabled):
		response.Error[any](c, http.StatusServiceUnavailable, "avatar upload is not available", nil)
	default:
		if logger != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"request_id": c.GetString("request_id"),
				"path":       c.FullPath(),
				"user_id":    c.GetString(middleware.CtxUserIDKey),
			}).Error("request failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
	}
}

// bindError reports a malformed or invalid request body.
func bindError(c *gin.Context, err error) {
	response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
}

// identity returns the verified caller; it writes a 401 when Auth did not run.
func identity(c *gin.Context) (middleware.Identity, bool) {
	id, ok := middleware.IdentityFrom(c.Request.Context())
	if !ok {
		response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
	}
	return id, ok
}
