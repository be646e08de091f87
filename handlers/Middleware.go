package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"turbineops/models"
	"turbineops/services"
	"turbineops/storage"
	"turbineops/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const userContextKey = "user"

// RequireAuth verifies the bearer token and stores the user on the context.
func RequireAuth(auth *utils.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Missing Authorization header")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid Authorization header format. Expected: Bearer <token>")
			return
		}

		if auth == nil || auth.Secret() == "" {
			zerolog.Ctx(c.Request.Context()).Error().Msg("JWT secret is not configured")
			utils.ErrorResponse(c, http.StatusInternalServerError, "Server configuration error")
			return
		}

		user, err := auth.VerifyToken(strings.TrimSpace(parts[1]))
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, err.Error())
			return
		}

		c.Set(userContextKey, user)
		c.Request = c.Request.WithContext(services.WithActor(c.Request.Context(), user))
		c.Next()
	}
}

// CurrentUser returns the user set by RequireAuth.
func CurrentUser(c *gin.Context) (models.JwtUser, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return models.JwtUser{}, false
	}
	user, ok := v.(models.JwtUser)
	return user, ok
}

// RequireRole allows the request through only for the given roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	denied := "Access denied. Required roles: " + strings.Join(names, ", ")

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "User not authenticated")
			return
		}
		for _, r := range roles {
			if user.Role == r {
				c.Next()
				return
			}
		}
		utils.ErrorResponse(c, http.StatusForbidden, denied)
	}
}

// Role sets used by the routes.
var (
	anyRole   = []models.Role{models.RoleAdmin, models.RoleEngineer, models.RoleViewer}
	editors   = []models.Role{models.RoleAdmin, models.RoleEngineer}
	adminOnly = []models.Role{models.RoleAdmin}
)

// RequestLogger puts a request-scoped logger on the request context and logs each request once it completes.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLog := log.With().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("ip", c.ClientIP()).
			Logger()
		c.Request = c.Request.WithContext(reqLog.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		ev := reqLog.Info()
		switch {
		case status >= http.StatusInternalServerError:
			ev = reqLog.Error()
		case status >= http.StatusBadRequest:
			ev = reqLog.Warn()
		}
		if user, ok := CurrentUser(c); ok {
			ev = ev.Str("user_id", user.ID)
		}
		ev.Int("status", status).Dur("latency", time.Since(start)).Msg("request")
	}
}

// Recovery turns a panic into a 500. The panic value is only shown in development.
func Recovery(devMode bool) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		zerolog.Ctx(c.Request.Context()).Error().Interface("panic", recovered).Msg("handler panicked")
		message := "Internal server error"
		if devMode {
			message = fmt.Sprint(recovered)
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, message)
	})
}

func NotFound(c *gin.Context) {
	utils.ErrorResponse(c, http.StatusNotFound, fmt.Sprintf("Route %s %s not found", c.Request.Method, c.Request.URL.Path))
}

// publicMessage strips the sentinel suffix that storage wraps onto its errors.
func publicMessage(err error, sentinel error) string {
	return strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
}

// respondError maps a store or service error to the matching status.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, publicMessage(err, storage.ErrNotFound))
	case errors.Is(err, storage.ErrConflict):
		utils.ErrorResponse(c, http.StatusConflict, publicMessage(err, storage.ErrConflict))
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}
