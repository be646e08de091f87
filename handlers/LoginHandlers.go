package handlers

import (
	"errors"
	"net/http"
	"strings"

	"turbineops/models"
	"turbineops/services"
	"turbineops/storage"
	"turbineops/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// LoginHandler authenticates a user by e-mail and password.
// @Summary Login user
// @Description Authenticate user and return a JWT
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /api/auth/login [post]
func LoginHandler(db *gorm.DB, auth *utils.AuthService, limiter storage.LoginLimiter, auditor *services.Auditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginRequest
		_ = c.ShouldBindJSON(&req)
		email := strings.TrimSpace(req.Email)
		if email == "" || req.Password == "" {
			utils.ErrorResponse(c, http.StatusBadRequest, "Email and password are required")
			return
		}

		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()
		log := zerolog.Ctx(ctx)

		if limiter != nil {
			allowed, err := limiter.Allowed(ctx, email)
			if err != nil {
				log.Warn().Err(err).Msg("login limiter unavailable")
			} else if !allowed {
				utils.ErrorResponse(c, http.StatusTooManyRequests, "Too many failed login attempts. Try again later.")
				return
			}
		}

		fail := func() {
			if limiter != nil {
				if err := limiter.Fail(ctx, email); err != nil {
					log.Warn().Err(err).Msg("login limiter unavailable")
				}
			}
			auditor.Record(ctx, models.AuditLog{
				Kind:    models.AuditLoginFailed,
				Entity:  "user",
				Details: models.AuditDetails{"email": strings.ToLower(email), "ip": c.ClientIP()},
			})
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid email or password")
		}

		user, err := storage.GetUserByEmail(ctx, db, email)
		if errors.Is(err, storage.ErrNotFound) {
			fail()
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}

		token, err := auth.Authenticate(user.JwtUser(), req.Password, user.PasswordHash)
		if err != nil {
			if errors.Is(err, utils.ErrInvalidPassword) {
				fail()
				return
			}
			log.Error().Err(err).Str("user_id", user.ID).Msg("login failed")
			utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		if limiter != nil {
			if err := limiter.Reset(ctx, email); err != nil {
				log.Warn().Err(err).Msg("login limiter unavailable")
			}
		}
		auditor.Record(services.WithActor(ctx, user.JwtUser()), models.AuditLog{
			Kind:     models.AuditLoginSucceeded,
			Entity:   "user",
			EntityID: user.ID,
		})

		c.JSON(http.StatusOK, models.LoginResponse{Token: token, User: models.NewUserResponse(user)})
	}
}

// MeHandler returns the profile of the authenticated user.
// @Summary Current user
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/auth/me [get]
func MeHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		current, ok := CurrentUser(c)
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "User not authenticated")
			return
		}

		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		user, err := storage.GetUserByID(ctx, db, current.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.NewUserResponse(user))
	}
}
