package handlers

import (
	"net/http"
	"strings"

	"turbineops/models"
	"turbineops/services"
	"turbineops/storage"
	"turbineops/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateUser godoc
// @Summary      Create user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      models.CreateUserRequest  true  "New user"
// @Success      201      {object}  models.UserResponse
// @Failure      400      {object}  models.PasswordPolicyResponse
// @Failure      409      {object}  models.ErrorResponse
// @Router       /api/users [post]
func CreateUser(db *gorm.DB, auth *utils.AuthService, auditor *services.Auditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if req.Email == "" || !strings.Contains(req.Email, "@") {
			utils.ErrorResponse(c, http.StatusBadRequest, "A valid email is required")
			return
		}
		if req.Role == "" {
			req.Role = models.RoleViewer
		}
		if !req.Role.Valid() {
			utils.ErrorResponse(c, http.StatusBadRequest, "Role must be one of ADMIN, ENGINEER, VIEWER")
			return
		}
		if ok, problems := utils.ValidatePasswordStrength(req.Password); !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, models.PasswordPolicyResponse{
				Error:   http.StatusText(http.StatusBadRequest),
				Message: "Password does not meet requirements",
				Errors:  problems,
			})
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondError(c, err)
			return
		}

		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		user := &models.User{
			Email:        req.Email,
			Name:         strings.TrimSpace(req.Name),
			Role:         req.Role,
			PasswordHash: hash,
		}
		if err := storage.CreateUser(ctx, db, user); err != nil {
			respondError(c, err)
			return
		}

		auditor.Record(ctx, models.AuditLog{
			Kind:     models.AuditUserCreated,
			Entity:   "user",
			EntityID: user.ID,
			Details:  models.AuditDetails{"email": user.Email, "role": user.Role},
		})
		c.JSON(http.StatusCreated, models.NewUserResponse(user))
	}
}

// GetUsers godoc
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  models.UserResponse
// @Router       /api/users [get]
func GetUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		users, err := storage.ListUsers(ctx, db)
		if err != nil {
			respondError(c, err)
			return
		}
		out := make([]models.UserResponse, 0, len(users))
		for i := range users {
			out = append(out, models.NewUserResponse(&users[i]))
		}
		c.JSON(http.StatusOK, out)
	}
}
