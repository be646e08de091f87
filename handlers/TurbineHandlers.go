package handlers

import (
	"net/http"
	"strings"

	"turbineops/models"
	"turbineops/repository"
	"turbineops/services"
	"turbineops/storage"
	"turbineops/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// validateTurbineRanges returns the first range violation in req, or "".
func validateTurbineRanges(req models.TurbineRequest) string {
	if req.MwRating != nil && (*req.MwRating < 0 || *req.MwRating > 100) {
		return "MW rating must be between 0 and 100"
	}
	if req.Lat != nil && (*req.Lat < -90 || *req.Lat > 90) {
		return "Latitude must be between -90 and 90"
	}
	if req.Lng != nil && (*req.Lng < -180 || *req.Lng > 180) {
		return "Longitude must be between -180 and 180"
	}
	return ""
}

// GetTurbines godoc
// @Summary      List turbines
// @Tags         turbines
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.Turbine
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/turbines [get]
func GetTurbines(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		turbines, err := storage.ListTurbines(ctx, db)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, turbines)
	}
}

// GetTurbine godoc
// @Summary      Get turbine
// @Tags         turbines
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Turbine ID"
// @Success      200  {object}  models.Turbine
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/turbines/{id} [get]
func GetTurbine(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		turbine, err := storage.GetTurbine(ctx, db, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, turbine)
	}
}

// CreateTurbine godoc
// @Summary      Create turbine
// @Tags         turbines
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      models.TurbineRequest  true  "Turbine"
// @Success      201      {object}  models.Turbine
// @Failure      400      {object}  models.ErrorResponse
// @Router       /api/turbines [post]
func CreateTurbine(db *gorm.DB, auditor *services.Auditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.TurbineRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
			utils.ErrorResponse(c, http.StatusBadRequest, "Turbine name is required")
			return
		}
		if msg := validateTurbineRanges(req); msg != "" {
			utils.ErrorResponse(c, http.StatusBadRequest, msg)
			return
		}

		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		turbine := &models.Turbine{
			Name:         strings.TrimSpace(*req.Name),
			Manufacturer: repository.TrimOptional(req.Manufacturer),
			MwRating:     req.MwRating,
			Lat:          req.Lat,
			Lng:          req.Lng,
		}
		if err := storage.CreateTurbine(ctx, db, turbine); err != nil {
			respondError(c, err)
			return
		}

		auditor.Record(ctx, models.AuditLog{
			Kind:     models.AuditTurbineCreated,
			Entity:   "turbine",
			EntityID: turbine.ID,
			Details:  models.AuditDetails{"name": turbine.Name},
		})
		c.JSON(http.StatusCreated, turbine)
	}
}

// UpdateTurbine godoc
// @Summary      Update turbine
// @Description  Partial update. A blank manufacturer clears it.
// @Tags         turbines
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Turbine ID"
// @Param        request  body      models.TurbineRequest  true  "Fields to change"
// @Success      200      {object}  models.Turbine
// @Failure      400      {object}  models.ErrorResponse
// @Failure      404      {object}  models.ErrorResponse
// @Router       /api/turbines/{id} [put]
func UpdateTurbine(db *gorm.DB, auditor *services.Auditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.TurbineRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
			return
		}
		if msg := validateTurbineRanges(req); msg != "" {
			utils.ErrorResponse(c, http.StatusBadRequest, msg)
			return
		}

		updates := map[string]interface{}{}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				utils.ErrorResponse(c, http.StatusBadRequest, "Turbine name is required")
				return
			}
			updates["name"] = name
		}
		if req.Manufacturer != nil {
			updates["manufacturer"] = repository.TrimOptional(req.Manufacturer)
		}
		if req.MwRating != nil {
			updates["mw_rating"] = *req.MwRating
		}
		if req.Lat != nil {
			updates["lat"] = *req.Lat
		}
		if req.Lng != nil {
			updates["lng"] = *req.Lng
		}

		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		turbine, err := storage.UpdateTurbine(ctx, db, c.Param("id"), updates)
		if err != nil {
			respondError(c, err)
			return
		}

		auditor.Record(ctx, models.AuditLog{
			Kind:     models.AuditTurbineUpdated,
			Entity:   "turbine",
			EntityID: turbine.ID,
		})
		c.JSON(http.StatusOK, turbine)
	}
}

// DeleteTurbine godoc
// @Summary      Delete turbine
// @Tags         turbines
// @Security     BearerAuth
// @Param        id   path  string  true  "Turbine ID"
// @Success      204
// @Failure      404  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /api/turbines/{id} [delete]
func DeleteTurbine(db *gorm.DB, auditor *services.Auditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		id := c.Param("id")
		if err := storage.DeleteTurbine(ctx, db, id); err != nil {
			respondError(c, err)
			return
		}

		auditor.Record(ctx, models.AuditLog{
			Kind:     models.AuditTurbineDeleted,
			Entity:   "turbine",
			EntityID: id,
		})
		c.Status(http.StatusNoContent)
	}
}
