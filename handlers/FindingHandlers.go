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

// validateFindingFields returns the first violation among the supplied fields, or "".
func validateFindingFields(req models.FindingRequest) string {
	if req.Category != nil && !req.Category.Valid() {
		return "Category must be one of BLADE_DAMAGE, LIGHTNING, EROSION, UNKNOWN"
	}
	if req.Severity != nil && (*req.Severity < 1 || *req.Severity > 10) {
		return "Severity must be between 1 and 10"
	}
	if req.EstimatedCost != nil && req.EstimatedCost.IsNegative() {
		return "Estimated cost must be non-negative"
	}
	return ""
}

// GetFindings godoc
// @Summary      List findings of an inspection
// @Tags         findings
// @Produce      json
// @Security     BearerAuth
// @Param        inspectionId  query     string  true  "Inspection ID"
// @Success      200           {array}   models.Finding
// @Failure      400           {object}  models.ErrorResponse
// @Router       /api/findings [get]
func GetFindings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		inspectionID := strings.TrimSpace(c.Query("inspectionId"))
		if inspectionID == "" {
			utils.ErrorResponse(c, http.StatusBadRequest, "inspectionId query parameter is required")
			return
		}

		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		findings, err := storage.ListFindings(ctx, db, inspectionID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, findings)
	}
}

// CreateFinding godoc
// @Summary      Create finding
// @Description  The stored severity is raised to 4 for cracked blade damage
// @Tags         findings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      models.FindingRequest  true  "Finding"
// @Success      201      {object}  models.Finding
// @Failure      400      {object}  models.ErrorResponse
// @Failure      404      {object}  models.ErrorResponse
// @Router       /api/findings [post]
func CreateFinding(db *gorm.DB, auditor *services.Auditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.FindingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.InspectionID == nil || strings.TrimSpace(*req.InspectionID) == "" ||
			req.Category == nil || req.Severity == nil || req.EstimatedCost == nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "inspectionId, category, severity, and estimatedCost are required")
			return
		}
		if msg := validateFindingFields(req); msg != "" {
			utils.ErrorResponse(c, http.StatusBadRequest, msg)
			return
		}

		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		notes := repository.TrimOptional(req.Notes)
		finding := &models.Finding{
			InspectionID:  strings.TrimSpace(*req.InspectionID),
			Category:      *req.Category,
			Severity:      services.AdjustedSeverity(*req.Category, *req.Severity, notes),
			EstimatedCost: *req.EstimatedCost,
			Notes:         notes,
		}
		if err := storage.CreateFinding(ctx, db, finding); err != nil {
			respondError(c, err)
			return
		}

		auditor.Record(ctx, models.AuditLog{
			Kind:     models.AuditFindingCreated,
			Entity:   "finding",
			EntityID: finding.ID,
			Details:  models.AuditDetails{"inspectionId": finding.InspectionID, "severity": finding.Severity},
		})
		c.JSON(http.StatusCreated, finding)
	}
}

// UpdateFinding godoc
// @Summary      Update finding
// @Description  A supplied severity is stored adjusted against the resulting category and notes
// @Tags         findings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Finding ID"
// @Param        request  body      models.FindingRequest  true  "Fields to change"
// @Success      200      {object}  models.Finding
// @Failure      400      {object}  models.ErrorResponse
// @Failure      404      {object}  models.ErrorResponse
// @Router       /api/findings/{id} [put]
func UpdateFinding(db *gorm.DB, auditor *services.Auditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.FindingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
			return
		}
		if msg := validateFindingFields(req); msg != "" {
			utils.ErrorResponse(c, http.StatusBadRequest, msg)
			return
		}

		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		id := c.Param("id")
		existing, err := storage.GetFinding(ctx, db, id)
		if err != nil {
			respondError(c, err)
			return
		}

		updates := map[string]interface{}{}
		category, notes := existing.Category, existing.Notes
		if req.Category != nil {
			category = *req.Category
			updates["category"] = category
		}
		if req.Notes != nil {
			notes = repository.TrimOptional(req.Notes)
			updates["notes"] = notes
		}
		if req.Severity != nil {
			updates["severity"] = services.AdjustedSeverity(category, *req.Severity, notes)
		}
		if req.EstimatedCost != nil {
			updates["estimated_cost"] = *req.EstimatedCost
		}

		finding, err := storage.UpdateFinding(ctx, db, id, updates)
		if err != nil {
			respondError(c, err)
			return
		}

		auditor.Record(ctx, models.AuditLog{
			Kind:     models.AuditFindingUpdated,
			Entity:   "finding",
			EntityID: finding.ID,
			Details:  models.AuditDetails{"inspectionId": finding.InspectionID},
		})
		c.JSON(http.StatusOK, finding)
	}
}

// DeleteFinding godoc
// @Summary      Delete finding
// @Tags         findings
// @Security     BearerAuth
// @Param        id   path  string  true  "Finding ID"
// @Success      204
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/findings/{id} [delete]
func DeleteFinding(db *gorm.DB, auditor *services.Auditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		id := c.Param("id")
		if err := storage.DeleteFinding(ctx, db, id); err != nil {
			respondError(c, err)
			return
		}

		auditor.Record(ctx, models.AuditLog{
			Kind:     models.AuditFindingDeleted,
			Entity:   "finding",
			EntityID: id,
		})
		c.Status(http.StatusNoContent)
	}
}
