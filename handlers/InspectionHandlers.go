package handlers

import (
	"net/http"
	"strings"
	"time"

	"turbineops/models"
	"turbineops/repository"
	"turbineops/services"
	"turbineops/storage"
	"turbineops/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// inspectionFilterFromQuery reads the list filters. It writes a 400 and returns false on bad input.
func inspectionFilterFromQuery(c *gin.Context) (storage.InspectionFilter, bool) {
	f := storage.InspectionFilter{
		TurbineID:   strings.TrimSpace(c.Query("turbineId")),
		SearchNotes: strings.TrimSpace(c.Query("searchNotes")),
	}
	if ds := strings.TrimSpace(c.Query("dataSource")); ds != "" {
		f.DataSource = models.DataSource(strings.ToUpper(ds))
		if !f.DataSource.Valid() {
			utils.ErrorResponse(c, http.StatusBadRequest, "dataSource must be DRONE or MANUAL")
			return f, false
		}
	}
	if s := c.Query("startDate"); s != "" {
		t, err := repository.ParseInspectionDate(s)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid startDate")
			return f, false
		}
		f.StartDate = &t
	}
	if s := c.Query("endDate"); s != "" {
		t, err := repository.ParseInspectionDate(s)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid endDate")
			return f, false
		}
		end := repository.EndOfDay(t)
		f.EndDate = &end
	}
	return f, true
}

// GetInspections godoc
// @Summary      List inspections
// @Tags         inspections
// @Produce      json
// @Security     BearerAuth
// @Param        turbineId    query     string  false  "Turbine ID"
// @Param        startDate    query     string  false  "From date (inclusive)"
// @Param        endDate      query     string  false  "To date (inclusive)"
// @Param        dataSource   query     string  false  "DRONE or MANUAL"
// @Param        searchNotes  query     string  false  "Substring of any finding's notes"
// @Success      200          {array}   models.Inspection
// @Failure      400          {object}  models.ErrorResponse
// @Router       /api/inspections [get]
func GetInspections(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := inspectionFilterFromQuery(c)
		if !ok {
			return
		}

		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		inspections, err := storage.ListInspections(ctx, db, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, inspections)
	}
}

// GetInspection godoc
// @Summary      Get inspection
// @Tags         inspections
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Inspection ID"
// @Success      200  {object}  models.Inspection
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/inspections/{id} [get]
func GetInspection(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		inspection, err := storage.GetInspection(ctx, db, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, inspection)
	}
}

// CreateInspection godoc
// @Summary      Create inspection
// @Tags         inspections
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      models.InspectionRequest  true  "Inspection"
// @Success      201      {object}  models.Inspection
// @Failure      400      {object}  models.ErrorResponse
// @Failure      404      {object}  models.ErrorResponse
// @Failure      409      {object}  models.ErrorResponse
// @Router       /api/inspections [post]
func CreateInspection(db *gorm.DB, auditor *services.Auditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.InspectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.TurbineID == nil || strings.TrimSpace(*req.TurbineID) == "" ||
			req.Date == nil || strings.TrimSpace(*req.Date) == "" || req.DataSource == nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "turbineId, date, and dataSource are required")
			return
		}
		if !req.DataSource.Valid() {
			utils.ErrorResponse(c, http.StatusBadRequest, "dataSource must be DRONE or MANUAL")
			return
		}
		date, err := repository.ParseInspectionDate(*req.Date)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid date format")
			return
		}

		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		inspection := &models.Inspection{
			TurbineID:     strings.TrimSpace(*req.TurbineID),
			Date:          date,
			InspectorName: repository.TrimOptional(req.InspectorName),
			DataSource:    *req.DataSource,
			RawPackageURL: repository.TrimOptional(req.RawPackageURL),
		}
		if err := storage.CreateInspection(ctx, db, inspection); err != nil {
			respondError(c, err)
			return
		}

		auditor.Record(ctx, models.AuditLog{
			Kind:     models.AuditInspectionCreated,
			Entity:   "inspection",
			EntityID: inspection.ID,
			Details:  models.AuditDetails{"turbineId": inspection.TurbineID, "date": inspection.Date.Format("2006-01-02")},
		})
		c.JSON(http.StatusCreated, inspection)
	}
}

// UpdateInspection godoc
// @Summary      Update inspection
// @Tags         inspections
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Inspection ID"
// @Param        request  body      models.InspectionRequest  true  "Fields to change"
// @Success      200      {object}  models.Inspection
// @Failure      400      {object}  models.ErrorResponse
// @Failure      404      {object}  models.ErrorResponse
// @Failure      409      {object}  models.ErrorResponse
// @Router       /api/inspections/{id} [put]
func UpdateInspection(db *gorm.DB, auditor *services.Auditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.InspectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
			return
		}

		updates := map[string]interface{}{}
		var newDate *time.Time
		if req.Date != nil {
			date, err := repository.ParseInspectionDate(*req.Date)
			if err != nil {
				utils.ErrorResponse(c, http.StatusBadRequest, "Invalid date format")
				return
			}
			newDate = &date
		}
		if req.DataSource != nil {
			if !req.DataSource.Valid() {
				utils.ErrorResponse(c, http.StatusBadRequest, "dataSource must be DRONE or MANUAL")
				return
			}
			updates["data_source"] = *req.DataSource
		}
		if req.InspectorName != nil {
			updates["inspector_name"] = repository.TrimOptional(req.InspectorName)
		}
		if req.RawPackageURL != nil {
			updates["raw_package_url"] = repository.TrimOptional(req.RawPackageURL)
		}

		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		inspection, err := storage.UpdateInspection(ctx, db, c.Param("id"), updates, newDate)
		if err != nil {
			respondError(c, err)
			return
		}

		auditor.Record(ctx, models.AuditLog{
			Kind:     models.AuditInspectionUpdated,
			Entity:   "inspection",
			EntityID: inspection.ID,
		})
		c.JSON(http.StatusOK, inspection)
	}
}

// DeleteInspection godoc
// @Summary      Delete inspection
// @Description  Removes the inspection with its findings and repair plan
// @Tags         inspections
// @Security     BearerAuth
// @Param        id   path  string  true  "Inspection ID"
// @Success      204
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/inspections/{id} [delete]
func DeleteInspection(db *gorm.DB, auditor *services.Auditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		id := c.Param("id")
		if err := storage.DeleteInspection(ctx, db, id); err != nil {
			respondError(c, err)
			return
		}

		auditor.Record(ctx, models.AuditLog{
			Kind:     models.AuditInspectionDeleted,
			Entity:   "inspection",
			EntityID: id,
		})
		c.Status(http.StatusNoContent)
	}
}
