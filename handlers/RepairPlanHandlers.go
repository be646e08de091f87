package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"turbineops/services"
	"turbineops/storage"
	"turbineops/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GenerateRepairPlan godoc
// @Summary      Generate repair plan
// @Description  Derives priority and total cost from the inspection's findings and stores the plan, replacing any earlier one
// @Tags         repair-plans
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Inspection ID"
// @Success      200  {object}  models.RepairPlan
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/inspections/{id}/repair-plan [post]
func GenerateRepairPlan(planner *services.Planner) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		plan, err := planner.Generate(ctx, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, plan)
	}
}

// GetRepairPlan godoc
// @Summary      Get repair plan
// @Tags         repair-plans
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Inspection ID"
// @Success      200  {object}  models.RepairPlan
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/inspections/{id}/repair-plan [get]
func GetRepairPlan(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		plan, err := storage.GetRepairPlan(ctx, db, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, plan)
	}
}

// GetRepairPlanPDF godoc
// @Summary      Repair plan report
// @Tags         repair-plans
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path      string  true  "Inspection ID"
// @Success      200  {file}    file    "PDF"
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/inspections/{id}/repair-plan.pdf [get]
func GetRepairPlanPDF(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		id := c.Param("id")
		inspection, err := storage.GetInspection(ctx, db, id)
		if err != nil {
			respondError(c, err)
			return
		}
		plan, err := storage.GetRepairPlan(ctx, db, id)
		if err != nil {
			respondError(c, err)
			return
		}

		var buf bytes.Buffer
		if err := services.WriteRepairPlanPDF(&buf, inspection, plan); err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="repair-plan-%s.pdf"`, id))
		c.Data(http.StatusOK, "application/pdf", buf.Bytes())
	}
}
