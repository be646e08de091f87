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
)

// GetAuditLogsHandler godoc
// @Summary      Get audit logs
// @Tags         audit-logs
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int     false  "Page"
// @Param        limit  query     int     false  "Limit"
// @Param        kind   query     string  false  "Record kind, e.g. PLAN_GENERATED"
// @Success      200    {object}  models.AuditLogPage
// @Router       /api/audit-logs [get]
func GetAuditLogsHandler(auditor *services.Auditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := repository.ParsePagination(c)
		q := storage.AuditQuery{
			Kind:  models.AuditKind(strings.ToUpper(strings.TrimSpace(c.Query("kind")))),
			Page:  page,
			Limit: limit,
		}

		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		result, err := auditor.Page(ctx, q)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
