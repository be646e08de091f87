package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"turbineops/services"
	"turbineops/storage"
	"turbineops/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportInspections godoc
// @Summary      Export inspections
// @Description  The filtered inspection list as an XLSX workbook with Inspections and Findings sheets
// @Tags         inspections
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        turbineId    query     string  false  "Turbine ID"
// @Param        startDate    query     string  false  "From date (inclusive)"
// @Param        endDate      query     string  false  "To date (inclusive)"
// @Param        dataSource   query     string  false  "DRONE or MANUAL"
// @Param        searchNotes  query     string  false  "Substring of any finding's notes"
// @Success      200          {file}    file    "XLSX workbook"
// @Router       /api/inspections/export.xlsx [get]
func ExportInspections(db *gorm.DB) gin.HandlerFunc {
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

		var buf bytes.Buffer
		if err := services.WriteInspectionsXLSX(&buf, inspections); err != nil {
			respondError(c, err)
			return
		}

		filename := fmt.Sprintf("inspections-%s.xlsx", time.Now().UTC().Format("20060102"))
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	}
}
