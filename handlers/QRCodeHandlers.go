package handlers

import (
	"fmt"
	"net/http"

	"turbineops/services"
	"turbineops/storage"
	"turbineops/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetTurbineQRCode godoc
// @Summary      Turbine asset tag
// @Description  PNG QR code encoding turbine:<id>, labelled with the turbine name
// @Tags         turbines
// @Produce      png
// @Security     BearerAuth
// @Param        id   path      string  true  "Turbine ID"
// @Success      200  {file}    file    "PNG image"
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/turbines/{id}/qrcode [get]
func GetTurbineQRCode(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		turbine, err := storage.GetTurbine(ctx, db, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		img, err := services.TurbineTagPNG(turbine)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="turbine-%s.png"`, turbine.ID))
		c.Data(http.StatusOK, "image/png", img)
	}
}
