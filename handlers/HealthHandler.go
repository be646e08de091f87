package handlers

import (
	"context"
	"net/http"
	"time"

	"turbineops/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Healthz godoc
// @Summary  Liveness
// @Tags     health
// @Produce  json
// @Success  200  {object}  map[string]bool
// @Router   /api/healthz [get]
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Readyz godoc
// @Summary  Readiness
// @Tags     health
// @Produce  json
// @Success  200  {object}  map[string]interface{}
// @Failure  503  {object}  map[string]interface{}
// @Router   /api/readyz [get]
func Readyz(db *gorm.DB, auditor *services.Auditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		checks := gin.H{}
		ready := true

		if sqlDB, err := db.DB(); err != nil {
			checks["database"] = err.Error()
			ready = false
		} else if err := sqlDB.PingContext(ctx); err != nil {
			checks["database"] = err.Error()
			ready = false
		} else {
			checks["database"] = "ok"
		}

		if auditor != nil {
			if err := auditor.Ping(ctx); err != nil {
				checks["audit"] = err.Error()
				ready = false
			} else {
				checks["audit"] = "ok"
			}
		}

		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"ok": ready, "checks": checks})
	}
}
