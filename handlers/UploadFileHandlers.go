package handlers

import (
	"fmt"
	"net/http"
	"time"

	"turbineops/models"
	"turbineops/services"
	"turbineops/storage"
	"turbineops/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const packageURLTTL = 15 * time.Minute

// UploadInspectionPackage godoc
// @Summary      Upload raw capture package
// @Description  Stores the file in object storage and points rawPackageUrl at it
// @Tags         inspections
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Inspection ID"
// @Param        file  formData  file    true  "Package"
// @Success      200   {object}  models.Inspection
// @Failure      400   {object}  models.ErrorResponse
// @Failure      404   {object}  models.ErrorResponse
// @Failure      503   {object}  models.ErrorResponse
// @Router       /api/inspections/{id}/package [post]
func UploadInspectionPackage(db *gorm.DB, objects storage.ObjectStore, auditor *services.Auditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if objects == nil {
			utils.ErrorResponse(c, http.StatusServiceUnavailable, "Package storage is not configured")
			return
		}

		header, err := c.FormFile("file")
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "file is required")
			return
		}

		id := c.Param("id")
		lookupCtx, lookupCancel := utils.GetDefaultQueryContext(c.Request.Context())
		_, err = storage.GetInspection(lookupCtx, db, id)
		lookupCancel()
		if err != nil {
			respondError(c, err)
			return
		}

		file, err := header.Open()
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Unable to read uploaded file")
			return
		}
		defer file.Close()

		uploadCtx, uploadCancel := utils.GetJobQueryContext(c.Request.Context())
		defer uploadCancel()

		key := storage.PackageKey(id, header.Filename)
		url, err := objects.Put(uploadCtx, key, file, header.Size, header.Header.Get("Content-Type"))
		if err != nil {
			respondError(c, err)
			return
		}

		// the query budget starts once the object is stored
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		inspection, err := storage.SetInspectionPackage(ctx, db, id, key, url)
		if err != nil {
			respondError(c, err)
			return
		}

		auditor.Record(ctx, models.AuditLog{
			Kind:     models.AuditPackageUploaded,
			Entity:   "inspection",
			EntityID: id,
			Details:  models.AuditDetails{"key": key, "size": header.Size},
		})
		c.JSON(http.StatusOK, inspection)
	}
}

// DownloadInspectionPackage godoc
// @Summary      Download raw capture package
// @Description  Redirects to a presigned URL valid for 15 minutes
// @Tags         inspections
// @Security     BearerAuth
// @Param        id   path  string  true  "Inspection ID"
// @Success      307
// @Failure      404  {object}  models.ErrorResponse
// @Failure      503  {object}  models.ErrorResponse
// @Router       /api/inspections/{id}/package [get]
func DownloadInspectionPackage(db *gorm.DB, objects storage.ObjectStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if objects == nil {
			utils.ErrorResponse(c, http.StatusServiceUnavailable, "Package storage is not configured")
			return
		}

		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		id := c.Param("id")
		inspection, err := storage.GetInspection(ctx, db, id)
		if err != nil {
			respondError(c, err)
			return
		}
		if inspection.PackageKey == nil || *inspection.PackageKey == "" {
			utils.ErrorResponse(c, http.StatusNotFound, fmt.Sprintf("No package stored for inspection %s", id))
			return
		}

		u, err := objects.PresignGet(ctx, *inspection.PackageKey, packageURLTTL)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, u.String())
	}
}
