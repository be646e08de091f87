package storage

import (
	"context"

	"turbineops/models"

	"gorm.io/gorm"
)

// ListFindings returns the findings of one inspection, most severe first.
func ListFindings(ctx context.Context, db *gorm.DB, inspectionID string) ([]models.Finding, error) {
	findings := []models.Finding{}
	err := db.WithContext(ctx).
		Preload("Inspection").
		Preload("Inspection.Turbine").
		Where("inspection_id = ?", inspectionID).
		Order("severity DESC").
		Find(&findings).Error
	return findings, err
}

func GetFinding(ctx context.Context, db *gorm.DB, id string) (*models.Finding, error) {
	var finding models.Finding
	if err := db.WithContext(ctx).First(&finding, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Finding", id)
	}
	return &finding, nil
}

// CreateFinding inserts a finding under an existing inspection.
func CreateFinding(ctx context.Context, db *gorm.DB, finding *models.Finding) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inspection models.Inspection
		if err := tx.Select("id").First(&inspection, "id = ?", finding.InspectionID).Error; err != nil {
			return notFound(err, "Inspection", finding.InspectionID)
		}
		if err := tx.Create(finding).Error; err != nil {
			return err
		}
		return touchInspection(tx, finding.InspectionID)
	})
}

// UpdateFinding applies column updates and returns the fresh row.
func UpdateFinding(ctx context.Context, db *gorm.DB, id string, updates map[string]interface{}) (*models.Finding, error) {
	var finding models.Finding
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&finding, "id = ?", id).Error; err != nil {
			return notFound(err, "Finding", id)
		}
		if len(updates) > 0 {
			if err := tx.Model(&finding).Updates(updates).Error; err != nil {
				return err
			}
		}
		if err := touchInspection(tx, finding.InspectionID); err != nil {
			return err
		}
		return tx.First(&finding, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &finding, nil
}

func DeleteFinding(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var finding models.Finding
		if err := tx.First(&finding, "id = ?", id).Error; err != nil {
			return notFound(err, "Finding", id)
		}
		if err := tx.Delete(&finding).Error; err != nil {
			return err
		}
		return touchInspection(tx, finding.InspectionID)
	})
}
