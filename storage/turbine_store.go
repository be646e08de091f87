package storage

import (
	"context"
	"fmt"

	"turbineops/models"

	"gorm.io/gorm"
)

// ListTurbines returns all turbines, newest first.
func ListTurbines(ctx context.Context, db *gorm.DB) ([]models.Turbine, error) {
	turbines := []models.Turbine{}
	err := db.WithContext(ctx).Order("created_at DESC").Find(&turbines).Error
	return turbines, err
}

func GetTurbine(ctx context.Context, db *gorm.DB, id string) (*models.Turbine, error) {
	var turbine models.Turbine
	if err := db.WithContext(ctx).First(&turbine, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Turbine", id)
	}
	return &turbine, nil
}

func CreateTurbine(ctx context.Context, db *gorm.DB, turbine *models.Turbine) error {
	return db.WithContext(ctx).Create(turbine).Error
}

// UpdateTurbine applies column updates and returns the fresh row.
func UpdateTurbine(ctx context.Context, db *gorm.DB, id string, updates map[string]interface{}) (*models.Turbine, error) {
	var turbine models.Turbine
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&turbine, "id = ?", id).Error; err != nil {
			return notFound(err, "Turbine", id)
		}
		if len(updates) > 0 {
			if err := tx.Model(&turbine).Updates(updates).Error; err != nil {
				return err
			}
		}
		return tx.First(&turbine, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &turbine, nil
}

// DeleteTurbine removes a turbine that has no inspections.
func DeleteTurbine(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var turbine models.Turbine
		if err := tx.First(&turbine, "id = ?", id).Error; err != nil {
			return notFound(err, "Turbine", id)
		}

		var count int64
		if err := tx.Model(&models.Inspection{}).Where("turbine_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("Cannot delete turbine with existing inspections: %w", ErrConflict)
		}

		return tx.Delete(&turbine).Error
	})
}
