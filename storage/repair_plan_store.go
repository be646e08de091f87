package storage

import (
	"context"
	"errors"
	"fmt"

	"turbineops/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetRepairPlan returns the plan of an inspection.
func GetRepairPlan(ctx context.Context, db *gorm.DB, inspectionID string) (*models.RepairPlan, error) {
	var plan models.RepairPlan
	err := db.WithContext(ctx).First(&plan, "inspection_id = ?", inspectionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("Repair plan for inspection %s not found: %w", inspectionID, ErrNotFound)
		}
		return nil, err
	}
	return &plan, nil
}

// UpsertRepairPlan writes the plan of plan.InspectionID, replacing any earlier one,
// and returns the stored row.
func UpsertRepairPlan(ctx context.Context, db *gorm.DB, plan *models.RepairPlan) (*models.RepairPlan, error) {
	var stored models.RepairPlan
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "inspection_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"priority", "total_estimated_cost", "snapshot_json", "updated_at"}),
		}).Create(plan).Error
		if err != nil {
			return err
		}
		return tx.First(&stored, "inspection_id = ?", plan.InspectionID).Error
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// ListStalePlanInspections returns inspections whose findings changed after their plan was written.
func ListStalePlanInspections(ctx context.Context, db *gorm.DB, limit int) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).
		Table("repair_plans AS rp").
		Joins("JOIN inspections i ON i.id = rp.inspection_id").
		Where("i.findings_changed_at > rp.updated_at OR EXISTS (SELECT 1 FROM findings f WHERE f.inspection_id = rp.inspection_id AND f.updated_at > rp.updated_at)").
		Order("rp.updated_at ASC").
		Limit(limit).
		Pluck("rp.inspection_id", &ids).Error
	return ids, err
}
