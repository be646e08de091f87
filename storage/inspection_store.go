package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"turbineops/models"

	"gorm.io/gorm"
)

// InspectionFilter narrows ListInspections. Zero fields do not filter.
type InspectionFilter struct {
	TurbineID   string
	DataSource  models.DataSource
	StartDate   *time.Time
	EndDate     *time.Time
	SearchNotes string
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func withInspectionRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Turbine").
		Preload("Findings", func(db *gorm.DB) *gorm.DB {
			return db.Order("severity DESC")
		}).
		Preload("RepairPlan")
}

// ListInspections returns matching inspections with turbine, findings and plan, latest date first.
func ListInspections(ctx context.Context, db *gorm.DB, f InspectionFilter) ([]models.Inspection, error) {
	q := db.WithContext(ctx).Model(&models.Inspection{})
	if f.TurbineID != "" {
		q = q.Where("turbine_id = ?", f.TurbineID)
	}
	if f.DataSource != "" {
		q = q.Where("data_source = ?", f.DataSource)
	}
	if f.StartDate != nil {
		q = q.Where("date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("date <= ?", *f.EndDate)
	}
	if f.SearchNotes != "" {
		q = q.Where(`EXISTS (SELECT 1 FROM findings f WHERE f.inspection_id = inspections.id AND LOWER(f.notes) LIKE ? ESCAPE '\')`,
			containsPattern(f.SearchNotes))
	}

	inspections := []models.Inspection{}
	err := withInspectionRelations(q).Order("date DESC").Find(&inspections).Error
	return inspections, err
}

func GetInspection(ctx context.Context, db *gorm.DB, id string) (*models.Inspection, error) {
	var inspection models.Inspection
	if err := withInspectionRelations(db.WithContext(ctx)).First(&inspection, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Inspection", id)
	}
	return &inspection, nil
}

func dateTaken(tx *gorm.DB, turbineID string, date time.Time, exceptID string) (bool, error) {
	q := tx.Model(&models.Inspection{}).Where("turbine_id = ? AND date = ?", turbineID, date)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateInspection inserts an inspection for an existing turbine.
// A second inspection of the same turbine on the same date yields ErrConflict.
func CreateInspection(ctx context.Context, db *gorm.DB, inspection *models.Inspection) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var turbine models.Turbine
		if err := tx.First(&turbine, "id = ?", inspection.TurbineID).Error; err != nil {
			return notFound(err, "Turbine", inspection.TurbineID)
		}

		taken, err := dateTaken(tx, inspection.TurbineID, inspection.Date, "")
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("Inspection already exists for this turbine on this date: %w", ErrConflict)
		}

		if err := tx.Create(inspection).Error; err != nil {
			return err
		}
		inspection.Turbine = &turbine
		inspection.Findings = []models.Finding{}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("Inspection already exists for this turbine on this date: %w", ErrConflict)
	}
	return err
}

// UpdateInspection applies column updates. When newDate is set it must not
// collide with another inspection of the same turbine.
func UpdateInspection(ctx context.Context, db *gorm.DB, id string, updates map[string]interface{}, newDate *time.Time) (*models.Inspection, error) {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Inspection
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			return notFound(err, "Inspection", id)
		}

		if newDate != nil && !newDate.Equal(existing.Date) {
			taken, err := dateTaken(tx, existing.TurbineID, *newDate, id)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("Another inspection exists for this turbine on the new date: %w", ErrConflict)
			}
			updates["date"] = *newDate
		}

		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&existing).Updates(updates).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("Another inspection exists for this turbine on the new date: %w", ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return GetInspection(ctx, db, id)
}

// DeleteInspection removes the inspection together with its findings and repair plan.
func DeleteInspection(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inspection models.Inspection
		if err := tx.First(&inspection, "id = ?", id).Error; err != nil {
			return notFound(err, "Inspection", id)
		}
		if err := tx.Where("inspection_id = ?", id).Delete(&models.RepairPlan{}).Error; err != nil {
			return err
		}
		if err := tx.Where("inspection_id = ?", id).Delete(&models.Finding{}).Error; err != nil {
			return err
		}
		return tx.Delete(&inspection).Error
	})
}

// SetInspectionPackage records where the raw capture package of an inspection is stored.
func SetInspectionPackage(ctx context.Context, db *gorm.DB, id, key, url string) (*models.Inspection, error) {
	res := db.WithContext(ctx).Model(&models.Inspection{}).Where("id = ?", id).
		Updates(map[string]interface{}{"package_key": key, "raw_package_url": url})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("Inspection with id %s not found: %w", id, ErrNotFound)
	}
	return GetInspection(ctx, db, id)
}

// touchInspection records that a finding of the inspection changed. Only this
// stamp makes a repair plan stale; edits to the inspection itself do not.
func touchInspection(tx *gorm.DB, id string) error {
	now := tx.NowFunc()
	return tx.Model(&models.Inspection{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{"findings_changed_at": now, "updated_at": now}).Error
}
