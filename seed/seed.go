// Package seed loads the demo data set.
package seed

import (
	"context"
	_ "embed"
	"fmt"

	"turbineops/models"
	"turbineops/repository"
	"turbineops/services"
	"turbineops/storage"
	"turbineops/utils"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

type userFixture struct {
	Email    string      `yaml:"email"`
	Name     string      `yaml:"name"`
	Role     models.Role `yaml:"role"`
	Password string      `yaml:"password"`
}

type turbineFixture struct {
	ID           string  `yaml:"id"`
	Name         string  `yaml:"name"`
	Manufacturer string  `yaml:"manufacturer"`
	MwRating     float64 `yaml:"mwRating"`
	Lat          float64 `yaml:"lat"`
	Lng          float64 `yaml:"lng"`
}

type inspectionFixture struct {
	ID            string            `yaml:"id"`
	TurbineID     string            `yaml:"turbineId"`
	Date          string            `yaml:"date"`
	InspectorName string            `yaml:"inspectorName"`
	DataSource    models.DataSource `yaml:"dataSource"`
	RawPackageURL string            `yaml:"rawPackageUrl"`
}

type findingFixture struct {
	ID            string                 `yaml:"id"`
	InspectionID  string                 `yaml:"inspectionId"`
	Category      models.FindingCategory `yaml:"category"`
	Severity      int                    `yaml:"severity"`
	EstimatedCost string                 `yaml:"estimatedCost"`
	Notes         string                 `yaml:"notes"`
}

// Fixtures is the parsed seed data set.
type Fixtures struct {
	Users       []userFixture       `yaml:"users"`
	Turbines    []turbineFixture    `yaml:"turbines"`
	Inspections []inspectionFixture `yaml:"inspections"`
	Findings    []findingFixture    `yaml:"findings"`
}

// Load parses the embedded fixtures.
func Load() (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(fixturesYAML, &f); err != nil {
		return nil, fmt.Errorf("parse seed fixtures: %w", err)
	}
	return &f, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func ptr(f float64) *float64 {
	return &f
}

// upsertByID overwrites every column of an existing row with the fixture values.
func upsertByID(tx *gorm.DB, value interface{}) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(value).Error
}

// Run upserts the fixtures. Running it twice leaves the same rows behind.
func Run(ctx context.Context, db *gorm.DB, rounds int, log zerolog.Logger) error {
	f, err := Load()
	if err != nil {
		return err
	}

	for _, u := range f.Users {
		hash, err := utils.HashPassword(u.Password, rounds)
		if err != nil {
			return err
		}
		user := &models.User{Email: u.Email, Name: u.Name, Role: u.Role, PasswordHash: hash}
		if err := storage.UpsertUserByEmail(ctx, db, user); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range f.Turbines {
			turbine := &models.Turbine{
				ID:           t.ID,
				Name:         t.Name,
				Manufacturer: optional(t.Manufacturer),
				MwRating:     ptr(t.MwRating),
				Lat:          ptr(t.Lat),
				Lng:          ptr(t.Lng),
			}
			if err := upsertByID(tx, turbine); err != nil {
				return fmt.Errorf("seed turbine %s: %w", t.ID, err)
			}
		}

		for _, in := range f.Inspections {
			date, err := repository.ParseInspectionDate(in.Date)
			if err != nil {
				return fmt.Errorf("seed inspection %s: %w", in.ID, err)
			}
			inspection := &models.Inspection{
				ID:            in.ID,
				TurbineID:     in.TurbineID,
				Date:          date,
				InspectorName: optional(in.InspectorName),
				DataSource:    in.DataSource,
				RawPackageURL: optional(in.RawPackageURL),
			}
			if err := upsertByID(tx, inspection); err != nil {
				return fmt.Errorf("seed inspection %s: %w", in.ID, err)
			}
		}

		for _, fd := range f.Findings {
			cost, err := decimal.NewFromString(fd.EstimatedCost)
			if err != nil {
				return fmt.Errorf("seed finding %s: %w", fd.ID, err)
			}
			notes := optional(fd.Notes)
			finding := &models.Finding{
				ID:            fd.ID,
				InspectionID:  fd.InspectionID,
				Category:      fd.Category,
				Severity:      services.AdjustedSeverity(fd.Category, fd.Severity, notes),
				EstimatedCost: cost,
				Notes:         notes,
			}
			if err := upsertByID(tx, finding); err != nil {
				return fmt.Errorf("seed finding %s: %w", fd.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().
		Int("users", len(f.Users)).
		Int("turbines", len(f.Turbines)).
		Int("inspections", len(f.Inspections)).
		Int("findings", len(f.Findings)).
		Msg("seed data loaded")
	return nil
}
