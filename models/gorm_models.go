package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GORM models for the relational store. IDs are UUID strings assigned on create.

func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// User is an account that can log in. PasswordHash never leaves the server.
type User struct {
	ID           string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	Email        string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Name         string    `gorm:"column:name" json:"name"`
	Role         Role      `gorm:"column:role;type:varchar(16);not null;default:VIEWER" json:"role"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	assignID(&u.ID)
	return nil
}

// JwtUser returns the token identity for u.
func (u *User) JwtUser() JwtUser {
	return JwtUser{ID: u.ID, Email: u.Email, Role: u.Role}
}

type Turbine struct {
	ID           string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	Manufacturer *string   `gorm:"column:manufacturer" json:"manufacturer"`
	MwRating     *float64  `gorm:"column:mw_rating" json:"mwRating"`
	Lat          *float64  `gorm:"column:lat" json:"lat"`
	Lng          *float64  `gorm:"column:lng" json:"lng"`
	CreatedAt    time.Time `gorm:"column:created_at;index" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (Turbine) TableName() string {
	return "turbines"
}

func (t *Turbine) BeforeCreate(tx *gorm.DB) error {
	assignID(&t.ID)
	return nil
}

// Inspection is unique per turbine and calendar day. FindingsChangedAt is
// stamped whenever one of its findings is written.
type Inspection struct {
	ID                string      `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	TurbineID         string      `gorm:"column:turbine_id;type:varchar(36);not null;uniqueIndex:idx_inspection_turbine_date" json:"turbineId"`
	Date              time.Time   `gorm:"column:date;not null;uniqueIndex:idx_inspection_turbine_date" json:"date"`
	InspectorName     *string     `gorm:"column:inspector_name" json:"inspectorName"`
	DataSource        DataSource  `gorm:"column:data_source;type:varchar(16);not null" json:"dataSource"`
	RawPackageURL     *string     `gorm:"column:raw_package_url" json:"rawPackageUrl"`
	PackageKey        *string     `gorm:"column:package_key" json:"-"`
	FindingsChangedAt *time.Time  `gorm:"column:findings_changed_at;index" json:"-"`
	CreatedAt         time.Time   `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt         time.Time   `gorm:"column:updated_at" json:"updatedAt"`
	Turbine           *Turbine    `gorm:"foreignKey:TurbineID" json:"turbine,omitempty"`
	Findings          []Finding   `gorm:"foreignKey:InspectionID" json:"findings"`
	RepairPlan        *RepairPlan `gorm:"foreignKey:InspectionID" json:"repairPlan"`
}

func (Inspection) TableName() string {
	return "inspections"
}

func (i *Inspection) BeforeCreate(tx *gorm.DB) error {
	assignID(&i.ID)
	return nil
}

type Finding struct {
	ID            string          `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	InspectionID  string          `gorm:"column:inspection_id;type:varchar(36);not null;index" json:"inspectionId"`
	Category      FindingCategory `gorm:"column:category;type:varchar(32);not null" json:"category"`
	Severity      int             `gorm:"column:severity;not null" json:"severity"`
	EstimatedCost decimal.Decimal `gorm:"column:estimated_cost;type:numeric(12,2);not null" json:"estimatedCost"`
	Notes         *string         `gorm:"column:notes" json:"notes"`
	CreatedAt     time.Time       `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;index" json:"updatedAt"`
	Inspection    *Inspection     `gorm:"foreignKey:InspectionID" json:"inspection,omitempty"`
}

func (Finding) TableName() string {
	return "findings"
}

func (f *Finding) BeforeCreate(tx *gorm.DB) error {
	assignID(&f.ID)
	return nil
}

// RepairPlan is the derived summary of one inspection. At most one per inspection.
type RepairPlan struct {
	ID                 string          `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	InspectionID       string          `gorm:"column:inspection_id;type:varchar(36);not null;uniqueIndex" json:"inspectionId"`
	Priority           Priority        `gorm:"column:priority;type:varchar(8);not null" json:"priority"`
	TotalEstimatedCost decimal.Decimal `gorm:"column:total_estimated_cost;type:numeric(14,2);not null" json:"totalEstimatedCost"`
	SnapshotJSON       FindingSnapshot `gorm:"column:snapshot_json;type:text" json:"snapshotJson"`
	CreatedAt          time.Time       `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt          time.Time       `gorm:"column:updated_at" json:"updatedAt"`
}

func (RepairPlan) TableName() string {
	return "repair_plans"
}

func (p *RepairPlan) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// AllModels is the AutoMigrate set, in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Turbine{},
		&Inspection{},
		&Finding{},
		&RepairPlan{},
		&AuditLog{},
	}
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}
