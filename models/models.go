package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Costs travel as JSON numbers, the way the frontend sends them.
	decimal.MarshalJSONWithoutQuotes = true
}

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEngineer Role = "ENGINEER"
	RoleViewer   Role = "VIEWER"
)

// AllRoles lists every role a token may carry.
var AllRoles = []Role{RoleAdmin, RoleEngineer, RoleViewer}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEngineer, RoleViewer:
		return true
	}
	return false
}

type DataSource string

const (
	DataSourceDrone  DataSource = "DRONE"
	DataSourceManual DataSource = "MANUAL"
)

func (d DataSource) Valid() bool {
	return d == DataSourceDrone || d == DataSourceManual
}

type FindingCategory string

const (
	CategoryBladeDamage FindingCategory = "BLADE_DAMAGE"
	CategoryLightning   FindingCategory = "LIGHTNING"
	CategoryErosion     FindingCategory = "EROSION"
	CategoryUnknown     FindingCategory = "UNKNOWN"
)

func (c FindingCategory) Valid() bool {
	switch c {
	case CategoryBladeDamage, CategoryLightning, CategoryErosion, CategoryUnknown:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// JwtUser is the identity carried inside an access token.
type JwtUser struct {
	ID    string `json:"id" example:"b3c1f0d2-4a51-4d8e-9a0e-1f2b3c4d5e6f"`
	Email string `json:"email" example:"eng@example.com"`
	Role  Role   `json:"role" example:"ENGINEER"`
}

// FindingSnapshot is the adjusted finding list frozen into a repair plan.
// Stored as a JSON text column.
type FindingSnapshot []Finding

func (s *FindingSnapshot) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan type %T into FindingSnapshot", v)
	}
}

func (s FindingSnapshot) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// AuditDetails holds the free-form payload of an audit record.
type AuditDetails map[string]interface{}

func (d *AuditDetails) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("cannot scan type %T into AuditDetails", v)
	}
}

func (d AuditDetails) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

type AuditKind string

const (
	AuditPlanGenerated     AuditKind = "PLAN_GENERATED"
	AuditTurbineCreated    AuditKind = "TURBINE_CREATED"
	AuditTurbineUpdated    AuditKind = "TURBINE_UPDATED"
	AuditTurbineDeleted    AuditKind = "TURBINE_DELETED"
	AuditInspectionCreated AuditKind = "INSPECTION_CREATED"
	AuditInspectionUpdated AuditKind = "INSPECTION_UPDATED"
	AuditInspectionDeleted AuditKind = "INSPECTION_DELETED"
	AuditFindingCreated    AuditKind = "FINDING_CREATED"
	AuditFindingUpdated    AuditKind = "FINDING_UPDATED"
	AuditFindingDeleted    AuditKind = "FINDING_DELETED"
	AuditPackageUploaded   AuditKind = "PACKAGE_UPLOADED"
	AuditLoginSucceeded    AuditKind = "LOGIN_SUCCEEDED"
	AuditLoginFailed       AuditKind = "LOGIN_FAILED"
	AuditUserCreated       AuditKind = "USER_CREATED"
)

// AuditLog is one audit record. The same shape is written to the Mongo
// collection and to the relational audit_logs table.
type AuditLog struct {
	ID         string       `gorm:"primaryKey;column:id;type:varchar(36)" bson:"-" json:"id"`
	Kind       AuditKind    `gorm:"column:kind;type:varchar(32);index;not null" bson:"kind" json:"kind"`
	Entity     string       `gorm:"column:entity;type:varchar(32)" bson:"entity,omitempty" json:"entity,omitempty"`
	EntityID   string       `gorm:"column:entity_id;type:varchar(64)" bson:"entityId,omitempty" json:"entityId,omitempty"`
	ActorID    string       `gorm:"column:actor_id;type:varchar(36)" bson:"actorId,omitempty" json:"actorId,omitempty"`
	ActorEmail string       `gorm:"column:actor_email" bson:"actorEmail,omitempty" json:"actorEmail,omitempty"`
	At         time.Time    `gorm:"column:at;index;not null" bson:"at" json:"at"`
	Details    AuditDetails `gorm:"column:details;type:text" bson:"details,omitempty" json:"details,omitempty"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
