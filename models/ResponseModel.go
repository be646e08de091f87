package models

import (
	"github.com/shopspring/decimal"
)

// ErrorResponse is used in @Failure for error responses
type ErrorResponse struct {
	Error   string `json:"error" example:"Bad Request"`
	Message string `json:"message" example:"Turbine name is required"`
}

// LoginRequest is used in @Param for login body
type LoginRequest struct {
	Email    string `json:"email" example:"admin@example.com"`
	Password string `json:"password" example:"admin123"`
}

// UserResponse is a user without credentials
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email" example:"eng@example.com"`
	Name  string `json:"name" example:"Engineer"`
	Role  Role   `json:"role" example:"ENGINEER"`
}

func NewUserResponse(u *User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// CreateUserRequest is the body of POST /api/users
type CreateUserRequest struct {
	Email    string `json:"email" example:"new.engineer@example.com"`
	Name     string `json:"name" example:"New Engineer"`
	Role     Role   `json:"role" example:"ENGINEER"`
	Password string `json:"password" example:"Str0ng!Passw0rd"`
}

// PasswordPolicyResponse lists violated password rules
type PasswordPolicyResponse struct {
	Error   string   `json:"error" example:"Bad Request"`
	Message string   `json:"message" example:"Password does not meet requirements"`
	Errors  []string `json:"errors"`
}

// TurbineRequest is the body of turbine create and update. Absent fields are nil.
type TurbineRequest struct {
	Name         *string  `json:"name" example:"T-1000"`
	Manufacturer *string  `json:"manufacturer" example:"SkyGen"`
	MwRating     *float64 `json:"mwRating" example:"2.5"`
	Lat          *float64 `json:"lat" example:"12.98"`
	Lng          *float64 `json:"lng" example:"77.59"`
}

// InspectionRequest is the body of inspection create and update.
type InspectionRequest struct {
	TurbineID     *string     `json:"turbineId"`
	Date          *string     `json:"date" example:"2024-01-15"`
	InspectorName *string     `json:"inspectorName" example:"John Smith"`
	DataSource    *DataSource `json:"dataSource" example:"DRONE"`
	RawPackageURL *string     `json:"rawPackageUrl" example:"https://example.com/inspection1.zip"`
}

// FindingRequest is the body of finding create and update.
type FindingRequest struct {
	InspectionID  *string          `json:"inspectionId"`
	Category      *FindingCategory `json:"category" example:"BLADE_DAMAGE"`
	Severity      *int             `json:"severity" example:"3"`
	EstimatedCost *decimal.Decimal `json:"estimatedCost" swaggertype:"number" example:"5000"`
	Notes         *string          `json:"notes" example:"Minor crack on blade tip"`
}

// AuditLogPage is a page of audit records, newest first
type AuditLogPage struct {
	Data       []AuditLog `json:"data"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	Total      int64      `json:"total"`
	TotalPages int        `json:"totalPages"`
	HasNext    bool       `json:"hasNext"`
	HasPrev    bool       `json:"hasPrev"`
}

// PlanEvent is pushed to subscribers when a repair plan is generated.
type PlanEvent struct {
	InspectionID string   `json:"inspectionId"`
	Priority     Priority `json:"priority,omitempty"`
	At           string   `json:"at"`
}
