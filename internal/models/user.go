package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role represents a user's role within a company
type Role string

const (
	RoleAdmin             Role = "admin"
	RoleOfficeManager     Role = "office_manager"
	RoleSalesRep          Role = "sales_rep"
	RoleMarketingRep      Role = "marketing_rep"
	RoleSalesManager      Role = "sales_manager"
	RoleProductionManager Role = "production_manager"
	RoleTeamLead          Role = "team_lead"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOfficeManager, RoleSalesRep, RoleMarketingRep,
		RoleSalesManager, RoleProductionManager, RoleTeamLead:
		return true
	}
	return false
}

// User represents a team member in the system
type User struct {
	ID               uuid.UUID      `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Email            string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FirstName        string         `gorm:"type:varchar(100)" json:"first_name"`
	LastName         string         `gorm:"type:varchar(100)" json:"last_name"`
	PasswordHash     string         `gorm:"type:varchar(255);not null" json:"-"`
	Role             Role           `gorm:"type:varchar(30);not null" json:"role"`
	CommissionPlanID *uuid.UUID     `gorm:"type:uuid;index" json:"commission_plan_id,omitempty"`
	PhoneNumber      *string        `gorm:"type:varchar(20)" json:"phone_number"`
	IsActive         bool           `gorm:"default:true" json:"is_active"`
	LastLoginAt      *time.Time     `json:"last_login_at"`
	CreatedAt        time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}
