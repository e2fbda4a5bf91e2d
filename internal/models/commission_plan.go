package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CommissionType represents how a commission amount is computed
type CommissionType string

const (
	CommissionTypePercentage CommissionType = "percentage"
	CommissionTypeFlatAmount CommissionType = "flat_amount"
	CommissionTypeCustom     CommissionType = "custom"
)

// Valid reports whether the commission type is a known value.
func (t CommissionType) Valid() bool {
	switch t {
	case CommissionTypePercentage, CommissionTypeFlatAmount, CommissionTypeCustom:
		return true
	}
	return false
}

// ParseCommissionType validates a raw string into a CommissionType.
func ParseCommissionType(s string) (CommissionType, error) {
	t := CommissionType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown commission type %q", s)
	}
	return t, nil
}

// PaidWhen represents the trigger condition that makes a commission payable
type PaidWhen string

const (
	PaidWhenDepositPaid  PaidWhen = "when_deposit_paid"
	PaidWhenFinalPayment PaidWhen = "when_final_payment"
	PaidWhenJobCompleted PaidWhen = "when_job_completed"
	PaidWhenCustom       PaidWhen = "custom"
)

// Valid reports whether the trigger condition is a known value.
func (w PaidWhen) Valid() bool {
	switch w {
	case PaidWhenDepositPaid, PaidWhenFinalPayment, PaidWhenJobCompleted, PaidWhenCustom:
		return true
	}
	return false
}

// ParsePaidWhen validates a raw string into a PaidWhen.
func ParsePaidWhen(s string) (PaidWhen, error) {
	w := PaidWhen(s)
	if !w.Valid() {
		return "", fmt.Errorf("unknown trigger condition %q", s)
	}
	return w, nil
}

// CommissionPlan is a reusable named commission template. Plans are never
// physically deleted, only archived via IsActive=false. Ledger rows snapshot
// plan values at creation, so editing a plan never changes historical rows.
type CommissionPlan struct {
	ID             uuid.UUID        `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Name           string           `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	CommissionType CommissionType   `gorm:"type:varchar(20);not null" json:"commission_type"`
	CommissionRate *decimal.Decimal `gorm:"type:decimal(7,4)" json:"commission_rate,omitempty"`
	FlatAmount     *decimal.Decimal `gorm:"type:decimal(12,2)" json:"flat_amount,omitempty"`
	PaidWhen       PaidWhen         `gorm:"type:varchar(30);not null;default:'when_final_payment'" json:"paid_when"`
	Description    string           `gorm:"type:text" json:"description"`
	IsActive       bool             `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt      gorm.DeletedAt   `gorm:"index" json:"-"`
}

// Validate enforces the rate/amount requirements for each plan type.
func (p *CommissionPlan) Validate() error {
	if !p.CommissionType.Valid() {
		return fmt.Errorf("unknown commission type %q", p.CommissionType)
	}
	if !p.PaidWhen.Valid() {
		return fmt.Errorf("unknown trigger condition %q", p.PaidWhen)
	}
	switch p.CommissionType {
	case CommissionTypePercentage:
		if p.CommissionRate == nil {
			return fmt.Errorf("plan %q: percentage plans require commission_rate", p.Name)
		}
	case CommissionTypeFlatAmount:
		if p.FlatAmount == nil {
			return fmt.Errorf("plan %q: flat amount plans require flat_amount", p.Name)
		}
	}
	return nil
}

// LocationCommissionSetting overrides plan values for one user at one
// location. Any nil override field falls through to the user's plan.
type LocationCommissionSetting struct {
	ID                  uuid.UUID        `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	LocationID          uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_location_user" json:"location_id"`
	Location            Location         `gorm:"foreignKey:LocationID" json:"-"`
	UserID              uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_location_user" json:"user_id"`
	User                User             `gorm:"foreignKey:UserID" json:"-"`
	CommissionEnabled   bool             `gorm:"default:true" json:"commission_enabled"`
	CommissionType      *CommissionType  `gorm:"type:varchar(20)" json:"commission_type,omitempty"`
	CommissionRate      *decimal.Decimal `gorm:"type:decimal(7,4)" json:"commission_rate,omitempty"`
	FlatAmount          *decimal.Decimal `gorm:"type:decimal(12,2)" json:"flat_amount,omitempty"`
	PaidWhen            *PaidWhen        `gorm:"type:varchar(30)" json:"paid_when,omitempty"`
	TeamLeadForLocation bool             `gorm:"default:false" json:"team_lead_for_location"`
	IncludeOwnSales     bool             `gorm:"default:false" json:"include_own_sales"`
	CreatedAt           time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt           gorm.DeletedAt   `gorm:"index" json:"-"`
}

// RoleCommissionDefault maps a role to a fallback plan, used by the resolver
// only when the user has no assigned plan and no location override.
type RoleCommissionDefault struct {
	ID               uuid.UUID      `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Role             Role           `gorm:"type:varchar(30);uniqueIndex;not null" json:"role"`
	CommissionPlanID uuid.UUID      `gorm:"type:uuid;not null" json:"commission_plan_id"`
	CommissionPlan   CommissionPlan `gorm:"foreignKey:CommissionPlanID" json:"-"`
	CreatedAt        time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}
