package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CommissionStatus represents the lifecycle state of a ledger row
type CommissionStatus string

const (
	CommissionStatusPending   CommissionStatus = "pending"
	CommissionStatusEligible  CommissionStatus = "eligible"
	CommissionStatusApproved  CommissionStatus = "approved"
	CommissionStatusPaid      CommissionStatus = "paid"
	CommissionStatusCancelled CommissionStatus = "cancelled"
)

// Valid reports whether the status is a known value.
func (s CommissionStatus) Valid() bool {
	switch s {
	case CommissionStatusPending, CommissionStatusEligible, CommissionStatusApproved,
		CommissionStatusPaid, CommissionStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the row can never change state again.
func (s CommissionStatus) Terminal() bool {
	return s == CommissionStatusPaid || s == CommissionStatusCancelled
}

// Locked reports whether the row's amounts may no longer be recalculated.
func (s CommissionStatus) Locked() bool {
	return s == CommissionStatusApproved || s == CommissionStatusPaid
}

// LeadCommission is a materialized ledger row: one per (lead, participant).
// Type, rate, flat amount and trigger are snapshotted from the resolved
// configuration at creation time; later plan edits never alter them.
//
// At most one non-deleted row may exist per (lead_id, user_id); migrations
// create a partial unique index to enforce this at the storage layer.
type LeadCommission struct {
	ID                   uuid.UUID        `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	LeadID               uuid.UUID        `gorm:"type:uuid;not null;index:idx_lead_commission_lead" json:"lead_id"`
	Lead                 Lead             `gorm:"foreignKey:LeadID" json:"-"`
	UserID               uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	User                 User             `gorm:"foreignKey:UserID" json:"-"`
	CommissionType       CommissionType   `gorm:"type:varchar(20);not null" json:"commission_type"`
	CommissionRate       *decimal.Decimal `gorm:"type:decimal(7,4)" json:"commission_rate,omitempty"`
	FlatAmount           *decimal.Decimal `gorm:"type:decimal(12,2)" json:"flat_amount,omitempty"`
	PaidWhen             PaidWhen         `gorm:"type:varchar(30);not null" json:"paid_when"`
	BaseAmount           decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"base_amount"`
	CalculatedAmount     decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"calculated_amount"`
	PaidAmount           decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"paid_amount"`
	Status               CommissionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TriggeredByPaymentID *uuid.UUID       `gorm:"type:uuid" json:"triggered_by_payment_id,omitempty"`
	EligibleAt           *time.Time       `json:"eligible_at,omitempty"`
	ApprovedAt           *time.Time       `json:"approved_at,omitempty"`
	PaidAt               *time.Time       `json:"paid_at,omitempty"`
	Notes                string           `gorm:"type:text" json:"notes"`
	CreatedAt            time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt            gorm.DeletedAt   `gorm:"index" json:"-"`
}

// BalanceOwed is the amount still due to the participant.
func (c *LeadCommission) BalanceOwed() decimal.Decimal {
	return c.CalculatedAmount.Sub(c.PaidAmount)
}

// TeamLeadCommission is the derived aggregate ledger row for a team lead,
// keyed by (location, user, period) rather than (lead, user). It follows the
// same state machine as LeadCommission.
type TeamLeadCommission struct {
	ID               uuid.UUID        `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	LocationID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"location_id"`
	Location         Location         `gorm:"foreignKey:LocationID" json:"-"`
	UserID           uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	User             User             `gorm:"foreignKey:UserID" json:"-"`
	Period           string           `gorm:"type:varchar(7);not null" json:"period"` // YYYY-MM
	CommissionType   CommissionType   `gorm:"type:varchar(20);not null" json:"commission_type"`
	CommissionRate   *decimal.Decimal `gorm:"type:decimal(7,4)" json:"commission_rate,omitempty"`
	FlatAmount       *decimal.Decimal `gorm:"type:decimal(12,2)" json:"flat_amount,omitempty"`
	BaseAmount       decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"base_amount"`
	CalculatedAmount decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"calculated_amount"`
	PaidAmount       decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"paid_amount"`
	Status           CommissionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	DealCount        int              `gorm:"default:0" json:"deal_count"`
	CreatedAt        time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt        gorm.DeletedAt   `gorm:"index" json:"-"`
}

// CommissionDiscrepancy is recorded when a recalculation would have changed
// an approved or paid row. The row itself is never silently altered; an
// administrator resolves the difference manually.
type CommissionDiscrepancy struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	LeadCommissionID uuid.UUID       `gorm:"type:uuid;not null;index" json:"lead_commission_id"`
	LeadCommission   LeadCommission  `gorm:"foreignKey:LeadCommissionID" json:"-"`
	RecordedAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"recorded_amount"`
	ExpectedAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"expected_amount"`
	NewBaseAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"new_base_amount"`
	Reason           string          `gorm:"type:text" json:"reason"`
	Resolved         bool            `gorm:"default:false;index" json:"resolved"`
	ResolvedAt       *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt        time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}
