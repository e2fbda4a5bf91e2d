package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice represents the billing document for a lead's job
type Invoice struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	LeadID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"lead_id"`
	Lead       Lead            `gorm:"foreignKey:LeadID" json:"-"`
	Number     string          `gorm:"type:varchar(50);uniqueIndex" json:"number"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	BalanceDue decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance_due"`
	IssuedAt   *time.Time      `json:"issued_at"`
	CreatedAt  time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`
}

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodCheck    PaymentMethod = "check"
	PaymentMethodTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodFinance  PaymentMethod = "financing"
)

// Payment represents a payment received against a lead's invoice
type Payment struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	LeadID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"lead_id"`
	Lead      Lead            `gorm:"foreignKey:LeadID" json:"-"`
	InvoiceID *uuid.UUID      `gorm:"type:uuid;index" json:"invoice_id,omitempty"`
	Invoice   *Invoice        `gorm:"foreignKey:InvoiceID" json:"-"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method    PaymentMethod   `gorm:"type:varchar(20);not null" json:"method"`
	Reference string          `gorm:"type:varchar(100);uniqueIndex" json:"reference"`
	ClearedAt *time.Time      `gorm:"index" json:"cleared_at,omitempty"`
	Notes     string          `gorm:"type:text" json:"notes"`
	CreatedAt time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Cleared reports whether the payment has cleared the bank.
func (p *Payment) Cleared() bool {
	return p.ClearedAt != nil
}
