package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LeadStatus represents the sales status of a lead
type LeadStatus string

const (
	LeadStatusNew        LeadStatus = "new"
	LeadStatusContacted  LeadStatus = "contacted"
	LeadStatusQuoted     LeadStatus = "quoted"
	LeadStatusSold       LeadStatus = "sold"
	LeadStatusInProgress LeadStatus = "in_progress"
	LeadStatusCompleted  LeadStatus = "completed"
	LeadStatusLost       LeadStatus = "lost"
)

// ProductionSubStatus tracks where a sold job is in production
type ProductionSubStatus string

const (
	SubStatusNotScheduled ProductionSubStatus = "not_scheduled"
	SubStatusScheduled    ProductionSubStatus = "scheduled"
	SubStatusInProduction ProductionSubStatus = "in_production"
	SubStatusCompleted    ProductionSubStatus = "completed"
	SubStatusOnHold       ProductionSubStatus = "on_hold"
)

// Lead represents a customer lead / job
type Lead struct {
	ID                  uuid.UUID           `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	LocationID          uuid.UUID           `gorm:"type:uuid;not null;index" json:"location_id"`
	Location            Location            `gorm:"foreignKey:LocationID" json:"-"`
	CustomerName        string              `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerEmail       string              `gorm:"type:varchar(255)" json:"customer_email"`
	CustomerPhone       string              `gorm:"type:varchar(20)" json:"customer_phone"`
	Address             string              `gorm:"type:text" json:"address"`
	Status              LeadStatus          `gorm:"type:varchar(20);not null;default:'new'" json:"status"`
	SubStatus           ProductionSubStatus `gorm:"type:varchar(20);not null;default:'not_scheduled'" json:"sub_status"`
	SalesRepID          *uuid.UUID          `gorm:"type:uuid;index" json:"sales_rep_id,omitempty"`
	MarketingRepID      *uuid.UUID          `gorm:"type:uuid;index" json:"marketing_rep_id,omitempty"`
	SalesManagerID      *uuid.UUID          `gorm:"type:uuid;index" json:"sales_manager_id,omitempty"`
	ProductionManagerID *uuid.UUID          `gorm:"type:uuid;index" json:"production_manager_id,omitempty"`
	Source              string              `gorm:"type:varchar(100)" json:"source"`
	Notes               string              `gorm:"type:text" json:"notes"`
	CustomFields        JSON                `gorm:"type:jsonb" json:"custom_fields,omitempty"`
	CreatedAt           time.Time           `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time           `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt           gorm.DeletedAt      `gorm:"index" json:"-"`
}

// ParticipantIDs returns the distinct users attached to the lead in a
// commission-bearing capacity. A user holding two roles on the same lead
// appears once.
func (l *Lead) ParticipantIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, ptr := range []*uuid.UUID{l.SalesRepID, l.MarketingRepID, l.SalesManagerID, l.ProductionManagerID} {
		if ptr == nil || *ptr == uuid.Nil || seen[*ptr] {
			continue
		}
		seen[*ptr] = true
		ids = append(ids, *ptr)
	}
	return ids
}
