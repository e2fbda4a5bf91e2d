package lead

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roofline/backend/internal/database"
	"github.com/roofline/backend/internal/models"
	"github.com/roofline/backend/internal/services/commission"
)

// LeadService handles lead lifecycle operations
type LeadService struct {
	db     *gorm.DB
	engine *commission.Engine
}

// NewLeadService creates a new lead service
func NewLeadService(db *gorm.DB, engine *commission.Engine) *LeadService {
	return &LeadService{db: db, engine: engine}
}

// CreateLead creates a new lead
func (s *LeadService) CreateLead(ctx context.Context, lead *models.Lead) (*models.Lead, error) {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}
	if lead.SubStatus == "" {
		lead.SubStatus = models.SubStatusNotScheduled
	}
	if err := s.db.WithContext(ctx).Create(lead).Error; err != nil {
		return nil, fmt.Errorf("error creating lead: %w", err)
	}
	return lead, nil
}

// GetLead returns a lead by id.
func (s *LeadService) GetLead(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	if err := s.db.WithContext(ctx).First(&lead, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("error finding lead: %w", err)
	}
	return &lead, nil
}

// ListLeads returns leads for a location, newest first.
func (s *LeadService) ListLeads(ctx context.Context, locationID *uuid.UUID) ([]models.Lead, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if locationID != nil {
		query = query.Where("location_id = ?", *locationID)
	}
	var leads []models.Lead
	if err := query.Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("error finding leads: %w", err)
	}
	return leads, nil
}

// UpdateAssignments changes the participants on a lead. The next revenue
// event will materialize ledger rows for any new participants.
func (s *LeadService) UpdateAssignments(ctx context.Context, id uuid.UUID, salesRep, marketingRep, salesManager, productionManager *uuid.UUID) (*models.Lead, error) {
	lead, err := s.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}
	lead.SalesRepID = salesRep
	lead.MarketingRepID = marketingRep
	lead.SalesManagerID = salesManager
	lead.ProductionManagerID = productionManager
	if err := s.db.WithContext(ctx).Save(lead).Error; err != nil {
		return nil, fmt.Errorf("error updating lead assignments: %w", err)
	}
	if err := s.engine.OnInvoiceChanged(ctx, id); err != nil {
		return nil, fmt.Errorf("error processing commissions for lead: %w", err)
	}
	return lead, nil
}

// UpdateStatus changes the lead's status and production sub-status and fires
// the lead-status revenue event, which can satisfy when_job_completed
// triggers.
func (s *LeadService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.LeadStatus, subStatus models.ProductionSubStatus) (*models.Lead, error) {
	lead, err := s.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}
	lead.Status = status
	lead.SubStatus = subStatus
	if err := s.db.WithContext(ctx).Save(lead).Error; err != nil {
		return nil, fmt.Errorf("error updating lead status: %w", err)
	}
	if err := s.engine.OnLeadStatusChanged(ctx, id); err != nil {
		return nil, fmt.Errorf("error processing commissions for lead: %w", err)
	}
	return lead, nil
}

// DeleteLead soft-deletes a lead. All pending and eligible commission rows
// are cancelled in the same transaction as the deletion; approved and paid
// rows are left for manual administrative reversal.
func (s *LeadService) DeleteLead(ctx context.Context, id uuid.UUID) error {
	lead, err := s.GetLead(ctx, id)
	if err != nil {
		return err
	}

	var events []commission.Event
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(lead).Error; err != nil {
			return fmt.Errorf("error deleting lead: %w", err)
		}
		var err error
		events, err = s.engine.CancelLead(ctx, database.NewCommissionStore(tx), id)
		return err
	})
	if err != nil {
		return err
	}
	s.engine.DispatchAll(events)
	return nil
}
