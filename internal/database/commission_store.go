package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roofline/backend/internal/models"
	"github.com/roofline/backend/internal/services/commission"
)

// CommissionStore is the gorm-backed implementation of commission.TxStore.
// All not-found results map to commission.ErrNotFound and unique-constraint
// violations to commission.ErrDuplicateLedgerRow, so the engine never sees
// gorm errors.
type CommissionStore struct {
	db *gorm.DB
}

// NewCommissionStore creates a store over the given connection.
func NewCommissionStore(db *gorm.DB) *CommissionStore {
	return &CommissionStore{db: db}
}

var _ commission.TxStore = (*CommissionStore)(nil)

// Transaction runs fn atomically. The engine wraps every revenue event in
// one of these, per lead.
func (s *CommissionStore) Transaction(ctx context.Context, fn func(commission.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&CommissionStore{db: tx})
	})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return commission.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return commission.ErrDuplicateLedgerRow
	default:
		return err
	}
}

func (s *CommissionStore) GetLead(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	if err := s.db.WithContext(ctx).First(&lead, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &lead, nil
}

func (s *CommissionStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *CommissionStore) GetPlan(ctx context.Context, id uuid.UUID) (*models.CommissionPlan, error) {
	var plan models.CommissionPlan
	if err := s.db.WithContext(ctx).First(&plan, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &plan, nil
}

func (s *CommissionStore) GetRoleDefaultPlan(ctx context.Context, role models.Role) (*models.CommissionPlan, error) {
	var def models.RoleCommissionDefault
	if err := s.db.WithContext(ctx).First(&def, "role = ?", role).Error; err != nil {
		return nil, translate(err)
	}
	return s.GetPlan(ctx, def.CommissionPlanID)
}

func (s *CommissionStore) GetLocationSetting(ctx context.Context, locationID, userID uuid.UUID) (*models.LocationCommissionSetting, error) {
	var setting models.LocationCommissionSetting
	err := s.db.WithContext(ctx).
		Where("location_id = ? AND user_id = ?", locationID, userID).
		First(&setting).Error
	if err != nil {
		return nil, translate(err)
	}
	return &setting, nil
}

func (s *CommissionStore) ListTeamLeadSettings(ctx context.Context, locationID uuid.UUID) ([]models.LocationCommissionSetting, error) {
	var settings []models.LocationCommissionSetting
	err := s.db.WithContext(ctx).
		Where("location_id = ? AND team_lead_for_location = ?", locationID, true).
		Find(&settings).Error
	if err != nil {
		return nil, translate(err)
	}
	return settings, nil
}

func (s *CommissionStore) ListInvoices(ctx context.Context, leadID uuid.UUID) ([]models.Invoice, error) {
	var invoices []models.Invoice
	if err := s.db.WithContext(ctx).Where("lead_id = ?", leadID).Find(&invoices).Error; err != nil {
		return nil, translate(err)
	}
	return invoices, nil
}

func (s *CommissionStore) ListPayments(ctx context.Context, leadID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	if err := s.db.WithContext(ctx).Where("lead_id = ?", leadID).Find(&payments).Error; err != nil {
		return nil, translate(err)
	}
	return payments, nil
}

func (s *CommissionStore) GetLeadCommission(ctx context.Context, leadID, userID uuid.UUID) (*models.LeadCommission, error) {
	var row models.LeadCommission
	err := s.db.WithContext(ctx).
		Where("lead_id = ? AND user_id = ?", leadID, userID).
		First(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (s *CommissionStore) GetLeadCommissionByID(ctx context.Context, id uuid.UUID) (*models.LeadCommission, error) {
	var row models.LeadCommission
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (s *CommissionStore) ListLeadCommissions(ctx context.Context, leadID uuid.UUID) ([]models.LeadCommission, error) {
	var rows []models.LeadCommission
	if err := s.db.WithContext(ctx).Where("lead_id = ?", leadID).Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

func (s *CommissionStore) CreateLeadCommission(ctx context.Context, row *models.LeadCommission) error {
	return translate(s.db.WithContext(ctx).Create(row).Error)
}

func (s *CommissionStore) SaveLeadCommission(ctx context.Context, row *models.LeadCommission) error {
	return translate(s.db.WithContext(ctx).Save(row).Error)
}

// ListClosedDeals returns completed jobs at the location whose completion
// fell inside [from, to), with the job's invoice total as the deal base.
func (s *CommissionStore) ListClosedDeals(ctx context.Context, locationID uuid.UUID, from, to time.Time) ([]commission.ClosedDeal, error) {
	var deals []commission.ClosedDeal
	err := s.db.WithContext(ctx).
		Table("leads").
		Select("leads.id AS lead_id, leads.sales_rep_id, COALESCE(SUM(invoices.total), 0) AS base_amount, leads.updated_at AS closed_at").
		Joins("JOIN invoices ON invoices.lead_id = leads.id AND invoices.deleted_at IS NULL").
		Where("leads.location_id = ? AND leads.status = ? AND leads.deleted_at IS NULL", locationID, models.LeadStatusCompleted).
		Where("leads.updated_at >= ? AND leads.updated_at < ?", from, to).
		Group("leads.id").
		Scan(&deals).Error
	if err != nil {
		return nil, translate(err)
	}
	return deals, nil
}

func (s *CommissionStore) GetTeamLeadCommission(ctx context.Context, locationID, userID uuid.UUID, period string) (*models.TeamLeadCommission, error) {
	var row models.TeamLeadCommission
	err := s.db.WithContext(ctx).
		Where("location_id = ? AND user_id = ? AND period = ?", locationID, userID, period).
		First(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (s *CommissionStore) GetTeamLeadCommissionByID(ctx context.Context, id uuid.UUID) (*models.TeamLeadCommission, error) {
	var row models.TeamLeadCommission
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (s *CommissionStore) CreateTeamLeadCommission(ctx context.Context, row *models.TeamLeadCommission) error {
	return translate(s.db.WithContext(ctx).Create(row).Error)
}

func (s *CommissionStore) SaveTeamLeadCommission(ctx context.Context, row *models.TeamLeadCommission) error {
	return translate(s.db.WithContext(ctx).Save(row).Error)
}

func (s *CommissionStore) CreateDiscrepancy(ctx context.Context, d *models.CommissionDiscrepancy) error {
	return translate(s.db.WithContext(ctx).Create(d).Error)
}
