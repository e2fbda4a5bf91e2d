package commission

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/roofline/backend/internal/models"
)

// Store is the transactional data-access boundary the engine is built
// against. The production implementation wraps gorm (internal/database);
// tests use the in-memory implementation in this package. Methods return
// ErrNotFound for missing records and ErrDuplicateLedgerRow when an insert
// violates the (lead_id, user_id) or (location_id, user_id, period) unique
// constraint.
type Store interface {
	GetLead(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetPlan(ctx context.Context, id uuid.UUID) (*models.CommissionPlan, error)
	GetRoleDefaultPlan(ctx context.Context, role models.Role) (*models.CommissionPlan, error)
	GetLocationSetting(ctx context.Context, locationID, userID uuid.UUID) (*models.LocationCommissionSetting, error)
	ListTeamLeadSettings(ctx context.Context, locationID uuid.UUID) ([]models.LocationCommissionSetting, error)

	ListInvoices(ctx context.Context, leadID uuid.UUID) ([]models.Invoice, error)
	ListPayments(ctx context.Context, leadID uuid.UUID) ([]models.Payment, error)

	GetLeadCommission(ctx context.Context, leadID, userID uuid.UUID) (*models.LeadCommission, error)
	GetLeadCommissionByID(ctx context.Context, id uuid.UUID) (*models.LeadCommission, error)
	ListLeadCommissions(ctx context.Context, leadID uuid.UUID) ([]models.LeadCommission, error)
	CreateLeadCommission(ctx context.Context, row *models.LeadCommission) error
	SaveLeadCommission(ctx context.Context, row *models.LeadCommission) error

	ListClosedDeals(ctx context.Context, locationID uuid.UUID, from, to time.Time) ([]ClosedDeal, error)
	GetTeamLeadCommission(ctx context.Context, locationID, userID uuid.UUID, period string) (*models.TeamLeadCommission, error)
	GetTeamLeadCommissionByID(ctx context.Context, id uuid.UUID) (*models.TeamLeadCommission, error)
	CreateTeamLeadCommission(ctx context.Context, row *models.TeamLeadCommission) error
	SaveTeamLeadCommission(ctx context.Context, row *models.TeamLeadCommission) error

	CreateDiscrepancy(ctx context.Context, d *models.CommissionDiscrepancy) error
}

// TxStore opens atomic units of work. The engine wraps every revenue-event
// invocation in a single transaction per lead so that concurrent events
// cannot both observe stale eligibility state.
type TxStore interface {
	Store
	Transaction(ctx context.Context, fn func(Store) error) error
}
