package commission

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roofline/backend/internal/models"
)

// MemoryStore is an in-memory Store for tests and local experimentation.
// It enforces the same uniqueness rules as the SQL schema so the upsert
// paths can be exercised without a database. Transaction provides mutual
// exclusion but not rollback; tests that need rollback semantics belong in
// integration suites against Postgres.
type MemoryStore struct {
	mu sync.Mutex

	Leads           map[uuid.UUID]*models.Lead
	Users           map[uuid.UUID]*models.User
	Plans           map[uuid.UUID]*models.CommissionPlan
	RoleDefaults    map[models.Role]uuid.UUID
	Settings        []*models.LocationCommissionSetting
	Invoices        []*models.Invoice
	Payments        []*models.Payment
	Commissions     map[uuid.UUID]*models.LeadCommission
	TeamCommissions map[uuid.UUID]*models.TeamLeadCommission
	Discrepancies   []*models.CommissionDiscrepancy
	Deals           []ClosedDeal
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Leads:           make(map[uuid.UUID]*models.Lead),
		Users:           make(map[uuid.UUID]*models.User),
		Plans:           make(map[uuid.UUID]*models.CommissionPlan),
		RoleDefaults:    make(map[models.Role]uuid.UUID),
		Commissions:     make(map[uuid.UUID]*models.LeadCommission),
		TeamCommissions: make(map[uuid.UUID]*models.TeamLeadCommission),
	}
}

var _ TxStore = (*MemoryStore)(nil)

func (m *MemoryStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return fn(m)
}

func (m *MemoryStore) GetLead(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.Leads[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *lead
	return &cp, nil
}

func (m *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.Users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (m *MemoryStore) GetPlan(ctx context.Context, id uuid.UUID) (*models.CommissionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	plan, ok := m.Plans[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *plan
	return &cp, nil
}

func (m *MemoryStore) GetRoleDefaultPlan(ctx context.Context, role models.Role) (*models.CommissionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	planID, ok := m.RoleDefaults[role]
	if !ok {
		return nil, ErrNotFound
	}
	plan, ok := m.Plans[planID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *plan
	return &cp, nil
}

func (m *MemoryStore) GetLocationSetting(ctx context.Context, locationID, userID uuid.UUID) (*models.LocationCommissionSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.Settings {
		if s.LocationID == locationID && s.UserID == userID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListTeamLeadSettings(ctx context.Context, locationID uuid.UUID) ([]models.LocationCommissionSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.LocationCommissionSetting
	for _, s := range m.Settings {
		if s.LocationID == locationID && s.TeamLeadForLocation {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *MemoryStore) ListInvoices(ctx context.Context, leadID uuid.UUID) ([]models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Invoice
	for _, inv := range m.Invoices {
		if inv.LeadID == leadID && !inv.DeletedAt.Valid {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (m *MemoryStore) ListPayments(ctx context.Context, leadID uuid.UUID) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Payment
	for _, p := range m.Payments {
		if p.LeadID == leadID && !p.DeletedAt.Valid {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetLeadCommission(ctx context.Context, leadID, userID uuid.UUID) (*models.LeadCommission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findCommission(leadID, userID)
}

func (m *MemoryStore) findCommission(leadID, userID uuid.UUID) (*models.LeadCommission, error) {
	for _, c := range m.Commissions {
		if c.LeadID == leadID && c.UserID == userID && !c.DeletedAt.Valid {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetLeadCommissionByID(ctx context.Context, id uuid.UUID) (*models.LeadCommission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Commissions[id]
	if !ok || c.DeletedAt.Valid {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryStore) ListLeadCommissions(ctx context.Context, leadID uuid.UUID) ([]models.LeadCommission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.LeadCommission
	for _, c := range m.Commissions {
		if c.LeadID == leadID && !c.DeletedAt.Valid {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *MemoryStore) CreateLeadCommission(ctx context.Context, row *models.LeadCommission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.findCommission(row.LeadID, row.UserID); err == nil {
		return ErrDuplicateLedgerRow
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.CreatedAt = time.Now().UTC()
	cp := *row
	m.Commissions[row.ID] = &cp
	return nil
}

func (m *MemoryStore) SaveLeadCommission(ctx context.Context, row *models.LeadCommission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Commissions[row.ID]; !ok {
		return ErrNotFound
	}
	row.UpdatedAt = time.Now().UTC()
	cp := *row
	m.Commissions[row.ID] = &cp
	return nil
}

func (m *MemoryStore) ListClosedDeals(ctx context.Context, locationID uuid.UUID, from, to time.Time) ([]ClosedDeal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ClosedDeal
	for _, d := range m.Deals {
		lead, ok := m.Leads[d.LeadID]
		if !ok || lead.LocationID != locationID {
			continue
		}
		if d.ClosedAt.Before(from) || !d.ClosedAt.Before(to) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *MemoryStore) GetTeamLeadCommission(ctx context.Context, locationID, userID uuid.UUID, period string) (*models.TeamLeadCommission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.TeamCommissions {
		if c.LocationID == locationID && c.UserID == userID && c.Period == period && !c.DeletedAt.Valid {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetTeamLeadCommissionByID(ctx context.Context, id uuid.UUID) (*models.TeamLeadCommission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.TeamCommissions[id]
	if !ok || c.DeletedAt.Valid {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryStore) CreateTeamLeadCommission(ctx context.Context, row *models.TeamLeadCommission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.TeamCommissions {
		if c.LocationID == row.LocationID && c.UserID == row.UserID && c.Period == row.Period && !c.DeletedAt.Valid {
			return ErrDuplicateLedgerRow
		}
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	cp := *row
	m.TeamCommissions[row.ID] = &cp
	return nil
}

func (m *MemoryStore) SaveTeamLeadCommission(ctx context.Context, row *models.TeamLeadCommission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.TeamCommissions[row.ID]; !ok {
		return ErrNotFound
	}
	cp := *row
	m.TeamCommissions[row.ID] = &cp
	return nil
}

func (m *MemoryStore) CreateDiscrepancy(ctx context.Context, d *models.CommissionDiscrepancy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	cp := *d
	m.Discrepancies = append(m.Discrepancies, &cp)
	return nil
}
