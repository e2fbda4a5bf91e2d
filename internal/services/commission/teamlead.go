package commission

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roofline/backend/internal/models"
)

// TeamLeadAggregator computes override commissions for team leads from the
// production of their location within a period. The result is a derived
// ledger row keyed by (location, user, period), separate from any
// individual-deal commission the same person earns as a rep.
type TeamLeadAggregator struct {
	store    Store
	resolver *Resolver
}

// NewTeamLeadAggregator creates an aggregator backed by the given store.
func NewTeamLeadAggregator(store Store) *TeamLeadAggregator {
	return &TeamLeadAggregator{store: store, resolver: NewResolver(store)}
}

// AggregateBase sums the base amounts of the location's closed deals in the
// period, excluding the team lead's own deals unless include_own_sales is
// set on their location setting.
func (a *TeamLeadAggregator) AggregateBase(ctx context.Context, locationID, teamLeadUserID uuid.UUID, period Period, includeOwnSales bool) (decimal.Decimal, int, error) {
	from, to := period.Bounds()
	deals, err := a.store.ListClosedDeals(ctx, locationID, from, to)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("listing closed deals for location %s: %w", locationID, err)
	}
	base := decimal.Zero
	count := 0
	for _, deal := range deals {
		own := deal.SalesRepID != nil && *deal.SalesRepID == teamLeadUserID
		if own && !includeOwnSales {
			continue
		}
		base = base.Add(deal.BaseAmount)
		count++
	}
	return base, count, nil
}

// Compute upserts the team lead's aggregate row for the period. The team
// lead's own resolved rate or flat amount applies to the aggregate base.
// Rows past pending keep their snapshot; only the base and amount move, and
// only while the row is still pending or eligible.
func (a *TeamLeadAggregator) Compute(ctx context.Context, locationID, teamLeadUserID uuid.UUID, period Period) (*models.TeamLeadCommission, error) {
	setting, err := a.store.GetLocationSetting(ctx, locationID, teamLeadUserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrConfigurationMissing
		}
		return nil, fmt.Errorf("loading location setting: %w", err)
	}
	if !setting.TeamLeadForLocation || !setting.CommissionEnabled {
		return nil, ErrConfigurationMissing
	}

	cfg, err := a.resolver.Resolve(ctx, &models.Lead{LocationID: locationID}, teamLeadUserID)
	if err != nil {
		return nil, err
	}

	base, count, err := a.AggregateBase(ctx, locationID, teamLeadUserID, period, setting.IncludeOwnSales)
	if err != nil {
		return nil, err
	}
	amount := ComputeAmount(cfg.CommissionType, cfg.CommissionRate, cfg.FlatAmount, base)

	existing, err := a.store.GetTeamLeadCommission(ctx, locationID, teamLeadUserID, period.String())
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("loading team lead commission: %w", err)
	}
	if existing != nil {
		switch existing.Status {
		case models.CommissionStatusPending, models.CommissionStatusEligible:
			existing.BaseAmount = base
			existing.DealCount = count
			existing.CalculatedAmount = ComputeAmount(existing.CommissionType, existing.CommissionRate, existing.FlatAmount, base)
			if err := a.store.SaveTeamLeadCommission(ctx, existing); err != nil {
				return nil, fmt.Errorf("saving team lead commission %s: %w", existing.ID, err)
			}
		}
		return existing, nil
	}

	row := &models.TeamLeadCommission{
		ID:               uuid.New(),
		LocationID:       locationID,
		UserID:           teamLeadUserID,
		Period:           period.String(),
		CommissionType:   cfg.CommissionType,
		CommissionRate:   cfg.CommissionRate,
		FlatAmount:       cfg.FlatAmount,
		BaseAmount:       base,
		CalculatedAmount: amount,
		PaidAmount:       decimal.Zero,
		Status:           models.CommissionStatusPending,
		DealCount:        count,
	}
	if err := a.store.CreateTeamLeadCommission(ctx, row); err != nil {
		if errors.Is(err, ErrDuplicateLedgerRow) {
			return a.store.GetTeamLeadCommission(ctx, locationID, teamLeadUserID, period.String())
		}
		return nil, fmt.Errorf("creating team lead commission: %w", err)
	}
	return row, nil
}

// Transition moves an aggregate row to a new status under the same state
// machine as individual ledger rows.
func (a *TeamLeadAggregator) Transition(ctx context.Context, id uuid.UUID, to models.CommissionStatus) (*models.TeamLeadCommission, error) {
	row, err := a.store.GetTeamLeadCommissionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading team lead commission %s: %w", id, err)
	}
	return a.transitionRow(ctx, row, to)
}

func (a *TeamLeadAggregator) transitionRow(ctx context.Context, row *models.TeamLeadCommission, to models.CommissionStatus) (*models.TeamLeadCommission, error) {
	if !CanTransition(row.Status, to) {
		return row, &InvalidTransitionError{From: row.Status, To: to}
	}
	row.Status = to
	if err := a.store.SaveTeamLeadCommission(ctx, row); err != nil {
		return nil, fmt.Errorf("saving transition on team lead commission %s: %w", row.ID, err)
	}
	return row, nil
}

// RecordPayout adds a payout amount to an approved aggregate row and marks
// it paid once the calculated amount is covered.
func (a *TeamLeadAggregator) RecordPayout(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*models.TeamLeadCommission, error) {
	row, err := a.store.GetTeamLeadCommissionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading team lead commission %s: %w", id, err)
	}
	if row.Status != models.CommissionStatusApproved {
		return row, &InvalidTransitionError{From: row.Status, To: models.CommissionStatusPaid}
	}
	row.PaidAmount = row.PaidAmount.Add(amount)
	if err := a.store.SaveTeamLeadCommission(ctx, row); err != nil {
		return nil, fmt.Errorf("saving payout on team lead commission %s: %w", row.ID, err)
	}
	if row.PaidAmount.GreaterThanOrEqual(row.CalculatedAmount) {
		return a.transitionRow(ctx, row, models.CommissionStatusPaid)
	}
	return row, nil
}

// Finalize transitions the location's pending aggregate rows for the period
// to eligible. Called once the period has closed, when the aggregate base
// can no longer move.
func (a *TeamLeadAggregator) Finalize(ctx context.Context, locationID uuid.UUID, period Period) ([]models.TeamLeadCommission, error) {
	settings, err := a.store.ListTeamLeadSettings(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("listing team leads for location %s: %w", locationID, err)
	}
	var finalized []models.TeamLeadCommission
	for _, setting := range settings {
		row, err := a.store.GetTeamLeadCommission(ctx, locationID, setting.UserID, period.String())
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("loading team lead commission: %w", err)
		}
		if row.Status != models.CommissionStatusPending {
			continue
		}
		updated, err := a.transitionRow(ctx, row, models.CommissionStatusEligible)
		if err != nil {
			return nil, err
		}
		finalized = append(finalized, *updated)
	}
	return finalized, nil
}

// ComputeForLocation upserts aggregate rows for every team lead configured
// at the location. Used by the monthly period-close job.
func (a *TeamLeadAggregator) ComputeForLocation(ctx context.Context, locationID uuid.UUID, period Period) ([]models.TeamLeadCommission, error) {
	settings, err := a.store.ListTeamLeadSettings(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("listing team leads for location %s: %w", locationID, err)
	}
	var rows []models.TeamLeadCommission
	for _, setting := range settings {
		row, err := a.Compute(ctx, locationID, setting.UserID, period)
		if err != nil {
			if errors.Is(err, ErrConfigurationMissing) {
				continue
			}
			return nil, err
		}
		rows = append(rows, *row)
	}
	return rows, nil
}
