package commission

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roofline/backend/internal/models"
)

// Resolver determines the effective commission configuration for a
// participant on a lead. It is a pure read: it never mutates plans,
// overrides, or ledger rows.
//
// Precedence, first match wins:
//  1. An existing ledger-row snapshot (applied by the ledger on
//     recalculation, not here; snapshots are authoritative post-creation).
//  2. The (location, user) override when commission_enabled is true.
//  3. The user's assigned plan.
//  4. The role-default plan.
//
// When none apply the participant earns no commission on the lead and
// Resolve returns ErrConfigurationMissing.
type Resolver struct {
	store Store
}

// NewResolver creates a resolver backed by the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the effective configuration for (lead, participant).
func (r *Resolver) Resolve(ctx context.Context, lead *models.Lead, userID uuid.UUID) (*ResolvedConfig, error) {
	setting, err := r.store.GetLocationSetting(ctx, lead.LocationID, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("loading location setting: %w", err)
	}
	if setting != nil {
		if !setting.CommissionEnabled {
			return nil, ErrConfigurationMissing
		}
		cfg, err := r.fromSetting(ctx, setting, userID)
		if err != nil {
			return nil, err
		}
		if cfg != nil {
			return cfg, nil
		}
	}

	user, err := r.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrConfigurationMissing
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	if user.CommissionPlanID != nil {
		plan, err := r.store.GetPlan(ctx, *user.CommissionPlanID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("loading plan: %w", err)
		}
		if plan != nil && plan.IsActive {
			return r.overlay(plan, setting, SourceAssignedPlan), nil
		}
	}

	plan, err := r.store.GetRoleDefaultPlan(ctx, user.Role)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrConfigurationMissing
		}
		return nil, fmt.Errorf("loading role default: %w", err)
	}
	if !plan.IsActive {
		return nil, ErrConfigurationMissing
	}
	return r.overlay(plan, setting, SourceRoleDefault), nil
}

// fromSetting builds a config from the location override when the override
// carries a commission type. A setting whose type is nil only modifies
// whatever plan resolves beneath it, so nil is returned to let resolution
// fall through. Null rate, flat amount and trigger fields on the override
// fall through to the user's assigned plan.
func (r *Resolver) fromSetting(ctx context.Context, setting *models.LocationCommissionSetting, userID uuid.UUID) (*ResolvedConfig, error) {
	if setting.CommissionType == nil {
		return nil, nil
	}
	cfg := &ResolvedConfig{
		CommissionType: *setting.CommissionType,
		CommissionRate: setting.CommissionRate,
		FlatAmount:     setting.FlatAmount,
		PaidWhen:       models.PaidWhenFinalPayment,
		Source:         SourceLocationOverride,
	}
	if setting.PaidWhen != nil {
		cfg.PaidWhen = *setting.PaidWhen
	}
	if plan, ok := r.assignedPlan(ctx, userID); ok {
		if cfg.CommissionRate == nil {
			cfg.CommissionRate = plan.CommissionRate
		}
		if cfg.FlatAmount == nil {
			cfg.FlatAmount = plan.FlatAmount
		}
		if setting.PaidWhen == nil {
			cfg.PaidWhen = plan.PaidWhen
		}
	}
	return cfg, nil
}

// assignedPlan looks up the user's plan, for overrides whose null fields
// fall through to plan values.
func (r *Resolver) assignedPlan(ctx context.Context, userID uuid.UUID) (*models.CommissionPlan, bool) {
	user, err := r.store.GetUser(ctx, userID)
	if err != nil || user.CommissionPlanID == nil {
		return nil, false
	}
	plan, err := r.store.GetPlan(ctx, *user.CommissionPlanID)
	if err != nil {
		return nil, false
	}
	return plan, true
}

// overlay applies any non-nil override fields from the location setting on
// top of a plan. Null override fields fall through to the plan.
func (r *Resolver) overlay(plan *models.CommissionPlan, setting *models.LocationCommissionSetting, source ConfigSource) *ResolvedConfig {
	cfg := &ResolvedConfig{
		CommissionType: plan.CommissionType,
		CommissionRate: plan.CommissionRate,
		FlatAmount:     plan.FlatAmount,
		PaidWhen:       plan.PaidWhen,
		Source:         source,
	}
	if setting == nil || !setting.CommissionEnabled {
		return cfg
	}
	if setting.CommissionRate != nil {
		cfg.CommissionRate = setting.CommissionRate
		cfg.Source = SourceLocationOverride
	}
	if setting.FlatAmount != nil {
		cfg.FlatAmount = setting.FlatAmount
		cfg.Source = SourceLocationOverride
	}
	if setting.PaidWhen != nil {
		cfg.PaidWhen = *setting.PaidWhen
		cfg.Source = SourceLocationOverride
	}
	return cfg
}
