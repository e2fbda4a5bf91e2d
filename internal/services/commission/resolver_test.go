package commission

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roofline/backend/internal/models"
)

// resolverFixture seeds a store with one location, one sales rep and an
// assigned percentage plan.
type resolverFixture struct {
	store      *MemoryStore
	locationID uuid.UUID
	userID     uuid.UUID
	planID     uuid.UUID
	lead       *models.Lead
}

func newResolverFixture() *resolverFixture {
	f := &resolverFixture{
		store:      NewMemoryStore(),
		locationID: uuid.New(),
		userID:     uuid.New(),
		planID:     uuid.New(),
	}
	f.store.Plans[f.planID] = &models.CommissionPlan{
		ID:             f.planID,
		Name:           "Standard Sales",
		CommissionType: models.CommissionTypePercentage,
		CommissionRate: decPtr("10"),
		PaidWhen:       models.PaidWhenFinalPayment,
		IsActive:       true,
	}
	planID := f.planID
	f.store.Users[f.userID] = &models.User{
		ID:               f.userID,
		Role:             models.RoleSalesRep,
		CommissionPlanID: &planID,
	}
	f.lead = &models.Lead{ID: uuid.New(), LocationID: f.locationID, SalesRepID: &f.userID}
	f.store.Leads[f.lead.ID] = f.lead
	return f
}

func TestResolveAssignedPlan(t *testing.T) {
	f := newResolverFixture()
	cfg, err := NewResolver(f.store).Resolve(context.Background(), f.lead, f.userID)
	require.NoError(t, err)

	assert.Equal(t, SourceAssignedPlan, cfg.Source)
	assert.Equal(t, models.CommissionTypePercentage, cfg.CommissionType)
	assert.True(t, dec("10").Equal(*cfg.CommissionRate))
	assert.Equal(t, models.PaidWhenFinalPayment, cfg.PaidWhen)
}

func TestResolveLocationOverrideCompleteType(t *testing.T) {
	f := newResolverFixture()
	flatType := models.CommissionTypeFlatAmount
	trigger := models.PaidWhenDepositPaid
	f.store.Settings = append(f.store.Settings, &models.LocationCommissionSetting{
		ID:                uuid.New(),
		LocationID:        f.locationID,
		UserID:            f.userID,
		CommissionEnabled: true,
		CommissionType:    &flatType,
		FlatAmount:        decPtr("300"),
		PaidWhen:          &trigger,
	})

	cfg, err := NewResolver(f.store).Resolve(context.Background(), f.lead, f.userID)
	require.NoError(t, err)

	assert.Equal(t, SourceLocationOverride, cfg.Source)
	assert.Equal(t, models.CommissionTypeFlatAmount, cfg.CommissionType)
	assert.True(t, dec("300").Equal(*cfg.FlatAmount))
	assert.Equal(t, models.PaidWhenDepositPaid, cfg.PaidWhen)
}

func TestResolveOverrideRateOnlyKeepsPlanTrigger(t *testing.T) {
	f := newResolverFixture()
	// Rate-only override: type and trigger fall through to the plan
	f.store.Settings = append(f.store.Settings, &models.LocationCommissionSetting{
		ID:                uuid.New(),
		LocationID:        f.locationID,
		UserID:            f.userID,
		CommissionEnabled: true,
		CommissionRate:    decPtr("12.5"),
	})

	cfg, err := NewResolver(f.store).Resolve(context.Background(), f.lead, f.userID)
	require.NoError(t, err)

	assert.Equal(t, SourceLocationOverride, cfg.Source)
	assert.Equal(t, models.CommissionTypePercentage, cfg.CommissionType)
	assert.True(t, dec("12.5").Equal(*cfg.CommissionRate))
	assert.Equal(t, models.PaidWhenFinalPayment, cfg.PaidWhen)
}

func TestResolveOverrideTypeOnlyFallsThroughToPlanRate(t *testing.T) {
	f := newResolverFixture()
	// Type-only override: null rate and trigger fall through to the plan
	pctType := models.CommissionTypePercentage
	f.store.Settings = append(f.store.Settings, &models.LocationCommissionSetting{
		ID:                uuid.New(),
		LocationID:        f.locationID,
		UserID:            f.userID,
		CommissionEnabled: true,
		CommissionType:    &pctType,
	})

	cfg, err := NewResolver(f.store).Resolve(context.Background(), f.lead, f.userID)
	require.NoError(t, err)

	assert.Equal(t, SourceLocationOverride, cfg.Source)
	require.NotNil(t, cfg.CommissionRate)
	assert.True(t, dec("10").Equal(*cfg.CommissionRate))
	assert.Equal(t, models.PaidWhenFinalPayment, cfg.PaidWhen)
}

func TestResolveDisabledAtLocation(t *testing.T) {
	f := newResolverFixture()
	f.store.Settings = append(f.store.Settings, &models.LocationCommissionSetting{
		ID:                uuid.New(),
		LocationID:        f.locationID,
		UserID:            f.userID,
		CommissionEnabled: false,
	})

	_, err := NewResolver(f.store).Resolve(context.Background(), f.lead, f.userID)
	assert.ErrorIs(t, err, ErrConfigurationMissing)
}

func TestResolveRoleDefault(t *testing.T) {
	f := newResolverFixture()
	f.store.Users[f.userID].CommissionPlanID = nil
	f.store.RoleDefaults[models.RoleSalesRep] = f.planID

	cfg, err := NewResolver(f.store).Resolve(context.Background(), f.lead, f.userID)
	require.NoError(t, err)
	assert.Equal(t, SourceRoleDefault, cfg.Source)
	assert.True(t, dec("10").Equal(*cfg.CommissionRate))
}

func TestResolveArchivedPlanFallsToRoleDefault(t *testing.T) {
	f := newResolverFixture()
	f.store.Plans[f.planID].IsActive = false

	defaultPlanID := uuid.New()
	f.store.Plans[defaultPlanID] = &models.CommissionPlan{
		ID:             defaultPlanID,
		Name:           "Fallback",
		CommissionType: models.CommissionTypeFlatAmount,
		FlatAmount:     decPtr("100"),
		PaidWhen:       models.PaidWhenJobCompleted,
		IsActive:       true,
	}
	f.store.RoleDefaults[models.RoleSalesRep] = defaultPlanID

	cfg, err := NewResolver(f.store).Resolve(context.Background(), f.lead, f.userID)
	require.NoError(t, err)
	assert.Equal(t, SourceRoleDefault, cfg.Source)
	assert.Equal(t, models.CommissionTypeFlatAmount, cfg.CommissionType)
}

func TestResolveNothingConfigured(t *testing.T) {
	f := newResolverFixture()
	f.store.Users[f.userID].CommissionPlanID = nil

	_, err := NewResolver(f.store).Resolve(context.Background(), f.lead, f.userID)
	assert.ErrorIs(t, err, ErrConfigurationMissing)
}

func TestResolveUnknownUser(t *testing.T) {
	f := newResolverFixture()
	_, err := NewResolver(f.store).Resolve(context.Background(), f.lead, uuid.New())
	assert.ErrorIs(t, err, ErrConfigurationMissing)
}
