package commission

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roofline/backend/internal/models"
)

// teamLeadFixture is a location with a team lead on a 5% plan and three
// closed deals in January 2025: two by another rep ($12,000 and $8,000) and
// one by the team lead personally ($5,000).
type teamLeadFixture struct {
	store      *MemoryStore
	locationID uuid.UUID
	leadUserID uuid.UUID
	otherRepID uuid.UUID
	period     Period
}

func newTeamLeadFixture() *teamLeadFixture {
	f := &teamLeadFixture{
		store:      NewMemoryStore(),
		locationID: uuid.New(),
		leadUserID: uuid.New(),
		otherRepID: uuid.New(),
		period:     Period{Year: 2025, Month: time.January},
	}

	planID := uuid.New()
	f.store.Plans[planID] = &models.CommissionPlan{
		ID:             planID,
		Name:           "Team Lead Override",
		CommissionType: models.CommissionTypePercentage,
		CommissionRate: decPtr("5"),
		PaidWhen:       models.PaidWhenJobCompleted,
		IsActive:       true,
	}
	f.store.Users[f.leadUserID] = &models.User{
		ID:               f.leadUserID,
		Role:             models.RoleTeamLead,
		CommissionPlanID: &planID,
	}
	f.store.Settings = append(f.store.Settings, &models.LocationCommissionSetting{
		ID:                  uuid.New(),
		LocationID:          f.locationID,
		UserID:              f.leadUserID,
		CommissionEnabled:   true,
		TeamLeadForLocation: true,
	})

	closedAt := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	f.addDeal(f.otherRepID, "12000", closedAt)
	f.addDeal(f.otherRepID, "8000", closedAt)
	f.addDeal(f.leadUserID, "5000", closedAt)
	return f
}

func (f *teamLeadFixture) addDeal(salesRepID uuid.UUID, base string, closedAt time.Time) {
	leadID := uuid.New()
	repID := salesRepID
	f.store.Leads[leadID] = &models.Lead{
		ID:         leadID,
		LocationID: f.locationID,
		Status:     models.LeadStatusCompleted,
		SalesRepID: &repID,
	}
	f.store.Deals = append(f.store.Deals, ClosedDeal{
		LeadID:     leadID,
		SalesRepID: &repID,
		BaseAmount: dec(base),
		ClosedAt:   closedAt,
	})
}

func (f *teamLeadFixture) setting() *models.LocationCommissionSetting {
	return f.store.Settings[0]
}

func TestAggregateBaseExcludesOwnSales(t *testing.T) {
	f := newTeamLeadFixture()
	aggregator := NewTeamLeadAggregator(f.store)

	base, count, err := aggregator.AggregateBase(context.Background(), f.locationID, f.leadUserID, f.period, false)
	require.NoError(t, err)
	assert.True(t, dec("20000").Equal(base), "got %s", base)
	assert.Equal(t, 2, count)
}

func TestAggregateBaseIncludesOwnSales(t *testing.T) {
	f := newTeamLeadFixture()
	aggregator := NewTeamLeadAggregator(f.store)

	base, count, err := aggregator.AggregateBase(context.Background(), f.locationID, f.leadUserID, f.period, true)
	require.NoError(t, err)
	assert.True(t, dec("25000").Equal(base))
	assert.Equal(t, 3, count)
}

func TestAggregateBaseRespectsPeriodBounds(t *testing.T) {
	f := newTeamLeadFixture()
	// A February deal must not count toward January
	f.addDeal(f.otherRepID, "9999", time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC))
	aggregator := NewTeamLeadAggregator(f.store)

	base, count, err := aggregator.AggregateBase(context.Background(), f.locationID, f.leadUserID, f.period, false)
	require.NoError(t, err)
	assert.True(t, dec("20000").Equal(base))
	assert.Equal(t, 2, count)
}

func TestComputeUpsertsAggregateRow(t *testing.T) {
	f := newTeamLeadFixture()
	aggregator := NewTeamLeadAggregator(f.store)
	ctx := context.Background()

	row, err := aggregator.Compute(ctx, f.locationID, f.leadUserID, f.period)
	require.NoError(t, err)
	assert.Equal(t, "2025-01", row.Period)
	assert.Equal(t, 2, row.DealCount)
	assert.True(t, dec("20000").Equal(row.BaseAmount))
	assert.True(t, dec("1000.00").Equal(row.CalculatedAmount))
	assert.Equal(t, models.CommissionStatusPending, row.Status)

	// Recomputing the same period updates the row in place
	f.addDeal(f.otherRepID, "4000", time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC))
	again, err := aggregator.Compute(ctx, f.locationID, f.leadUserID, f.period)
	require.NoError(t, err)
	assert.Equal(t, row.ID, again.ID)
	assert.Equal(t, 3, again.DealCount)
	assert.True(t, dec("24000").Equal(again.BaseAmount))
	assert.True(t, dec("1200.00").Equal(again.CalculatedAmount))
	assert.Len(t, f.store.TeamCommissions, 1)
}

func TestComputeIncludeOwnSalesSetting(t *testing.T) {
	f := newTeamLeadFixture()
	f.setting().IncludeOwnSales = true
	aggregator := NewTeamLeadAggregator(f.store)

	row, err := aggregator.Compute(context.Background(), f.locationID, f.leadUserID, f.period)
	require.NoError(t, err)
	assert.True(t, dec("25000").Equal(row.BaseAmount))
	assert.True(t, dec("1250.00").Equal(row.CalculatedAmount))
}

func TestComputeRequiresTeamLeadFlag(t *testing.T) {
	f := newTeamLeadFixture()
	f.setting().TeamLeadForLocation = false
	aggregator := NewTeamLeadAggregator(f.store)

	_, err := aggregator.Compute(context.Background(), f.locationID, f.leadUserID, f.period)
	assert.ErrorIs(t, err, ErrConfigurationMissing)
}

func TestComputeRequiresCommissionEnabled(t *testing.T) {
	f := newTeamLeadFixture()
	f.setting().CommissionEnabled = false
	aggregator := NewTeamLeadAggregator(f.store)

	_, err := aggregator.Compute(context.Background(), f.locationID, f.leadUserID, f.period)
	assert.ErrorIs(t, err, ErrConfigurationMissing)
}

func TestComputeLockedRowKeepsAmounts(t *testing.T) {
	f := newTeamLeadFixture()
	aggregator := NewTeamLeadAggregator(f.store)
	ctx := context.Background()

	row, err := aggregator.Compute(ctx, f.locationID, f.leadUserID, f.period)
	require.NoError(t, err)

	stored := f.store.TeamCommissions[row.ID]
	stored.Status = models.CommissionStatusApproved

	f.addDeal(f.otherRepID, "4000", time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC))
	again, err := aggregator.Compute(ctx, f.locationID, f.leadUserID, f.period)
	require.NoError(t, err)
	assert.True(t, dec("20000").Equal(again.BaseAmount))
	assert.True(t, dec("1000.00").Equal(again.CalculatedAmount))
}

func TestTeamLeadTransitionFollowsStateMachine(t *testing.T) {
	f := newTeamLeadFixture()
	aggregator := NewTeamLeadAggregator(f.store)
	ctx := context.Background()

	row, err := aggregator.Compute(ctx, f.locationID, f.leadUserID, f.period)
	require.NoError(t, err)

	// Pending cannot jump straight to approved
	_, err = aggregator.Transition(ctx, row.ID, models.CommissionStatusApproved)
	assert.True(t, IsInvalidTransition(err))

	row, err = aggregator.Transition(ctx, row.ID, models.CommissionStatusEligible)
	require.NoError(t, err)
	assert.Equal(t, models.CommissionStatusEligible, row.Status)

	row, err = aggregator.Transition(ctx, row.ID, models.CommissionStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, models.CommissionStatusApproved, row.Status)

	_, err = aggregator.Transition(ctx, row.ID, models.CommissionStatusCancelled)
	assert.True(t, IsInvalidTransition(err))
}

func TestTeamLeadRecordPayout(t *testing.T) {
	f := newTeamLeadFixture()
	aggregator := NewTeamLeadAggregator(f.store)
	ctx := context.Background()

	row, err := aggregator.Compute(ctx, f.locationID, f.leadUserID, f.period)
	require.NoError(t, err)

	// Payouts only apply to approved rows
	_, err = aggregator.RecordPayout(ctx, row.ID, dec("100"))
	assert.True(t, IsInvalidTransition(err))

	_, err = aggregator.Transition(ctx, row.ID, models.CommissionStatusEligible)
	require.NoError(t, err)
	_, err = aggregator.Transition(ctx, row.ID, models.CommissionStatusApproved)
	require.NoError(t, err)

	row, err = aggregator.RecordPayout(ctx, row.ID, dec("600"))
	require.NoError(t, err)
	assert.Equal(t, models.CommissionStatusApproved, row.Status)
	assert.True(t, dec("600").Equal(row.PaidAmount))

	row, err = aggregator.RecordPayout(ctx, row.ID, dec("400"))
	require.NoError(t, err)
	assert.Equal(t, models.CommissionStatusPaid, row.Status)
}

func TestFinalizeMarksPendingRowsEligible(t *testing.T) {
	f := newTeamLeadFixture()
	aggregator := NewTeamLeadAggregator(f.store)
	ctx := context.Background()

	row, err := aggregator.Compute(ctx, f.locationID, f.leadUserID, f.period)
	require.NoError(t, err)

	finalized, err := aggregator.Finalize(ctx, f.locationID, f.period)
	require.NoError(t, err)
	require.Len(t, finalized, 1)
	assert.Equal(t, row.ID, finalized[0].ID)
	assert.Equal(t, models.CommissionStatusEligible, finalized[0].Status)

	// Rows already past pending are left alone on a rerun
	again, err := aggregator.Finalize(ctx, f.locationID, f.period)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestComputeForLocation(t *testing.T) {
	f := newTeamLeadFixture()

	// A second configured team lead at the same location
	secondLead := uuid.New()
	planID := uuid.New()
	f.store.Plans[planID] = &models.CommissionPlan{
		ID:             planID,
		Name:           "Flat Override",
		CommissionType: models.CommissionTypeFlatAmount,
		FlatAmount:     decPtr("400"),
		PaidWhen:       models.PaidWhenJobCompleted,
		IsActive:       true,
	}
	f.store.Users[secondLead] = &models.User{
		ID:               secondLead,
		Role:             models.RoleTeamLead,
		CommissionPlanID: &planID,
	}
	f.store.Settings = append(f.store.Settings, &models.LocationCommissionSetting{
		ID:                  uuid.New(),
		LocationID:          f.locationID,
		UserID:              secondLead,
		CommissionEnabled:   true,
		TeamLeadForLocation: true,
	})

	rows, err := NewTeamLeadAggregator(f.store).ComputeForLocation(context.Background(), f.locationID, f.period)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
