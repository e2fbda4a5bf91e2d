package commission

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roofline/backend/internal/models"
)

func percentageConfig(rate string) *ResolvedConfig {
	return &ResolvedConfig{
		CommissionType: models.CommissionTypePercentage,
		CommissionRate: decPtr(rate),
		PaidWhen:       models.PaidWhenFinalPayment,
		Source:         SourceAssignedPlan,
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(models.CommissionStatusPending, models.CommissionStatusEligible))
	assert.True(t, CanTransition(models.CommissionStatusPending, models.CommissionStatusCancelled))
	assert.True(t, CanTransition(models.CommissionStatusEligible, models.CommissionStatusApproved))
	assert.True(t, CanTransition(models.CommissionStatusEligible, models.CommissionStatusCancelled))
	assert.True(t, CanTransition(models.CommissionStatusApproved, models.CommissionStatusPaid))

	assert.False(t, CanTransition(models.CommissionStatusPending, models.CommissionStatusApproved))
	assert.False(t, CanTransition(models.CommissionStatusApproved, models.CommissionStatusCancelled))
	assert.False(t, CanTransition(models.CommissionStatusPaid, models.CommissionStatusCancelled))
	assert.False(t, CanTransition(models.CommissionStatusCancelled, models.CommissionStatusPending))
}

func TestEnsureIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	lead := &models.Lead{ID: uuid.New(), LocationID: uuid.New()}
	store.Leads[lead.ID] = lead
	userID := uuid.New()
	ledger := NewLedger(store)
	ctx := context.Background()

	first, err := ledger.Ensure(ctx, lead, userID, percentageConfig("10"), dec("2000"))
	require.NoError(t, err)
	second, err := ledger.Ensure(ctx, lead, userID, percentageConfig("10"), dec("2000"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.Commissions, 1)
	assert.True(t, dec("200.00").Equal(second.CalculatedAmount))
	assert.Equal(t, models.CommissionStatusPending, second.Status)
}

func TestEnsureResolvesDuplicateRace(t *testing.T) {
	store := NewMemoryStore()
	lead := &models.Lead{ID: uuid.New(), LocationID: uuid.New()}
	store.Leads[lead.ID] = lead
	userID := uuid.New()
	ctx := context.Background()

	// A concurrent writer already inserted the row
	existing := &models.LeadCommission{
		ID:               uuid.New(),
		LeadID:           lead.ID,
		UserID:           userID,
		CommissionType:   models.CommissionTypePercentage,
		CommissionRate:   decPtr("5"),
		PaidWhen:         models.PaidWhenFinalPayment,
		BaseAmount:       dec("1000"),
		CalculatedAmount: dec("50.00"),
		Status:           models.CommissionStatusPending,
	}
	require.NoError(t, store.CreateLeadCommission(ctx, existing))

	row, err := NewLedger(store).Ensure(ctx, lead, userID, percentageConfig("10"), dec("2000"))
	require.NoError(t, err)
	assert.Equal(t, existing.ID, row.ID)
	assert.Len(t, store.Commissions, 1)
	// Pending rows pick up the fresh snapshot
	assert.True(t, dec("200.00").Equal(row.CalculatedAmount))
}

func TestEnsureRefreshesPendingSnapshot(t *testing.T) {
	store := NewMemoryStore()
	lead := &models.Lead{ID: uuid.New(), LocationID: uuid.New()}
	store.Leads[lead.ID] = lead
	userID := uuid.New()
	ledger := NewLedger(store)
	ctx := context.Background()

	row, err := ledger.Ensure(ctx, lead, userID, percentageConfig("10"), dec("2000"))
	require.NoError(t, err)

	row, err = ledger.Ensure(ctx, lead, userID, percentageConfig("15"), dec("3000"))
	require.NoError(t, err)
	assert.True(t, dec("15").Equal(*row.CommissionRate))
	assert.True(t, dec("450.00").Equal(row.CalculatedAmount))
}

func TestEnsureEligibleKeepsSnapshotRebasesOnly(t *testing.T) {
	store := NewMemoryStore()
	lead := &models.Lead{ID: uuid.New(), LocationID: uuid.New()}
	store.Leads[lead.ID] = lead
	userID := uuid.New()
	ledger := NewLedger(store)
	ctx := context.Background()

	row, err := ledger.Ensure(ctx, lead, userID, percentageConfig("10"), dec("2000"))
	require.NoError(t, err)
	row, err = ledger.Transition(ctx, row.ID, models.CommissionStatusEligible, nil)
	require.NoError(t, err)

	// A new config arrives with a different rate and base: the snapshotted
	// rate holds, only the base moves
	row, err = ledger.Ensure(ctx, lead, userID, percentageConfig("20"), dec("3000"))
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(*row.CommissionRate))
	assert.True(t, dec("3000").Equal(row.BaseAmount))
	assert.True(t, dec("300.00").Equal(row.CalculatedAmount))
}

func TestEnsureLockedRowFlagsDiscrepancy(t *testing.T) {
	store := NewMemoryStore()
	lead := &models.Lead{ID: uuid.New(), LocationID: uuid.New()}
	store.Leads[lead.ID] = lead
	userID := uuid.New()
	ledger := NewLedger(store)
	ctx := context.Background()

	row, err := ledger.Ensure(ctx, lead, userID, percentageConfig("10"), dec("2000"))
	require.NoError(t, err)
	_, err = ledger.Transition(ctx, row.ID, models.CommissionStatusEligible, nil)
	require.NoError(t, err)
	_, err = ledger.Transition(ctx, row.ID, models.CommissionStatusApproved, nil)
	require.NoError(t, err)

	// Re-basing an approved row records a discrepancy and leaves it alone
	_, err = ledger.Ensure(ctx, lead, userID, percentageConfig("10"), dec("3000"))
	assert.ErrorIs(t, err, ErrLockedAfterApproval)

	reloaded, err := store.GetLeadCommissionByID(ctx, row.ID)
	require.NoError(t, err)
	assert.True(t, dec("200.00").Equal(reloaded.CalculatedAmount))
	assert.True(t, dec("2000").Equal(reloaded.BaseAmount))
	require.Len(t, store.Discrepancies, 1)
	assert.True(t, dec("300.00").Equal(store.Discrepancies[0].ExpectedAmount))

	// An unchanged base is a no-op, not a conflict
	_, err = ledger.Ensure(ctx, lead, userID, percentageConfig("10"), dec("2000"))
	require.NoError(t, err)
	assert.Len(t, store.Discrepancies, 1)
}

func TestTransitionStampsTimestamps(t *testing.T) {
	store := NewMemoryStore()
	lead := &models.Lead{ID: uuid.New(), LocationID: uuid.New()}
	store.Leads[lead.ID] = lead
	ledger := NewLedger(store)
	ctx := context.Background()

	row, err := ledger.Ensure(ctx, lead, uuid.New(), percentageConfig("10"), dec("1000"))
	require.NoError(t, err)

	paymentID := uuid.New()
	row, err = ledger.Transition(ctx, row.ID, models.CommissionStatusEligible, &paymentID)
	require.NoError(t, err)
	require.NotNil(t, row.EligibleAt)
	require.NotNil(t, row.TriggeredByPaymentID)
	assert.Equal(t, paymentID, *row.TriggeredByPaymentID)

	row, err = ledger.Transition(ctx, row.ID, models.CommissionStatusApproved, nil)
	require.NoError(t, err)
	assert.NotNil(t, row.ApprovedAt)
}

func TestTransitionRejectsInvalidMoves(t *testing.T) {
	store := NewMemoryStore()
	lead := &models.Lead{ID: uuid.New(), LocationID: uuid.New()}
	store.Leads[lead.ID] = lead
	ledger := NewLedger(store)
	ctx := context.Background()

	row, err := ledger.Ensure(ctx, lead, uuid.New(), percentageConfig("10"), dec("1000"))
	require.NoError(t, err)

	_, err = ledger.Transition(ctx, row.ID, models.CommissionStatusPaid, nil)
	require.Error(t, err)
	assert.True(t, IsInvalidTransition(err))

	// The row is untouched by a rejected transition
	reloaded, err := store.GetLeadCommissionByID(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommissionStatusPending, reloaded.Status)
}

func TestRecalculatePendingRow(t *testing.T) {
	store := NewMemoryStore()
	lead := &models.Lead{ID: uuid.New(), LocationID: uuid.New()}
	store.Leads[lead.ID] = lead
	ledger := NewLedger(store)
	ctx := context.Background()

	row, err := ledger.Ensure(ctx, lead, uuid.New(), percentageConfig("10"), dec("2000"))
	require.NoError(t, err)

	row, err = ledger.Recalculate(ctx, row.ID, dec("2500"))
	require.NoError(t, err)
	assert.True(t, dec("250.00").Equal(row.CalculatedAmount))
}

func TestRecalculateLockedAfterApproval(t *testing.T) {
	store := NewMemoryStore()
	lead := &models.Lead{ID: uuid.New(), LocationID: uuid.New()}
	store.Leads[lead.ID] = lead
	ledger := NewLedger(store)
	ctx := context.Background()

	row, err := ledger.Ensure(ctx, lead, uuid.New(), percentageConfig("10"), dec("2000"))
	require.NoError(t, err)
	_, err = ledger.Transition(ctx, row.ID, models.CommissionStatusEligible, nil)
	require.NoError(t, err)
	_, err = ledger.Transition(ctx, row.ID, models.CommissionStatusApproved, nil)
	require.NoError(t, err)

	_, err = ledger.Recalculate(ctx, row.ID, dec("3000"))
	assert.ErrorIs(t, err, ErrLockedAfterApproval)

	// Amount unchanged, discrepancy recorded instead
	reloaded, err := store.GetLeadCommissionByID(ctx, row.ID)
	require.NoError(t, err)
	assert.True(t, dec("200.00").Equal(reloaded.CalculatedAmount))
	assert.True(t, dec("2000").Equal(reloaded.BaseAmount))

	require.Len(t, store.Discrepancies, 1)
	d := store.Discrepancies[0]
	assert.Equal(t, row.ID, d.LeadCommissionID)
	assert.True(t, dec("200.00").Equal(d.RecordedAmount))
	assert.True(t, dec("300.00").Equal(d.ExpectedAmount))
	assert.True(t, dec("3000").Equal(d.NewBaseAmount))
}

func TestRecalculateLockedNoDiscrepancyWhenAmountUnchanged(t *testing.T) {
	store := NewMemoryStore()
	lead := &models.Lead{ID: uuid.New(), LocationID: uuid.New()}
	store.Leads[lead.ID] = lead
	ledger := NewLedger(store)
	ctx := context.Background()

	flat := &ResolvedConfig{
		CommissionType: models.CommissionTypeFlatAmount,
		FlatAmount:     decPtr("500"),
		PaidWhen:       models.PaidWhenFinalPayment,
	}
	row, err := ledger.Ensure(ctx, lead, uuid.New(), flat, dec("2000"))
	require.NoError(t, err)
	_, err = ledger.Transition(ctx, row.ID, models.CommissionStatusEligible, nil)
	require.NoError(t, err)
	_, err = ledger.Transition(ctx, row.ID, models.CommissionStatusApproved, nil)
	require.NoError(t, err)

	// Flat amount does not depend on the base, so no discrepancy exists
	_, err = ledger.Recalculate(ctx, row.ID, dec("9000"))
	assert.ErrorIs(t, err, ErrLockedAfterApproval)
	assert.Empty(t, store.Discrepancies)
}

func TestRecordPayout(t *testing.T) {
	store := NewMemoryStore()
	lead := &models.Lead{ID: uuid.New(), LocationID: uuid.New()}
	store.Leads[lead.ID] = lead
	ledger := NewLedger(store)
	ctx := context.Background()

	row, err := ledger.Ensure(ctx, lead, uuid.New(), percentageConfig("10"), dec("2000"))
	require.NoError(t, err)

	// Payouts only apply to approved rows
	_, err = ledger.RecordPayout(ctx, row.ID, dec("50"))
	assert.True(t, IsInvalidTransition(err))

	_, err = ledger.Transition(ctx, row.ID, models.CommissionStatusEligible, nil)
	require.NoError(t, err)
	_, err = ledger.Transition(ctx, row.ID, models.CommissionStatusApproved, nil)
	require.NoError(t, err)

	row, err = ledger.RecordPayout(ctx, row.ID, dec("150"))
	require.NoError(t, err)
	assert.Equal(t, models.CommissionStatusApproved, row.Status)
	assert.True(t, dec("50.00").Equal(row.BalanceOwed()))

	row, err = ledger.RecordPayout(ctx, row.ID, dec("50"))
	require.NoError(t, err)
	assert.Equal(t, models.CommissionStatusPaid, row.Status)
	assert.NotNil(t, row.PaidAt)
}

func TestCancelForLeadSkipsLockedRows(t *testing.T) {
	store := NewMemoryStore()
	lead := &models.Lead{ID: uuid.New(), LocationID: uuid.New()}
	store.Leads[lead.ID] = lead
	ledger := NewLedger(store)
	ctx := context.Background()

	pending, err := ledger.Ensure(ctx, lead, uuid.New(), percentageConfig("10"), dec("2000"))
	require.NoError(t, err)
	eligible, err := ledger.Ensure(ctx, lead, uuid.New(), percentageConfig("5"), dec("2000"))
	require.NoError(t, err)
	_, err = ledger.Transition(ctx, eligible.ID, models.CommissionStatusEligible, nil)
	require.NoError(t, err)
	approved, err := ledger.Ensure(ctx, lead, uuid.New(), percentageConfig("2"), dec("2000"))
	require.NoError(t, err)
	_, err = ledger.Transition(ctx, approved.ID, models.CommissionStatusEligible, nil)
	require.NoError(t, err)
	_, err = ledger.Transition(ctx, approved.ID, models.CommissionStatusApproved, nil)
	require.NoError(t, err)

	cancelled, err := ledger.CancelForLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Len(t, cancelled, 2)

	check := func(id uuid.UUID, want models.CommissionStatus) {
		row, err := store.GetLeadCommissionByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, row.Status)
	}
	check(pending.ID, models.CommissionStatusCancelled)
	check(eligible.ID, models.CommissionStatusCancelled)
	check(approved.ID, models.CommissionStatusApproved)
}

func TestBalanceOwed(t *testing.T) {
	row := &models.LeadCommission{
		CalculatedAmount: dec("200"),
		PaidAmount:       dec("75.50"),
	}
	assert.True(t, dec("124.50").Equal(row.BalanceOwed()))
}
