package commission

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roofline/backend/internal/models"
)

func TestEvaluateDepositPaid(t *testing.T) {
	facts := RevenueFacts{DepositCleared: true}
	assert.True(t, Evaluate(models.PaidWhenDepositPaid, facts))

	facts.DepositCleared = false
	assert.False(t, Evaluate(models.PaidWhenDepositPaid, facts))
}

func TestEvaluateFinalPayment(t *testing.T) {
	facts := RevenueFacts{HasInvoice: true, BalanceDue: decimal.Zero}
	assert.True(t, Evaluate(models.PaidWhenFinalPayment, facts))

	// A cent outstanding is not final payment
	facts.BalanceDue = dec("0.01")
	assert.False(t, Evaluate(models.PaidWhenFinalPayment, facts))

	// No invoice means nothing has been paid off
	facts = RevenueFacts{HasInvoice: false, BalanceDue: decimal.Zero}
	assert.False(t, Evaluate(models.PaidWhenFinalPayment, facts))
}

func TestEvaluateJobCompleted(t *testing.T) {
	assert.True(t, Evaluate(models.PaidWhenJobCompleted, RevenueFacts{JobCompleted: true}))
	assert.False(t, Evaluate(models.PaidWhenJobCompleted, RevenueFacts{}))
}

func TestEvaluateCustomNeverAuto(t *testing.T) {
	facts := RevenueFacts{
		HasInvoice:     true,
		BalanceDue:     decimal.Zero,
		DepositCleared: true,
		JobCompleted:   true,
	}
	assert.False(t, Evaluate(models.PaidWhenCustom, facts))
}

func TestGatherFacts(t *testing.T) {
	store := NewMemoryStore()
	leadID := uuid.New()
	lead := &models.Lead{ID: leadID, SubStatus: models.SubStatusCompleted}
	store.Leads[leadID] = lead

	store.Invoices = append(store.Invoices,
		&models.Invoice{ID: uuid.New(), LeadID: leadID, Total: dec("1500"), BalanceDue: dec("500")},
		&models.Invoice{ID: uuid.New(), LeadID: leadID, Total: dec("500"), BalanceDue: decimal.Zero},
	)
	cleared := time.Now().UTC()
	store.Payments = append(store.Payments,
		&models.Payment{ID: uuid.New(), LeadID: leadID, Amount: dec("1000")},
		&models.Payment{ID: uuid.New(), LeadID: leadID, Amount: dec("500"), ClearedAt: &cleared},
	)

	facts, err := GatherFacts(context.Background(), store, lead)
	require.NoError(t, err)
	assert.True(t, facts.HasInvoice)
	assert.True(t, dec("2000").Equal(facts.InvoiceTotal))
	assert.True(t, dec("500").Equal(facts.BalanceDue))
	assert.True(t, facts.DepositCleared)
	assert.True(t, facts.JobCompleted)
}

func TestFirstClearedPayment(t *testing.T) {
	store := NewMemoryStore()
	leadID := uuid.New()

	earlier := time.Now().UTC().Add(-time.Hour)
	later := time.Now().UTC()
	firstID := uuid.New()
	store.Payments = append(store.Payments,
		&models.Payment{ID: uuid.New(), LeadID: leadID, ClearedAt: &later},
		&models.Payment{ID: firstID, LeadID: leadID, ClearedAt: &earlier},
		&models.Payment{ID: uuid.New(), LeadID: leadID},
	)

	got, err := FirstClearedPayment(context.Background(), store, leadID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, firstID, *got)
}

func TestFirstClearedPaymentNoneCleared(t *testing.T) {
	store := NewMemoryStore()
	leadID := uuid.New()
	store.Payments = append(store.Payments, &models.Payment{ID: uuid.New(), LeadID: leadID})

	got, err := FirstClearedPayment(context.Background(), store, leadID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
