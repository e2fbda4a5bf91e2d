package commission

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roofline/backend/internal/models"
)

// Evaluate decides whether a trigger condition is currently satisfied by the
// lead's revenue facts. Pure function, no side effects.
//
//   - when_deposit_paid: at least one non-deleted payment has cleared.
//   - when_final_payment: the invoice balance due is exactly zero. A lead
//     with no invoice has nothing to pay off, so this stays false.
//   - when_job_completed: the production sub-status is "completed".
//   - custom: never auto-evaluates true; requires an explicit
//     administrative transition.
func Evaluate(trigger models.PaidWhen, facts RevenueFacts) bool {
	switch trigger {
	case models.PaidWhenDepositPaid:
		return facts.DepositCleared
	case models.PaidWhenFinalPayment:
		return facts.HasInvoice && facts.BalanceDue.IsZero()
	case models.PaidWhenJobCompleted:
		return facts.JobCompleted
	case models.PaidWhenCustom:
		return false
	}
	return false
}

// GatherFacts assembles the revenue facts for a lead from the store. It must
// run inside the same transaction as the ledger mutations that depend on it.
func GatherFacts(ctx context.Context, store Store, lead *models.Lead) (RevenueFacts, error) {
	facts := RevenueFacts{
		JobCompleted: lead.SubStatus == models.SubStatusCompleted,
	}

	invoices, err := store.ListInvoices(ctx, lead.ID)
	if err != nil {
		return facts, fmt.Errorf("loading invoices for lead %s: %w", lead.ID, err)
	}
	for _, inv := range invoices {
		facts.HasInvoice = true
		facts.InvoiceTotal = facts.InvoiceTotal.Add(inv.Total)
		facts.BalanceDue = facts.BalanceDue.Add(inv.BalanceDue)
	}

	payments, err := store.ListPayments(ctx, lead.ID)
	if err != nil {
		return facts, fmt.Errorf("loading payments for lead %s: %w", lead.ID, err)
	}
	for _, p := range payments {
		if p.Cleared() {
			facts.DepositCleared = true
			break
		}
	}
	return facts, nil
}

// FirstClearedPayment returns the id of the earliest cleared payment on the
// lead, used to stamp triggered_by_payment_id when deposit clearance makes a
// row eligible.
func FirstClearedPayment(ctx context.Context, store Store, leadID uuid.UUID) (*uuid.UUID, error) {
	payments, err := store.ListPayments(ctx, leadID)
	if err != nil {
		return nil, err
	}
	var first *models.Payment
	for i := range payments {
		p := &payments[i]
		if !p.Cleared() {
			continue
		}
		if first == nil || p.ClearedAt.Before(*first.ClearedAt) {
			first = p
		}
	}
	if first == nil {
		return nil, nil
	}
	id := first.ID
	return &id, nil
}
