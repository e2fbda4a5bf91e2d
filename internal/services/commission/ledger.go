package commission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roofline/backend/internal/models"
)

// transitions is the ledger state machine. approved and paid cannot be
// cancelled; paid is fully terminal.
var transitions = map[models.CommissionStatus][]models.CommissionStatus{
	models.CommissionStatusPending:   {models.CommissionStatusEligible, models.CommissionStatusCancelled},
	models.CommissionStatusEligible:  {models.CommissionStatusApproved, models.CommissionStatusCancelled},
	models.CommissionStatusApproved:  {models.CommissionStatusPaid},
	models.CommissionStatusPaid:      {},
	models.CommissionStatusCancelled: {},
}

// CanTransition reports whether the state machine permits from -> to.
func CanTransition(from, to models.CommissionStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Ledger owns all mutation of LeadCommission rows. Every write path keeps
// the one-active-row-per-(lead, user) invariant: Ensure is an upsert and the
// storage unique constraint backs it up against concurrent inserts.
type Ledger struct {
	store Store
}

// NewLedger creates a ledger backed by the given store.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Ensure upserts the ledger row for (lead, user). Calling it twice with the
// same inputs yields exactly one row:
//
//   - no active row: a new pending row is inserted with the resolved
//     snapshot; a concurrent insert losing the unique-constraint race
//     resolves to the winner's row instead of failing.
//   - active pending row: snapshot fields are refreshed from cfg and the
//     amount recomputed against base.
//   - active row past pending: the snapshot is authoritative; only the base
//     is updated, via Recalculate rules. A locked row whose expected amount
//     diverges from the new base gets a discrepancy record and
//     ErrLockedAfterApproval; a locked row whose amount is unaffected is
//     returned unchanged with no error.
func (l *Ledger) Ensure(ctx context.Context, lead *models.Lead, userID uuid.UUID, cfg *ResolvedConfig, base decimal.Decimal) (*models.LeadCommission, error) {
	existing, err := l.store.GetLeadCommission(ctx, lead.ID, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("loading commission for lead %s user %s: %w", lead.ID, userID, err)
	}
	if existing != nil {
		return l.refresh(ctx, existing, cfg, base)
	}

	row := &models.LeadCommission{
		ID:               uuid.New(),
		LeadID:           lead.ID,
		UserID:           userID,
		CommissionType:   cfg.CommissionType,
		CommissionRate:   cfg.CommissionRate,
		FlatAmount:       cfg.FlatAmount,
		PaidWhen:         cfg.PaidWhen,
		BaseAmount:       base,
		CalculatedAmount: ComputeAmount(cfg.CommissionType, cfg.CommissionRate, cfg.FlatAmount, base),
		PaidAmount:       decimal.Zero,
		Status:           models.CommissionStatusPending,
	}
	if err := l.store.CreateLeadCommission(ctx, row); err != nil {
		if errors.Is(err, ErrDuplicateLedgerRow) {
			// Lost the race to a concurrent Ensure; the winner's row is the row.
			winner, gerr := l.store.GetLeadCommission(ctx, lead.ID, userID)
			if gerr != nil {
				return nil, fmt.Errorf("resolving duplicate commission row: %w", gerr)
			}
			return l.refresh(ctx, winner, cfg, base)
		}
		return nil, fmt.Errorf("creating commission row: %w", err)
	}
	return row, nil
}

// refresh applies Ensure semantics to an existing row.
func (l *Ledger) refresh(ctx context.Context, row *models.LeadCommission, cfg *ResolvedConfig, base decimal.Decimal) (*models.LeadCommission, error) {
	switch row.Status {
	case models.CommissionStatusPending:
		row.CommissionType = cfg.CommissionType
		row.CommissionRate = cfg.CommissionRate
		row.FlatAmount = cfg.FlatAmount
		row.PaidWhen = cfg.PaidWhen
		row.BaseAmount = base
		row.CalculatedAmount = ComputeAmount(row.CommissionType, row.CommissionRate, row.FlatAmount, base)
		if err := l.store.SaveLeadCommission(ctx, row); err != nil {
			return nil, fmt.Errorf("refreshing commission row %s: %w", row.ID, err)
		}
		return row, nil
	case models.CommissionStatusEligible:
		if !row.BaseAmount.Equal(base) {
			updated, _, err := l.recalculateRow(ctx, row, base)
			return updated, err
		}
		return row, nil
	default:
		if row.BaseAmount.Equal(base) {
			return row, nil
		}
		updated, disc, err := l.recalculateRow(ctx, row, base)
		if errors.Is(err, ErrLockedAfterApproval) && disc == nil {
			return updated, nil
		}
		return updated, err
	}
}

// Recalculate recomputes the amount from the row's snapshot against a new
// base. Allowed only while pending or eligible; approved and paid rows
// return ErrLockedAfterApproval and a discrepancy record is written instead
// of mutating the row.
func (l *Ledger) Recalculate(ctx context.Context, id uuid.UUID, newBase decimal.Decimal) (*models.LeadCommission, error) {
	row, err := l.store.GetLeadCommissionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading commission row %s: %w", id, err)
	}
	updated, _, err := l.recalculateRow(ctx, row, newBase)
	return updated, err
}

// recalculateRow additionally returns the discrepancy record, when one was
// written, so callers can tell a flagged locked row from one whose amount
// was unaffected by the new base.
func (l *Ledger) recalculateRow(ctx context.Context, row *models.LeadCommission, newBase decimal.Decimal) (*models.LeadCommission, *models.CommissionDiscrepancy, error) {
	switch row.Status {
	case models.CommissionStatusPending, models.CommissionStatusEligible:
	case models.CommissionStatusApproved, models.CommissionStatusPaid:
		expected := ComputeAmount(row.CommissionType, row.CommissionRate, row.FlatAmount, newBase)
		if !expected.Equal(row.CalculatedAmount) {
			d := &models.CommissionDiscrepancy{
				ID:               uuid.New(),
				LeadCommissionID: row.ID,
				RecordedAmount:   row.CalculatedAmount,
				ExpectedAmount:   expected,
				NewBaseAmount:    newBase,
				Reason:           fmt.Sprintf("base amount changed after %s", row.Status),
			}
			if err := l.store.CreateDiscrepancy(ctx, d); err != nil {
				return nil, nil, fmt.Errorf("recording discrepancy for row %s: %w", row.ID, err)
			}
			return row, d, ErrLockedAfterApproval
		}
		return row, nil, ErrLockedAfterApproval
	default:
		return row, nil, ErrLockedAfterApproval
	}

	row.BaseAmount = newBase
	row.CalculatedAmount = ComputeAmount(row.CommissionType, row.CommissionRate, row.FlatAmount, newBase)
	if err := l.store.SaveLeadCommission(ctx, row); err != nil {
		return nil, nil, fmt.Errorf("saving recalculated row %s: %w", row.ID, err)
	}
	return row, nil, nil
}

// Transition moves a row to a new status, enforcing the state machine.
// triggeredBy, when non-nil, records the payment that caused an eligibility
// transition.
func (l *Ledger) Transition(ctx context.Context, id uuid.UUID, to models.CommissionStatus, triggeredBy *uuid.UUID) (*models.LeadCommission, error) {
	row, err := l.store.GetLeadCommissionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading commission row %s: %w", id, err)
	}
	return l.transitionRow(ctx, row, to, triggeredBy)
}

func (l *Ledger) transitionRow(ctx context.Context, row *models.LeadCommission, to models.CommissionStatus, triggeredBy *uuid.UUID) (*models.LeadCommission, error) {
	if !CanTransition(row.Status, to) {
		return row, &InvalidTransitionError{From: row.Status, To: to}
	}

	now := time.Now().UTC()
	row.Status = to
	switch to {
	case models.CommissionStatusEligible:
		row.EligibleAt = &now
		if triggeredBy != nil {
			row.TriggeredByPaymentID = triggeredBy
		}
	case models.CommissionStatusApproved:
		row.ApprovedAt = &now
	case models.CommissionStatusPaid:
		row.PaidAt = &now
	}
	if err := l.store.SaveLeadCommission(ctx, row); err != nil {
		return nil, fmt.Errorf("saving transition on row %s: %w", row.ID, err)
	}
	return row, nil
}

// RecordPayout adds a payout amount to an approved row and marks it paid
// once the calculated amount is covered.
func (l *Ledger) RecordPayout(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*models.LeadCommission, error) {
	row, err := l.store.GetLeadCommissionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading commission row %s: %w", id, err)
	}
	if row.Status != models.CommissionStatusApproved {
		return row, &InvalidTransitionError{From: row.Status, To: models.CommissionStatusPaid}
	}
	row.PaidAmount = row.PaidAmount.Add(amount)
	if err := l.store.SaveLeadCommission(ctx, row); err != nil {
		return nil, fmt.Errorf("saving payout on row %s: %w", row.ID, err)
	}
	if row.PaidAmount.GreaterThanOrEqual(row.CalculatedAmount) {
		return l.transitionRow(ctx, row, models.CommissionStatusPaid, nil)
	}
	return row, nil
}

// CancelForLead cancels every non-terminal row on a lead. Called in the same
// transaction that soft-deletes the lead or its invoice. Approved and paid
// rows are left untouched: real money may already have moved, so those need
// manual administrative reversal.
func (l *Ledger) CancelForLead(ctx context.Context, leadID uuid.UUID) ([]models.LeadCommission, error) {
	rows, err := l.store.ListLeadCommissions(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("listing commissions for lead %s: %w", leadID, err)
	}
	var cancelled []models.LeadCommission
	for i := range rows {
		row := &rows[i]
		if !CanTransition(row.Status, models.CommissionStatusCancelled) {
			continue
		}
		updated, err := l.transitionRow(ctx, row, models.CommissionStatusCancelled, nil)
		if err != nil {
			return nil, err
		}
		cancelled = append(cancelled, *updated)
	}
	return cancelled, nil
}
