package commission

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/roofline/backend/internal/models"
)

// EventType identifies what a post-commit notification is about
type EventType string

const (
	EventEligible    EventType = "commission_eligible"
	EventCancelled   EventType = "commission_cancelled"
	EventDiscrepancy EventType = "commission_discrepancy"
)

// Event is a post-commit notification about a ledger change.
type Event struct {
	Type       EventType             `json:"type"`
	Commission models.LeadCommission `json:"commission"`
}

// Notifier receives events after the ledger transaction has committed.
// Implementations must not block commission processing; failures are logged
// and dropped, never propagated back into financial state.
type Notifier interface {
	Dispatch(event Event)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) Dispatch(Event) {}

// Engine reacts to revenue events. Every invocation runs as one atomic
// transaction over the lead's ledger rows: read, evaluate, write, commit.
// Two payments clearing near-simultaneously therefore cannot both observe
// stale pending state; the storage unique constraint is the final guard for
// concurrent row creation.
type Engine struct {
	store    TxStore
	notifier Notifier
}

// NewEngine creates the commission engine. Pass NopNotifier when no
// notification dispatch is wanted.
func NewEngine(store TxStore, notifier Notifier) *Engine {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Engine{store: store, notifier: notifier}
}

// OnPaymentCleared processes a payment-cleared revenue event. Rows whose
// trigger newly evaluates true transition to eligible with the clearing
// payment recorded as the trigger.
func (e *Engine) OnPaymentCleared(ctx context.Context, leadID, paymentID uuid.UUID) error {
	return e.process(ctx, leadID, &paymentID)
}

// OnInvoiceChanged processes an invoice-total-change revenue event:
// re-bases pending and eligible rows and re-evaluates eligibility.
func (e *Engine) OnInvoiceChanged(ctx context.Context, leadID uuid.UUID) error {
	return e.process(ctx, leadID, nil)
}

// OnLeadStatusChanged processes a lead-status-change revenue event, which
// can satisfy when_job_completed triggers.
func (e *Engine) OnLeadStatusChanged(ctx context.Context, leadID uuid.UUID) error {
	return e.process(ctx, leadID, nil)
}

// process is the single code path for all revenue events.
func (e *Engine) process(ctx context.Context, leadID uuid.UUID, triggeredBy *uuid.UUID) error {
	var events []Event
	err := e.store.Transaction(ctx, func(s Store) error {
		var err error
		events, err = e.processTx(ctx, s, leadID, triggeredBy)
		return err
	})
	if err != nil {
		return err
	}
	// Side effects only after the ledger transaction has committed, so a
	// notification failure can never roll back financial state.
	for _, ev := range events {
		e.notifier.Dispatch(ev)
	}
	return nil
}

func (e *Engine) processTx(ctx context.Context, s Store, leadID uuid.UUID, triggeredBy *uuid.UUID) ([]Event, error) {
	lead, err := s.GetLead(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("loading lead %s: %w", leadID, err)
	}

	facts, err := GatherFacts(ctx, s, lead)
	if err != nil {
		return nil, err
	}

	resolver := NewResolver(s)
	ledger := NewLedger(s)
	var events []Event

	// Ledger rows exist only once a revenue-bearing invoice does.
	if facts.HasInvoice {
		for _, userID := range lead.ParticipantIDs() {
			cfg, err := resolver.Resolve(ctx, lead, userID)
			if err != nil {
				if errors.Is(err, ErrConfigurationMissing) {
					continue
				}
				return nil, err
			}
			row, err := ledger.Ensure(ctx, lead, userID, cfg, facts.InvoiceTotal)
			if err != nil {
				if errors.Is(err, ErrLockedAfterApproval) {
					// Locked row diverged from the new base; the discrepancy
					// is already recorded, surface it after commit.
					events = append(events, Event{Type: EventDiscrepancy, Commission: *row})
					continue
				}
				return nil, err
			}
		}
	}

	rows, err := s.ListLeadCommissions(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("listing commissions for lead %s: %w", leadID, err)
	}
	for i := range rows {
		row := &rows[i]
		if row.Status != models.CommissionStatusPending {
			continue
		}
		if !Evaluate(row.PaidWhen, facts) {
			continue
		}
		trigger := triggeredBy
		if trigger == nil && row.PaidWhen == models.PaidWhenDepositPaid {
			trigger, err = FirstClearedPayment(ctx, s, leadID)
			if err != nil {
				return nil, err
			}
		}
		updated, err := ledger.transitionRow(ctx, row, models.CommissionStatusEligible, trigger)
		if err != nil {
			return nil, err
		}
		events = append(events, Event{Type: EventEligible, Commission: *updated})
	}
	return events, nil
}

// CancelLead transitions every non-terminal row on the lead to cancelled.
// It takes a Store rather than opening its own transaction so the caller
// can run it atomically with the lead or invoice soft delete.
func (e *Engine) CancelLead(ctx context.Context, s Store, leadID uuid.UUID) ([]Event, error) {
	cancelled, err := NewLedger(s).CancelForLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(cancelled))
	for _, row := range cancelled {
		events = append(events, Event{Type: EventCancelled, Commission: row})
	}
	return events, nil
}

// DispatchAll sends events through the notifier. Exposed for callers that
// run CancelLead inside their own transaction and notify after commit.
func (e *Engine) DispatchAll(events []Event) {
	for _, ev := range events {
		e.notifier.Dispatch(ev)
	}
}

// Recalculate re-derives one row's amount against the lead's current
// invoice total, for the manual recalculation endpoint.
func (e *Engine) Recalculate(ctx context.Context, commissionID uuid.UUID) (*models.LeadCommission, error) {
	var row *models.LeadCommission
	var disc *models.CommissionDiscrepancy
	var locked bool
	err := e.store.Transaction(ctx, func(s Store) error {
		ledger := NewLedger(s)
		existing, err := s.GetLeadCommissionByID(ctx, commissionID)
		if err != nil {
			return fmt.Errorf("loading commission row %s: %w", commissionID, err)
		}
		lead, err := s.GetLead(ctx, existing.LeadID)
		if err != nil {
			return fmt.Errorf("loading lead %s: %w", existing.LeadID, err)
		}
		facts, err := GatherFacts(ctx, s, lead)
		if err != nil {
			return err
		}
		row, disc, err = ledger.recalculateRow(ctx, existing, facts.InvoiceTotal)
		if errors.Is(err, ErrLockedAfterApproval) {
			// The discrepancy record written by recalculateRow must commit,
			// so the sentinel is surfaced outside the transaction.
			locked = true
			return nil
		}
		return err
	})
	if err != nil {
		return row, err
	}
	if locked {
		log.Printf("recalculation blocked on locked commission %s", commissionID)
		if disc != nil {
			e.notifier.Dispatch(Event{Type: EventDiscrepancy, Commission: *row})
		}
		return row, ErrLockedAfterApproval
	}
	return row, nil
}
