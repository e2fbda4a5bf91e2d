package commission

import (
	"errors"
	"fmt"

	"github.com/roofline/backend/internal/models"
)

// Sentinel errors form the engine's error taxonomy. Callers branch with
// errors.Is; none of these cross the engine boundary as panics.
var (
	// ErrConfigurationMissing means the participant has no resolvable
	// commission configuration. This is a normal outcome for roles without
	// a plan, not a failure.
	ErrConfigurationMissing = errors.New("no commission configuration for participant")

	// ErrLockedAfterApproval means a recalculation touched an approved or
	// paid row. The amount is never silently changed after approval.
	ErrLockedAfterApproval = errors.New("commission locked after approval")

	// ErrDuplicateLedgerRow is returned by the storage layer when an insert
	// hits the (lead_id, user_id) unique constraint. The ensure path catches
	// it and resolves to the existing row.
	ErrDuplicateLedgerRow = errors.New("duplicate commission ledger row")

	// ErrNotFound is the store's generic missing-record error.
	ErrNotFound = errors.New("record not found")
)

// InvalidTransitionError reports a state change the ledger state machine
// forbids. The original state is preserved.
type InvalidTransitionError struct {
	From models.CommissionStatus
	To   models.CommissionStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid commission transition %s -> %s", e.From, e.To)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}
