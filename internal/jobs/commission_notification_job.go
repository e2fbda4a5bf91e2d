package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/roofline/backend/internal/models"
	"github.com/roofline/backend/internal/queue"
	"github.com/roofline/backend/internal/services/commission"
)

// CommissionNotificationJob tells participants and admins about ledger
// changes after they have committed. Delivery is email/push in production;
// here the transport is pluggable and defaults to logging.
type CommissionNotificationJob struct {
	db     *gorm.DB
	sender Sender
}

// Sender delivers a rendered notification. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(to, subject, body string) error
}

// LogSender writes notifications to the application log. Used in
// development and as the fallback when no mail transport is configured.
type LogSender struct{}

func (LogSender) Send(to, subject, body string) error {
	log.Printf("notify %s: %s: %s", to, subject, body)
	return nil
}

// NewCommissionNotificationJob creates the notification job handler.
func NewCommissionNotificationJob(db *gorm.DB, sender Sender) *CommissionNotificationJob {
	if sender == nil {
		sender = LogSender{}
	}
	return &CommissionNotificationJob{db: db, sender: sender}
}

// Handle processes one queued commission event.
func (j *CommissionNotificationJob) Handle(ctx context.Context, job queue.Job) (interface{}, error) {
	var event commission.Event
	if err := json.Unmarshal(job.Payload, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal commission event: %w", err)
	}

	var user models.User
	if err := j.db.WithContext(ctx).First(&user, "id = ?", event.Commission.UserID).Error; err != nil {
		return nil, fmt.Errorf("failed to load commission recipient: %w", err)
	}

	var subject, body string
	switch event.Type {
	case commission.EventEligible:
		subject = "Commission eligible for payout"
		body = fmt.Sprintf("Your commission of $%s is now eligible for approval.",
			event.Commission.CalculatedAmount.StringFixed(2))
	case commission.EventCancelled:
		subject = "Commission cancelled"
		body = fmt.Sprintf("Your pending commission of $%s was cancelled because the job was voided.",
			event.Commission.CalculatedAmount.StringFixed(2))
	case commission.EventDiscrepancy:
		subject = "Commission discrepancy flagged"
		body = fmt.Sprintf("Commission %s changed after approval and needs manual review.",
			event.Commission.ID)
	default:
		return nil, fmt.Errorf("unknown commission event type %q", event.Type)
	}

	if err := j.sender.Send(user.Email, subject, body); err != nil {
		return nil, fmt.Errorf("failed to send notification: %w", err)
	}
	return map[string]string{"delivered_to": user.Email}, nil
}
