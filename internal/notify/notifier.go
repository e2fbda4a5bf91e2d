package notify

import (
	"log"

	"github.com/roofline/backend/internal/queue"
	"github.com/roofline/backend/internal/services/commission"
)

// QueueNotifier forwards commission events onto the job queue. Dispatch is
// fire-and-forget: it runs only after the ledger transaction has committed,
// and an enqueue failure is logged and dropped rather than propagated back
// into financial state.
type QueueNotifier struct {
	queue queue.QueueInterface
}

// NewQueueNotifier creates a notifier over the given queue.
func NewQueueNotifier(q queue.QueueInterface) *QueueNotifier {
	return &QueueNotifier{queue: q}
}

var _ commission.Notifier = (*QueueNotifier)(nil)

// Dispatch enqueues the notification job for a commission event.
func (n *QueueNotifier) Dispatch(event commission.Event) {
	jobType := queue.JobTypeCommissionNotification
	if event.Type == commission.EventDiscrepancy {
		jobType = queue.JobTypeDiscrepancyAlert
	}
	if _, err := n.queue.EnqueueJob(jobType, event); err != nil {
		log.Printf("Failed to enqueue %s for commission %s: %v", jobType, event.Commission.ID, err)
	}
}
