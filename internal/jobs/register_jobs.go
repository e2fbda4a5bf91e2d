package jobs

import (
	"gorm.io/gorm"

	"github.com/roofline/backend/internal/queue"
)

// RegisterJobHandlers wires all job handlers into the queue.
func RegisterJobHandlers(q queue.QueueInterface, db *gorm.DB, sender Sender) {
	notification := NewCommissionNotificationJob(db, sender)
	q.RegisterHandler(queue.JobTypeCommissionNotification, notification.Handle)
	q.RegisterHandler(queue.JobTypeDiscrepancyAlert, notification.Handle)
}
