package notify

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/roofline/backend/internal/models"
	"github.com/roofline/backend/internal/queue"
	"github.com/roofline/backend/internal/services/commission"
)

// MockQueue is a mock implementation of the queue interface
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) RegisterHandler(jobType queue.JobType, handler queue.JobHandler) {
	m.Called(jobType, handler)
}

func (m *MockQueue) EnqueueJob(jobType queue.JobType, payload interface{}) (string, error) {
	args := m.Called(jobType, payload)
	return args.String(0), args.Error(1)
}

func (m *MockQueue) StartProcessing() {
	m.Called()
}

func (m *MockQueue) StopProcessing() {
	m.Called()
}

func TestDispatchRoutesEligibleEvents(t *testing.T) {
	q := new(MockQueue)
	event := commission.Event{
		Type:       commission.EventEligible,
		Commission: models.LeadCommission{ID: uuid.New()},
	}
	q.On("EnqueueJob", queue.JobTypeCommissionNotification, event).Return("job-1", nil)

	NewQueueNotifier(q).Dispatch(event)

	q.AssertExpectations(t)
}

func TestDispatchRoutesDiscrepanciesToAlertQueue(t *testing.T) {
	q := new(MockQueue)
	event := commission.Event{
		Type:       commission.EventDiscrepancy,
		Commission: models.LeadCommission{ID: uuid.New()},
	}
	q.On("EnqueueJob", queue.JobTypeDiscrepancyAlert, event).Return("job-2", nil)

	NewQueueNotifier(q).Dispatch(event)

	q.AssertExpectations(t)
}

func TestDispatchSwallowsEnqueueFailures(t *testing.T) {
	q := new(MockQueue)
	event := commission.Event{
		Type:       commission.EventCancelled,
		Commission: models.LeadCommission{ID: uuid.New()},
	}
	q.On("EnqueueJob", queue.JobTypeCommissionNotification, event).Return("", errors.New("queue down"))

	// Must not panic or propagate; notifications never affect ledger state
	assert.NotPanics(t, func() {
		NewQueueNotifier(q).Dispatch(event)
	})
	q.AssertExpectations(t)
}
