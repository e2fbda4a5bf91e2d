package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Queue is a database-backed job queue. Jobs are persisted rows, so a
// restart never loses a queued notification. Failed jobs are retried with
// backoff up to MaxRetries.
type Queue struct {
	db         *gorm.DB
	handlers   map[JobType]JobHandler
	processing bool
}

// NewQueue creates a new queue
func NewQueue(db *gorm.DB) *Queue {
	return &Queue{
		db:       db,
		handlers: make(map[JobType]JobHandler),
	}
}

// RegisterHandler registers a handler for a job type
func (q *Queue) RegisterHandler(jobType JobType, handler JobHandler) {
	q.handlers[jobType] = handler
}

// EnqueueJob adds a job to the queue
func (q *Queue) EnqueueJob(jobType JobType, payload interface{}) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := Job{
		ID:         uuid.New(),
		Type:       jobType,
		Payload:    payloadBytes,
		Status:     JobStatusPending,
		MaxRetries: 3,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if err := q.db.Create(&job).Error; err != nil {
		return "", err
	}
	return job.ID.String(), nil
}

// GetJob retrieves a job by ID
func (q *Queue) GetJob(jobID string) (*Job, error) {
	var job Job
	if err := q.db.Where("id = ?", jobID).First(&job).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("job not found")
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// StartProcessing starts processing jobs from the queue
func (q *Queue) StartProcessing() {
	if q.processing {
		return
	}

	q.processing = true
	go func() {
		for q.processing {
			var job Job
			err := q.db.
				Where("status = ?", JobStatusPending).
				Where("next_retry IS NULL OR next_retry <= ?", time.Now()).
				Order("created_at").
				First(&job).Error
			if err != nil {
				if err != gorm.ErrRecordNotFound {
					log.Printf("Error getting job from queue: %v", err)
				}
				time.Sleep(1 * time.Second)
				continue
			}
			q.processJob(job)
		}
	}()
}

// StopProcessing stops the processing loop
func (q *Queue) StopProcessing() {
	q.processing = false
}

func (q *Queue) processJob(job Job) {
	handler, ok := q.handlers[job.Type]
	if !ok {
		log.Printf("No handler registered for job type: %s", job.Type)
		q.markFailed(job, fmt.Errorf("no handler for job type %s", job.Type))
		return
	}

	if err := q.db.Model(&job).Updates(map[string]interface{}{
		"status":     JobStatusProcessing,
		"updated_at": time.Now(),
	}).Error; err != nil {
		log.Printf("Failed to update job status: %v", err)
		return
	}

	result, err := handler(context.Background(), job)
	if err != nil {
		q.handleFailure(job, err)
		return
	}

	updates := map[string]interface{}{
		"status":     JobStatusCompleted,
		"updated_at": time.Now(),
	}
	if result != nil {
		if resultBytes, marshalErr := json.Marshal(result); marshalErr == nil {
			updates["result"] = resultBytes
		}
	}
	if err := q.db.Model(&job).Updates(updates).Error; err != nil {
		log.Printf("Failed to mark job %s completed: %v", job.ID, err)
	}
}

// handleFailure schedules a retry with linear backoff, or marks the job
// failed once retries are exhausted.
func (q *Queue) handleFailure(job Job, jobErr error) {
	if job.RetryCount >= job.MaxRetries {
		q.markFailed(job, jobErr)
		return
	}

	nextRetry := time.Now().Add(time.Duration(job.RetryCount+1) * time.Minute)
	if err := q.db.Model(&job).Updates(map[string]interface{}{
		"status":      JobStatusPending,
		"retry_count": job.RetryCount + 1,
		"next_retry":  nextRetry,
		"error":       jobErr.Error(),
		"updated_at":  time.Now(),
	}).Error; err != nil {
		log.Printf("Failed to schedule retry for job %s: %v", job.ID, err)
	}
}

func (q *Queue) markFailed(job Job, jobErr error) {
	if err := q.db.Model(&job).Updates(map[string]interface{}{
		"status":     JobStatusFailed,
		"error":      jobErr.Error(),
		"updated_at": time.Now(),
	}).Error; err != nil {
		log.Printf("Failed to mark job %s failed: %v", job.ID, err)
	}
}
