package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Redis key prefixes
const (
	queuePrefix  = "queue:"
	failedPrefix = "failed:"
)

// RedisQueue implements QueueInterface over a Redis list. Used where the
// deployment wants notification jobs off the primary database; the
// database-backed Queue remains the default.
type RedisQueue struct {
	client     *redis.Client
	ctx        context.Context
	cancel     context.CancelFunc
	handlers   map[JobType]JobHandler
	processing bool
}

// NewRedisQueue creates a Redis-backed queue from a redis URL.
func NewRedisQueue(redisURL, password string, db int) (*RedisQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	opts.DB = db

	ctx, cancel := context.WithCancel(context.Background())
	return &RedisQueue{
		client:   redis.NewClient(opts),
		ctx:      ctx,
		cancel:   cancel,
		handlers: make(map[JobType]JobHandler),
	}, nil
}

// RegisterHandler registers a handler for a job type
func (r *RedisQueue) RegisterHandler(jobType JobType, handler JobHandler) {
	r.handlers[jobType] = handler
}

// EnqueueJob adds a job to the queue
func (r *RedisQueue) EnqueueJob(jobType JobType, payload interface{}) (string, error) {
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

	jobBytes, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := r.client.RPush(r.ctx, queuePrefix+string(jobType), jobBytes).Err(); err != nil {
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}
	return job.ID.String(), nil
}

// StartProcessing starts a worker per registered job type.
func (r *RedisQueue) StartProcessing() {
	if r.processing {
		return
	}
	r.processing = true
	for jobType := range r.handlers {
		go r.worker(jobType)
	}
}

// StopProcessing stops all workers
func (r *RedisQueue) StopProcessing() {
	r.processing = false
	r.cancel()
}

func (r *RedisQueue) worker(jobType JobType) {
	key := queuePrefix + string(jobType)
	for r.processing {
		result, err := r.client.BLPop(r.ctx, 5*time.Second, key).Result()
		if err != nil {
			if err == redis.Nil || r.ctx.Err() != nil {
				continue
			}
			log.Printf("Error popping job from %s: %v", key, err)
			time.Sleep(time.Second)
			continue
		}
		if len(result) < 2 {
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Error unmarshaling job from %s: %v", key, err)
			continue
		}
		r.processJob(job)
	}
}

func (r *RedisQueue) processJob(job Job) {
	handler, ok := r.handlers[job.Type]
	if !ok {
		log.Printf("No handler registered for job type: %s", job.Type)
		return
	}

	if _, err := handler(r.ctx, job); err != nil {
		if job.RetryCount < job.MaxRetries {
			job.RetryCount++
			job.Error = err.Error()
			job.UpdatedAt = time.Now()
			if jobBytes, mErr := json.Marshal(job); mErr == nil {
				r.client.RPush(r.ctx, queuePrefix+string(job.Type), jobBytes)
			}
			return
		}
		job.Status = JobStatusFailed
		job.Error = err.Error()
		if jobBytes, mErr := json.Marshal(job); mErr == nil {
			r.client.RPush(r.ctx, failedPrefix+string(job.Type), jobBytes)
		}
		log.Printf("Job %s failed after %d retries: %v", job.ID, job.MaxRetries, err)
		return
	}
}
