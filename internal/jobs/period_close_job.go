package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"gorm.io/gorm"

	"github.com/roofline/backend/internal/models"
	"github.com/roofline/backend/internal/services/commission"
)

// PeriodCloseJob computes team-lead aggregate commissions for the month
// that just ended, for every active location. It runs outside the
// synchronous revenue-event path: aggregate rows are derived data and the
// aggregator upsert is idempotent, so a rerun only refreshes them.
type PeriodCloseJob struct {
	db         *gorm.DB
	aggregator *commission.TeamLeadAggregator
	scheduler  *gocron.Scheduler
}

// NewPeriodCloseJob creates the monthly close job.
func NewPeriodCloseJob(db *gorm.DB, store commission.TxStore) *PeriodCloseJob {
	return &PeriodCloseJob{
		db:         db,
		aggregator: commission.NewTeamLeadAggregator(store),
		scheduler:  gocron.NewScheduler(time.UTC),
	}
}

// Start schedules the close for 02:00 UTC on the first of each month.
func (j *PeriodCloseJob) Start() error {
	_, err := j.scheduler.Every(1).Month(1).At("02:00").Do(func() {
		period := commission.PeriodOf(time.Now().UTC()).Previous()
		if err := j.Run(context.Background(), period); err != nil {
			log.Printf("Team lead period close for %s failed: %v", period, err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule period close: %w", err)
	}
	j.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler
func (j *PeriodCloseJob) Stop() {
	j.scheduler.Stop()
}

// Run closes the given period for every active location.
func (j *PeriodCloseJob) Run(ctx context.Context, period commission.Period) error {
	var locations []models.Location
	if err := j.db.WithContext(ctx).Where("is_active = ?", true).Find(&locations).Error; err != nil {
		return fmt.Errorf("failed to list locations: %w", err)
	}

	for _, loc := range locations {
		rows, err := j.aggregator.ComputeForLocation(ctx, loc.ID, period)
		if err != nil {
			return fmt.Errorf("failed to close period %s for location %s: %w", period, loc.ID, err)
		}
		// The period has ended, so the aggregate base is final and the rows
		// can move to eligible.
		eligible, err := j.aggregator.Finalize(ctx, loc.ID, period)
		if err != nil {
			return fmt.Errorf("failed to finalize period %s for location %s: %w", period, loc.ID, err)
		}
		log.Printf("Period %s closed for location %s: %d team lead commissions, %d eligible", period, loc.Name, len(rows), len(eligible))
	}
	return nil
}
