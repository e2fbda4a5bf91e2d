package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/roofline/backend/internal/config"
	"github.com/roofline/backend/internal/models"
	"github.com/roofline/backend/internal/queue"
)

// InitDB initializes the database connection with configuration
func InitDB(dbConfig config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Needed so unique-constraint violations surface as
		// gorm.ErrDuplicatedKey instead of driver-specific errors.
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(dbConfig.URL), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(dbConfig.MaxIdle)
	sqlDB.SetMaxOpenConns(dbConfig.MaxConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// AutoMigrate keeps the schema current for all models. The partial unique
// indexes the commission ledger depends on are created by the versioned
// migrations in the migrations package.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Team and org
		&models.User{},
		&models.Location{},

		// Sales pipeline
		&models.Lead{},
		&models.Invoice{},
		&models.Payment{},

		// Commission configuration
		&models.CommissionPlan{},
		&models.LocationCommissionSetting{},
		&models.RoleCommissionDefault{},

		// Commission ledger
		&models.LeadCommission{},
		&models.TeamLeadCommission{},
		&models.CommissionDiscrepancy{},

		// Background jobs
		&queue.Job{},
	)
}
