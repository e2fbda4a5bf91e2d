package migrations

import (
	"errors"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/roofline/backend/internal/models"
)

// seedRoleDefaults installs the fallback role -> plan mapping the resolver
// uses when a user has no assigned plan and no location override. Idempotent:
// existing plans and defaults are left alone.
var seedRoleDefaults = &gormigrate.Migration{
	ID: "000002_seed_role_defaults",
	Migrate: func(tx *gorm.DB) error {
		fivePercent := decimal.NewFromInt(5)
		flat250 := decimal.NewFromInt(250)

		plans := []models.CommissionPlan{
			{
				ID:             uuid.New(),
				Name:           "Standard Sales",
				CommissionType: models.CommissionTypePercentage,
				CommissionRate: &fivePercent,
				PaidWhen:       models.PaidWhenFinalPayment,
				Description:    "Default plan for sales reps without an assigned plan",
				IsActive:       true,
			},
			{
				ID:             uuid.New(),
				Name:           "Production Completion Bonus",
				CommissionType: models.CommissionTypeFlatAmount,
				FlatAmount:     &flat250,
				PaidWhen:       models.PaidWhenJobCompleted,
				Description:    "Default flat bonus for production managers",
				IsActive:       true,
			},
		}

		defaults := map[models.Role]string{
			models.RoleSalesRep:          "Standard Sales",
			models.RoleProductionManager: "Production Completion Bonus",
		}

		for i := range plans {
			var existing models.CommissionPlan
			err := tx.Where("name = ?", plans[i].Name).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if err := tx.Create(&plans[i]).Error; err != nil {
					return err
				}
				continue
			}
			if err != nil {
				return err
			}
			plans[i].ID = existing.ID
		}

		for role, planName := range defaults {
			var plan models.CommissionPlan
			if err := tx.Where("name = ?", planName).First(&plan).Error; err != nil {
				return err
			}
			var existing models.RoleCommissionDefault
			err := tx.Where("role = ?", role).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				def := models.RoleCommissionDefault{ID: uuid.New(), Role: role, CommissionPlanID: plan.ID}
				if err := tx.Create(&def).Error; err != nil {
					return err
				}
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	},
	Rollback: func(tx *gorm.DB) error {
		return tx.Where("role IN ?", []models.Role{
			models.RoleSalesRep, models.RoleProductionManager,
		}).Delete(&models.RoleCommissionDefault{}).Error
	},
}
