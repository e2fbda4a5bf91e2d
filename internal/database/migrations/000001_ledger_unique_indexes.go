package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createLedgerUniqueIndexes enforces the one-active-row-per-key invariant
// of the commission ledger at the storage layer. Partial indexes over
// non-deleted rows are the final guard against concurrent ensure calls both
// inserting; the engine's upsert path relies on these constraints existing.
var createLedgerUniqueIndexes = &gormigrate.Migration{
	ID: "000001_ledger_unique_indexes",
	Migrate: func(tx *gorm.DB) error {
		if err := tx.Exec(
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_lead_commissions_lead_user_active
			 ON lead_commissions (lead_id, user_id)
			 WHERE deleted_at IS NULL`,
		).Error; err != nil {
			return err
		}
		return tx.Exec(
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_team_lead_commissions_period_active
			 ON team_lead_commissions (location_id, user_id, period)
			 WHERE deleted_at IS NULL`,
		).Error
	},
	Rollback: func(tx *gorm.DB) error {
		if err := tx.Exec(`DROP INDEX IF EXISTS idx_lead_commissions_lead_user_active`).Error; err != nil {
			return err
		}
		return tx.Exec(`DROP INDEX IF EXISTS idx_team_lead_commissions_period_active`).Error
	},
}
