package migrations

import (
	"github.com/fitgrid/settlement-tracker/internal/repository"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createStatusTransitionsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_status_transitions",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.TransitionModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_status_transitions_payment_observed ON status_transitions (payment_id, observed_at)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.TransitionModel{})
		},
	}
}
