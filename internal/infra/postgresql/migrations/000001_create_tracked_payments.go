package migrations

import (
	"github.com/fitgrid/settlement-tracker/internal/repository"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createTrackedPaymentsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_tracked_payments",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.PaymentModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_tracked_payments_status_created ON tracked_payments (status, created_at)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.PaymentModel{})
		},
	}
}
