package migrations

import (
	"github.com/fitgrid/settlement-tracker/internal/repository"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createMembershipSnapshotsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_membership_snapshots",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&repository.MembershipModel{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.MembershipModel{})
		},
	}
}
