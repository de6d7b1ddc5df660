package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"waste_tracker/internal/models"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20240101_create_reference_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Account{}, &models.Profile{}, &models.Client{},
					&models.CollectionSite{}, &models.DepositSite{}, &models.Vehicle{}, &models.MaterialType{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("material_types", "vehicles", "deposit_sites",
					"collection_sites", "clients", "profiles", "accounts")
			},
		},
		{
			ID: "20240101_create_missions",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Mission{}, &models.MissionRequest{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("mission_requests", "missions")
			},
		},
		{
			ID: "20240301_add_tracking_token_rotation",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.RetiredTrackingToken{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("client_tracking_tokens")
			},
		},
		{
			ID: "20240315_mission_weight_check",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec(`ALTER TABLE missions ADD CONSTRAINT chk_missions_loaded_gt_empty
					CHECK (loaded_weight_kg > empty_weight_kg)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec(`ALTER TABLE missions DROP CONSTRAINT IF EXISTS chk_missions_loaded_gt_empty`).Error
			},
		},
		{
			// Net tons carry three more decimals than the gram-precise kg weighings.
			ID: "20240402_widen_mission_net_weight",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec(`ALTER TABLE missions ALTER COLUMN net_weight_tons TYPE numeric(15,6)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec(`ALTER TABLE missions ALTER COLUMN net_weight_tons TYPE numeric(12,3)`).Error
			},
		},
	})
	return m.Migrate()
}
