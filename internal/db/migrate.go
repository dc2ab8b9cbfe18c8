package db

import (
	"fmt"

	"github.com/phmhse/csmstrack/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every CSMS table model in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&models.Project{},
		&models.Task{},
		&models.Schedule{},
		&models.Comment{},
		&models.CsmsPB{},
		&models.RelatedDoc{},
		&models.AppLog{},
		&models.ReminderMark{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// DropAll drops every CSMS table, children first.
func DropAll(db *gorm.DB) error {
	all := AllModels()
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(all[i]); err != nil {
			return fmt.Errorf("db: drop %T: %w", all[i], err)
		}
	}
	return nil
}
