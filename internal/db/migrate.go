package db

import (
	"fmt"

	"github.com/moabank/counsel/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.ChatSession{},
		&models.ChatMessage{},
		&models.Consultant{},
		&models.Customer{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedConsultants upserts consultant rows by login identifier. Existing
// rows keep their current status; only the display name is refreshed.
func SeedConsultants(db *gorm.DB, consultants []models.Consultant) error {
	for _, c := range consultants {
		if c.LoginID == "" {
			return fmt.Errorf("db: seed consultant: login id is required")
		}
		if c.Status == "" {
			c.Status = models.ConsultantIdle
		}
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "login_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}).Create(&c)
		if result.Error != nil {
			return fmt.Errorf("db: seed consultant %q: %w", c.LoginID, result.Error)
		}
	}
	return nil
}

// SeedCustomers upserts customer rows by login identifier, refreshing tier.
func SeedCustomers(db *gorm.DB, customers []models.Customer) error {
	for _, c := range customers {
		if c.LoginID == "" {
			return fmt.Errorf("db: seed customer: login id is required")
		}
		if c.Tier == "" {
			c.Tier = models.TierBasic
		}
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "login_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"tier"}),
		}).Create(&c)
		if result.Error != nil {
			return fmt.Errorf("db: seed customer %q: %w", c.LoginID, result.Error)
		}
	}
	return nil
}
