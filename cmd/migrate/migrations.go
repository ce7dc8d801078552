package main

import (
	"gorm.io/gorm"

	"github.com/cloudemu/engine/internal/models"
	"github.com/cloudemu/engine/pkg/database"
)

// runMigrations executes all database migrations
func runMigrations(db *gorm.DB, driver database.Driver) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return err
	}
	return runCustomMigrations(db, driver)
}

// runCustomMigrations handles schema changes AutoMigrate can't handle
func runCustomMigrations(db *gorm.DB, driver database.Driver) error {
	migrations := []func(*gorm.DB) error{
		addInstanceListIndexes,
	}
	if driver == database.DriverPostgres {
		migrations = append(migrations, addCaseInsensitiveEmailIndex)
	}

	for _, migration := range migrations {
		if err := migration(db); err != nil {
			return err
		}
	}
	return nil
}

// addInstanceListIndexes backs the creation-ordered list endpoints.
func addInstanceListIndexes(db *gorm.DB) error {
	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_instances_created_at ON instances(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_db_instances_created_at ON db_instances(created_at)`,
	} {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

func addCaseInsensitiveEmailIndex(db *gorm.DB) error {
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower
		ON users(lower(email))
	`).Error
}
