package bootstrap

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"paygateway/internal/models"
	"paygateway/internal/repository"
)

// MigrateAndSeed ensures required tables exist and seeds the default tap.
func MigrateAndSeed(db *gorm.DB, defaultTap string) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	if err := seedDefaults(db, defaultTap); err != nil {
		return fmt.Errorf("seed defaults failed: %w", err)
	}
	return nil
}

func allModels() []interface{} {
	return []interface{}{
		// Wiretap
		&models.Tap{},
		&models.Message{},
		// Audit
		&models.Transaction{},
		&models.Lookup{},
	}
}

func seedDefaults(db *gorm.DB, defaultTap string) error {
	if defaultTap == "" {
		return nil
	}
	return db.Transaction(func(tx *gorm.DB) error {
		return repository.NewTapRepository(tx).EnsureTap(context.Background(), defaultTap)
	})
}
