package db

import (
	"context"
	"fmt"

	"image-optimizer/internal/domain/entities"
	_ "image-optimizer/migrations"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

// AutoMigrate lets gorm create or extend the run history tables. Used in tests
// and when RUN_AUTO_MIGRATION is set.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entities.OptimizeRun{},
		&entities.RunOutput{},
	)
}

// MigrateUp applies the versioned goose migrations registered by the
// migrations package.
func MigrateUp(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
