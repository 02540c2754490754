package repositories

import (
	"context"
	"errors"
	"fmt"

	"image-optimizer/internal/domain/entities"
	"image-optimizer/internal/domain/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrRunNotFound = repositories.ErrRunNotFound

const defaultListLimit = 50

type runRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) repositories.RunRepository {
	return &runRepository{
		db: db,
	}
}

// CreateRun stores the run together with its outputs in one transaction.
func (r *runRepository) CreateRun(ctx context.Context, run *entities.OptimizeRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *runRepository) GetRunByID(ctx context.Context, id string) (*entities.OptimizeRun, error) {
	runID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("run %q: %w", id, ErrRunNotFound)
	}

	var run entities.OptimizeRun
	err = r.db.WithContext(ctx).
		Preload("Outputs", func(db *gorm.DB) *gorm.DB {
			return db.Order("position")
		}).
		First(&run, "id = ?", runID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the newest runs first, without their outputs.
func (r *runRepository) ListRuns(ctx context.Context, limit int) ([]*entities.OptimizeRun, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var runs []*entities.OptimizeRun
	if err := r.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *runRepository) DeleteRun(ctx context.Context, id string) error {
	runID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("run %q: %w", id, ErrRunNotFound)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", runID).Delete(&entities.RunOutput{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&entities.OptimizeRun{}, "id = ?", runID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("run %s: %w", id, ErrRunNotFound)
		}
		return nil
	})
}
