package repositories

import (
	"context"
	"errors"

	"image-optimizer/internal/domain/entities"
)

// ErrRunNotFound is wrapped by implementations when no run matches an id.
var ErrRunNotFound = errors.New("run not found")

type RunRepository interface {
	CreateRun(ctx context.Context, run *entities.OptimizeRun) error
	GetRunByID(ctx context.Context, id string) (*entities.OptimizeRun, error)
	ListRuns(ctx context.Context, limit int) ([]*entities.OptimizeRun, error)
	DeleteRun(ctx context.Context, id string) error
}
