package usecases

import (
	"context"
	"time"

	"image-optimizer/internal/domain/repositories"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type CleanupService interface {
	CleanupOldBinaries(ctx context.Context) (int, error)
	Schedule(c *cron.Cron, spec string) (cron.EntryID, error)
}

type cleanupService struct {
	storage repositories.BinaryStorage
	maxAge  time.Duration
	log     *zap.Logger
}

func NewCleanupService(storage repositories.BinaryStorage, maxAge time.Duration, log *zap.Logger) CleanupService {
	if log == nil {
		log = zap.NewNop()
	}
	return &cleanupService{storage: storage, maxAge: maxAge, log: log}
}

func (s *cleanupService) CleanupOldBinaries(ctx context.Context) (int, error) {
	removed, err := s.storage.Cleanup(ctx, s.maxAge)
	if removed > 0 {
		s.log.Info("removed old binaries", zap.Int("count", removed), zap.Duration("max_age", s.maxAge))
	}
	return removed, err
}

// Schedule registers the cleanup on c. spec uses the seconds-enabled cron
// syntax, e.g. "0 */5 * * * *".
func (s *cleanupService) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		if _, err := s.CleanupOldBinaries(context.Background()); err != nil {
			s.log.Error("error cleaning up old binaries", zap.Error(err))
		}
	})
}
