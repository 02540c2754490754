package usecases

import (
	"context"
	"errors"
	"strings"

	"image-optimizer/internal/domain/entities"
	"image-optimizer/internal/domain/repositories"
	"image-optimizer/pkg/constants"

	"go.uber.org/zap"
)

// ErrHistoryDisabled is returned by run lookups when no run store is configured.
var ErrHistoryDisabled = errors.New("run history is disabled")

type FormatLister interface {
	Specs() []entities.FormatSpec
}

type OptimizeResult struct {
	RunID       string                    `json:"runId,omitempty"`
	Status      string                    `json:"status"`
	FailedCount int                       `json:"failedCount"`
	Channels    entities.OutputChannelSet `json:"channels"`
}

type OptimizeService interface {
	Optimize(ctx context.Context, records []entities.InputRecord, opts RunOptions) (*OptimizeResult, error)
	GetRun(ctx context.Context, id string) (*entities.OptimizeRun, error)
	ListRuns(ctx context.Context, limit int) ([]*entities.OptimizeRun, error)
	GetBinary(ctx context.Context, id string) ([]byte, error)
	Formats() []entities.FormatSpec
}

type optimizeService struct {
	orchestrator *BatchOrchestrator
	storage      repositories.BinaryStorage
	runs         repositories.RunRepository
	catalog      FormatLister
	log          *zap.Logger
}

// NewOptimizeService wires the orchestrator to storage and, when runs is not
// nil, to the run history.
func NewOptimizeService(
	orchestrator *BatchOrchestrator,
	storage repositories.BinaryStorage,
	runs repositories.RunRepository,
	catalog FormatLister,
	log *zap.Logger,
) OptimizeService {
	if log == nil {
		log = zap.NewNop()
	}
	return &optimizeService{
		orchestrator: orchestrator,
		storage:      storage,
		runs:         runs,
		catalog:      catalog,
		log:          log,
	}
}

func (s *optimizeService) Optimize(ctx context.Context, records []entities.InputRecord, opts RunOptions) (*OptimizeResult, error) {
	channels, runErr := s.orchestrator.Run(ctx, records, opts)
	if channels == nil {
		return nil, runErr
	}
	run := buildRun(channels, opts, len(records), runErr)
	result := &OptimizeResult{
		Status:      run.Status,
		FailedCount: run.FailedCount,
		Channels:    channels,
	}

	if s.runs != nil {
		if err := s.runs.CreateRun(ctx, run); err != nil {
			// history is best effort; the optimized output is still returned
			s.log.Error("run history could not be saved", zap.Error(err))
		} else {
			result.RunID = run.ID.String()
		}
	}

	s.log.Info("optimize run finished",
		zap.Int("items", len(records)),
		zap.Strings("formats", opts.Formats),
		zap.String("run_id", result.RunID),
		zap.String("status", result.Status))
	return result, runErr
}

func (s *optimizeService) GetRun(ctx context.Context, id string) (*entities.OptimizeRun, error) {
	if s.runs == nil {
		return nil, ErrHistoryDisabled
	}
	return s.runs.GetRunByID(ctx, id)
}

func (s *optimizeService) ListRuns(ctx context.Context, limit int) ([]*entities.OptimizeRun, error) {
	if s.runs == nil {
		return nil, ErrHistoryDisabled
	}
	return s.runs.ListRuns(ctx, limit)
}

func (s *optimizeService) GetBinary(ctx context.Context, id string) ([]byte, error) {
	return s.storage.Get(ctx, id)
}

func (s *optimizeService) Formats() []entities.FormatSpec {
	return s.catalog.Specs()
}

func buildRun(channels entities.OutputChannelSet, opts RunOptions, itemCount int, runErr error) *entities.OptimizeRun {
	run := &entities.OptimizeRun{
		Status:    constants.StatusCompleted,
		Formats:   strings.Join(opts.Formats, ","),
		ItemCount: itemCount,
	}
	if runErr != nil {
		run.Status = constants.StatusFailed
		run.Error = runErr.Error()
	}

	failed := map[int]bool{}
	for ch, outputs := range channels {
		for _, out := range outputs {
			ro := entities.RunOutput{Position: len(run.Outputs), PairedItem: out.PairedItem, Channel: ch}
			if out.IsError() {
				ro.Error, _ = out.JSON["error"].(string)
				failed[out.PairedItem] = true
			} else {
				ro.Format, _ = out.JSON["format"].(string)
				ro.Width, _ = out.JSON["width"].(int)
				ro.Height, _ = out.JSON["height"].(int)
				ro.Size, _ = out.JSON["size"].(int64)
				if att := out.Binary[opts.BinaryField]; att != nil {
					ro.FileName = att.FileName
					ro.MimeType = att.MimeType
					ro.StorageKey = att.ID
				}
			}
			run.Outputs = append(run.Outputs, ro)
		}
	}
	run.FailedCount = len(failed)
	if runErr != nil {
		run.FailedCount++
	}
	if run.Status == constants.StatusCompleted && run.FailedCount > 0 {
		run.Status = constants.StatusPartial
	}
	return run
}
