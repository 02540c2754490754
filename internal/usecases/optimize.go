package usecases

import (
	"context"
	"fmt"

	"image-optimizer/internal/domain/entities"
	perrors "image-optimizer/pkg/errors"

	"go.uber.org/zap"
)

// ItemProcessor converts one record into its output records.
type ItemProcessor interface {
	Process(ctx context.Context, index int, record entities.InputRecord, field string, formats []string) ([]entities.OutputRecord, error)
}

type RunOptions struct {
	BinaryField    string
	Formats        []string
	ContinueOnFail bool
	ChannelCount   int
	RouteByFormat  bool
}

func (o RunOptions) Validate() error {
	if o.ChannelCount < 1 {
		return fmt.Errorf("channel count must be at least 1, got %d", o.ChannelCount)
	}
	if o.BinaryField == "" {
		return fmt.Errorf("binary field name is required")
	}
	if len(o.Formats) == 0 {
		return fmt.Errorf("at least one output format is required")
	}
	return nil
}

// BatchOrchestrator runs records through an ItemProcessor strictly in input
// order and assembles the output channels.
type BatchOrchestrator struct {
	processor ItemProcessor
	log       *zap.Logger
}

func NewBatchOrchestrator(processor ItemProcessor, log *zap.Logger) *BatchOrchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &BatchOrchestrator{processor: processor, log: log}
}

// Run processes records in order. With ContinueOnFail a failing record adds a
// {"error": message} entry to channel 0 and the run goes on; without it the
// run stops at the first failure and returns the channels filled so far along
// with an *errors.ItemError carrying the failing index.
func (b *BatchOrchestrator) Run(ctx context.Context, records []entities.InputRecord, opts RunOptions) (entities.OutputChannelSet, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	channels := entities.NewOutputChannelSet(opts.ChannelCount)
	router := newRouter(opts)

	for index, record := range records {
		if err := ctx.Err(); err != nil {
			return channels, err
		}

		outputs, err := b.processor.Process(ctx, index, record, opts.BinaryField, opts.Formats)
		if err != nil {
			b.log.Warn("item failed",
				zap.Int("item_index", index),
				zap.String("code", perrors.CodeOf(err)),
				zap.Error(err))

			if !opts.ContinueOnFail {
				return channels, perrors.WithIndex(index, err)
			}
			channels[0] = append(channels[0], entities.OutputRecord{
				PairedItem: index,
				JSON:       map[string]any{"error": err.Error()},
			})
			continue
		}

		for i, out := range outputs {
			ch := router.Channel(formatAt(opts.Formats, i, out))
			channels[ch] = append(channels[ch], out)
		}
	}

	return channels, nil
}

// formatAt names the format of the i-th output of a record. Outputs follow the
// requested order, so the request list is authoritative.
func formatAt(formats []string, i int, out entities.OutputRecord) string {
	if i < len(formats) {
		return formats[i]
	}
	f, _ := out.JSON["format"].(string)
	return f
}
