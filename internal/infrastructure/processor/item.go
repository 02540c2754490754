package processor

import (
	"context"
	"fmt"
	"image"
	"time"

	"image-optimizer/internal/domain/entities"
	"image-optimizer/internal/domain/repositories"
	perrors "image-optimizer/pkg/errors"
	"image-optimizer/pkg/file"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	fallbackQuality = 80
	qualityStep     = 10
	minQuality      = 10
)

// FormatLookup resolves a format id to its catalog entry.
type FormatLookup interface {
	Lookup(id string) (entities.FormatSpec, error)
}

type Options struct {
	// MaxConcurrency caps simultaneous encodes per record; 0 means one
	// goroutine per requested format.
	MaxConcurrency int
	// EncodeTimeout bounds each encode call; 0 disables it.
	EncodeTimeout time.Duration
	// MaxFileSize, when > 0, makes lossy encodes step their quality down until
	// the output fits.
	MaxFileSize int64
}

// ItemProcessor turns one input record into one output record per requested
// format: decode once, encode concurrently, emit in request order.
type ItemProcessor struct {
	codec   repositories.Codec
	storage repositories.BinaryStorage
	catalog FormatLookup
	opts    Options
	log     *zap.Logger
}

func NewItemProcessor(codec repositories.Codec, storage repositories.BinaryStorage, catalog FormatLookup, opts Options, log *zap.Logger) *ItemProcessor {
	if log == nil {
		log = zap.NewNop()
	}
	return &ItemProcessor{
		codec:   codec,
		storage: storage,
		catalog: catalog,
		opts:    opts,
		log:     log,
	}
}

type encodeOutcome struct {
	data []byte
	info entities.ImageInfo
	err  error
}

// Process runs the record at index through every requested format. Any
// failure fails the whole record; no partial output is returned.
func (p *ItemProcessor) Process(ctx context.Context, index int, record entities.InputRecord, field string, formats []string) ([]entities.OutputRecord, error) {
	att := record.Binary[field]
	if att == nil {
		return nil, perrors.ErrMissingInput(field)
	}
	if att.FileType != "" && att.FileType != entities.KindImage {
		return nil, perrors.ErrUnsupportedKind(att.FileType)
	}

	// resolve every format before touching the payload
	specs := make([]entities.FormatSpec, len(formats))
	for i, id := range formats {
		spec, err := p.catalog.Lookup(id)
		if err != nil {
			return nil, err
		}
		specs[i] = spec
	}

	data, err := p.storage.ReadBinary(ctx, index, field, att)
	if err != nil {
		return nil, perrors.ErrReadInput(field, err)
	}
	if att.MimeType == "" {
		p.log.Debug("input mime type sniffed",
			zap.Int("item_index", index),
			zap.String("mime_type", file.DetectMimeType(data)))
	}

	img, err := p.codec.Decode(ctx, data)
	if err != nil {
		return nil, perrors.ErrDecode(err)
	}

	outcomes := p.encodeAll(ctx, img, specs)

	results := make([]entities.EncodeResult, len(specs))
	for i, o := range outcomes {
		if o.err != nil {
			return nil, perrors.ErrEncode(string(specs[i].ID), o.err)
		}
		results[i] = entities.EncodeResult{Format: specs[i].ID, Data: o.data, Info: o.info}
	}

	out := make([]entities.OutputRecord, 0, len(results))
	for i, res := range results {
		spec := specs[i]
		binary, err := p.storage.WriteBinary(ctx, res.Data, file.OutputFileName(att.FileName, spec.Extension), spec.MimeType)
		if err != nil {
			p.discard(ctx, index, field, out)
			return nil, perrors.ErrEncode(string(spec.ID), fmt.Errorf("store output: %w", err))
		}
		out = append(out, entities.OutputRecord{
			PairedItem: index,
			JSON:       res.Info.Map(),
			Binary:     map[string]*entities.BinaryAttachment{field: binary},
		})
	}

	p.log.Debug("item processed",
		zap.Int("item_index", index),
		zap.Int("outputs", len(out)))
	return out, nil
}

// discard removes outputs already written for a record that failed part way
// through writing.
func (p *ItemProcessor) discard(ctx context.Context, index int, field string, written []entities.OutputRecord) {
	for _, o := range written {
		att := o.Binary[field]
		if att == nil || att.ID == "" {
			continue
		}
		if err := p.storage.Delete(ctx, att.ID); err != nil {
			p.log.Warn("could not remove orphaned output",
				zap.Int("item_index", index),
				zap.String("id", att.ID),
				zap.Error(err))
		}
	}
}

// encodeAll starts one encode per spec and waits for all of them. Each
// goroutine writes only its own slot, so outcomes line up with specs
// regardless of completion order.
func (p *ItemProcessor) encodeAll(ctx context.Context, img image.Image, specs []entities.FormatSpec) []encodeOutcome {
	outcomes := make([]encodeOutcome, len(specs))

	var g errgroup.Group
	if p.opts.MaxConcurrency > 0 {
		g.SetLimit(p.opts.MaxConcurrency)
	}
	for i, spec := range specs {
		g.Go(func() error {
			data, info, err := p.encodeWithinLimit(ctx, img, spec)
			outcomes[i] = encodeOutcome{data: data, info: info, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// encodeWithinLimit encodes once and, when a size limit is set, retries lossy
// formats at lower quality until the output fits.
func (p *ItemProcessor) encodeWithinLimit(ctx context.Context, img image.Image, spec entities.FormatSpec) ([]byte, entities.ImageInfo, error) {
	data, info, err := p.encode(ctx, img, spec)
	if err != nil || p.opts.MaxFileSize <= 0 || int64(len(data)) <= p.opts.MaxFileSize {
		return data, info, err
	}
	if !qualityAdjustable(spec) {
		return nil, entities.ImageInfo{}, fmt.Errorf("%d bytes > %d: %w", len(data), p.opts.MaxFileSize, perrors.ErrFileTooLarge)
	}

	quality := spec.Options.Quality
	if quality == 0 {
		quality = fallbackQuality
	}
	for q := quality - qualityStep; q >= minQuality; q -= qualityStep {
		retry := spec
		retry.Options.Quality = q
		data, info, err = p.encode(ctx, img, retry)
		if err != nil {
			return nil, entities.ImageInfo{}, err
		}
		if int64(len(data)) <= p.opts.MaxFileSize {
			return data, info, nil
		}
	}
	return nil, entities.ImageInfo{}, fmt.Errorf("%d bytes > %d at minimum quality: %w", len(data), p.opts.MaxFileSize, perrors.ErrFileTooLarge)
}

func (p *ItemProcessor) encode(ctx context.Context, img image.Image, spec entities.FormatSpec) ([]byte, entities.ImageInfo, error) {
	if p.opts.EncodeTimeout <= 0 {
		return p.codec.Encode(ctx, img, spec)
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.EncodeTimeout)
	defer cancel()

	// the codec call cannot be interrupted; on timeout it finishes in the
	// background and its result is dropped
	done := make(chan encodeOutcome, 1)
	go func() {
		data, info, err := p.codec.Encode(ctx, img, spec)
		done <- encodeOutcome{data: data, info: info, err: err}
	}()

	select {
	case o := <-done:
		return o.data, o.info, o.err
	case <-ctx.Done():
		return nil, entities.ImageInfo{}, ctx.Err()
	}
}

func qualityAdjustable(spec entities.FormatSpec) bool {
	switch spec.ID {
	case entities.FormatJPEG, entities.FormatAVIF:
		return true
	case entities.FormatWebP:
		return !spec.Options.Lossless
	case entities.FormatPNG:
		return spec.Options.Palette
	}
	return false
}
