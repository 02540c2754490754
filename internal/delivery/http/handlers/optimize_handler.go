package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"image-optimizer/internal/domain/dto"
	"image-optimizer/internal/domain/entities"
	"image-optimizer/internal/domain/mapper"
	"image-optimizer/internal/domain/repositories"
	"image-optimizer/internal/infrastructure/catalog"
	"image-optimizer/internal/infrastructure/queue"
	"image-optimizer/internal/usecases"
	"image-optimizer/pkg/config"
	"image-optimizer/pkg/constants"
	perrors "image-optimizer/pkg/errors"
	"image-optimizer/pkg/file"
	"image-optimizer/pkg/helper"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobQueue accepts batches for the worker host.
type JobQueue interface {
	Enqueue(ctx context.Context, job queue.BatchJob) error
}

// JobResults answers job status lookups.
type JobResults interface {
	Get(jobID string) (queue.BatchResult, bool)
}

type OptimizeHandler struct {
	service  usecases.OptimizeService
	storage  repositories.BinaryStorage
	defaults config.OptimizeConfig
	jobs     JobQueue
	results  JobResults
	log      *zap.Logger
}

// NewOptimizeHandler builds the handler. jobs and results may be nil, which
// disables async requests.
func NewOptimizeHandler(service usecases.OptimizeService, storage repositories.BinaryStorage, defaults config.OptimizeConfig, jobs JobQueue, results JobResults, log *zap.Logger) *OptimizeHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &OptimizeHandler{
		service:  service,
		storage:  storage,
		defaults: defaults,
		jobs:     jobs,
		results:  results,
		log:      log,
	}
}

// Optimize
//
// @Summary      Optimize images
// @Description  Re-encodes every uploaded file into each requested format. Outputs are paired with the index of their file.
// @Tags         Optimize
// @Accept       multipart/form-data
// @Produce      json
// @Param        files             formData  file    true   "Images, one record each"
// @Param        formats           formData  string  false  "Comma separated target formats"
// @Param        binary_field      formData  string  false  "Binary field name"
// @Param        continue_on_fail  formData  boolean false  "Keep going after a failing file"
// @Param        channel_count     formData  int     false  "Number of output channels"
// @Param        route_by_format   formData  boolean false  "Route each format to its own channel"
// @Param        async             formData  boolean false  "Queue the batch for the worker"
// @Success      200  {object}  dto.OptimizeResponse
// @Success      202  {object}  dto.JobAcceptedResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /optimize [post]
func (h *OptimizeHandler) Optimize(c *fiber.Ctx) error {
	req := &dto.OptimizeRequestDTO{}
	if err := c.BodyParser(req); err != nil {
		return perrors.HandleError(c, h.log, fiber.NewError(fiber.StatusBadRequest, err.Error()))
	}

	opts, async, err := h.runOptions(req)
	if err != nil {
		return perrors.HandleError(c, h.log, fiber.NewError(fiber.StatusBadRequest, err.Error()))
	}

	form, err := c.MultipartForm()
	if err != nil {
		return perrors.HandleError(c, h.log, fiber.NewError(fiber.StatusBadRequest, "multipart form with files is required"))
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return perrors.HandleError(c, h.log, fiber.NewError(fiber.StatusBadRequest, "no files uploaded"))
	}

	records, err := readRecords(headers, opts.BinaryField)
	if err != nil {
		return perrors.HandleError(c, h.log, err)
	}

	if async {
		return h.enqueue(c, records, opts)
	}

	res, err := h.service.Optimize(c.UserContext(), records, opts)
	if err != nil {
		return perrors.HandleError(c, h.log, err)
	}
	return c.JSON(dto.OptimizeResponse{
		RunID:       res.RunID,
		Status:      res.Status,
		FailedCount: res.FailedCount,
		Channels:    mapper.ChannelsToDTO(res.Channels),
	})
}

func (h *OptimizeHandler) runOptions(req *dto.OptimizeRequestDTO) (usecases.RunOptions, bool, error) {
	opts := usecases.RunOptions{
		BinaryField: h.defaults.BinaryField,
		Formats:     h.defaults.Formats,
	}
	if req.BinaryField != "" {
		opts.BinaryField = req.BinaryField
	}
	if req.Formats != "" {
		opts.Formats = catalog.ParseFormats(req.Formats)
	}

	var err error
	if opts.ContinueOnFail, err = helper.ParseBool("continue_on_fail", req.ContinueOnFail, h.defaults.ContinueOnFail); err != nil {
		return opts, false, err
	}
	if opts.ChannelCount, err = helper.ParseInt("channel_count", req.ChannelCount, h.defaults.ChannelCount); err != nil {
		return opts, false, err
	}
	if opts.RouteByFormat, err = helper.ParseBool("route_by_format", req.RouteByFormat, h.defaults.RouteByFormat); err != nil {
		return opts, false, err
	}
	async, err := helper.ParseBool("async", req.Async, false)
	if err != nil {
		return opts, false, err
	}
	return opts, async, opts.Validate()
}

// readRecords turns each uploaded file into one record. Empty files produce a
// record without a binary.
func readRecords(headers []*multipart.FileHeader, field string) ([]entities.InputRecord, error) {
	records := make([]entities.InputRecord, 0, len(headers))
	for _, fh := range headers {
		data, err := readFormFile(fh)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("read %s: %v", fh.Filename, err))
		}
		record := entities.InputRecord{JSON: map[string]any{"fileName": fh.Filename}}
		if len(data) > 0 {
			mimeType := file.DetectMimeType(data)
			record.Binary = map[string]*entities.BinaryAttachment{
				field: {
					Data:          data,
					FileType:      helper.KindFromMime(mimeType),
					FileName:      fh.Filename,
					FileExtension: helper.Extension(fh.Filename),
					MimeType:      mimeType,
					FileSize:      int64(len(data)),
				},
			}
		}
		records = append(records, record)
	}
	return records, nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// enqueue stores the inputs so a worker can reach them by key, then queues
// the batch.
func (h *OptimizeHandler) enqueue(c *fiber.Ctx, records []entities.InputRecord, opts usecases.RunOptions) error {
	if h.jobs == nil {
		return perrors.HandleError(c, h.log, fiber.NewError(fiber.StatusServiceUnavailable, "async processing is not enabled"))
	}
	ctx := c.UserContext()

	for _, record := range records {
		att := record.Binary[opts.BinaryField]
		if att == nil {
			continue
		}
		stored, err := h.storage.WriteBinary(ctx, att.Data, att.FileName, att.MimeType)
		if err != nil {
			return perrors.HandleError(c, h.log, fmt.Errorf("store input: %w", err))
		}
		att.ID = stored.ID
		att.Data = nil
	}

	job := queue.BatchJob{
		ID:             uuid.NewString(),
		Records:        records,
		BinaryField:    opts.BinaryField,
		Formats:        opts.Formats,
		ContinueOnFail: opts.ContinueOnFail,
		ChannelCount:   opts.ChannelCount,
		RouteByFormat:  opts.RouteByFormat,
	}
	if err := h.jobs.Enqueue(ctx, job); err != nil {
		return perrors.HandleError(c, h.log, err)
	}
	h.log.Info("batch queued", zap.String("job_id", job.ID), zap.Int("records", len(records)))

	return c.Status(fiber.StatusAccepted).JSON(dto.JobAcceptedResponse{
		JobID:   job.ID,
		Status:  constants.StatusQueued,
		Records: len(records),
	})
}

// GetJob
//
// @Summary      Get async job result
// @Tags         Optimize
// @Produce      json
// @Param        id   path      string true "Job ID"
// @Success      200  {object}  dto.JobStatusResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /jobs/{id} [get]
func (h *OptimizeHandler) GetJob(c *fiber.Ctx) error {
	id := c.Params("id")
	if h.results == nil {
		return perrors.HandleError(c, h.log, fiber.NewError(fiber.StatusServiceUnavailable, "async processing is not enabled"))
	}
	res, ok := h.results.Get(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.JobStatusResponse{JobID: id, Status: constants.StatusQueued})
	}
	return c.JSON(dto.JobStatusResponse{
		JobID:       res.JobID,
		RunID:       res.RunID,
		Status:      res.Status,
		FailedCount: res.FailedCount,
		Error:       res.Error,
		ItemIndex:   res.ItemIndex,
		Channels:    mapper.ChannelsToDTO(res.Channels),
	})
}

// GetRun
//
// @Summary      Get a persisted run
// @Tags         Runs
// @Produce      json
// @Param        id   path      string true "Run ID"
// @Success      200  {object}  dto.RunDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /runs/{id} [get]
func (h *OptimizeHandler) GetRun(c *fiber.Ctx) error {
	run, err := h.service.GetRun(c.UserContext(), c.Params("id"))
	if errors.Is(err, repositories.ErrRunNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "not_found", Detail: err.Error()})
	}
	if err != nil {
		return perrors.HandleError(c, h.log, historyError(err))
	}
	return c.JSON(mapper.RunToDTO(run))
}

// ListRuns
//
// @Summary      List recent runs
// @Tags         Runs
// @Produce      json
// @Param        limit  query     int false "Maximum number of runs"
// @Success      200    {array}   dto.RunDTO
// @Failure      503    {object}  dto.ErrorResponse
// @Router       /runs [get]
func (h *OptimizeHandler) ListRuns(c *fiber.Ctx) error {
	limit, err := helper.ParseInt("limit", c.Query("limit"), 20)
	if err != nil {
		return perrors.HandleError(c, h.log, fiber.NewError(fiber.StatusBadRequest, err.Error()))
	}
	runs, err := h.service.ListRuns(c.UserContext(), limit)
	if err != nil {
		return perrors.HandleError(c, h.log, historyError(err))
	}
	out := make([]dto.RunDTO, 0, len(runs))
	for _, r := range runs {
		out = append(out, mapper.RunToDTO(r))
	}
	return c.JSON(out)
}

// GetBinary
//
// @Summary      Download a stored binary
// @Tags         Binary
// @Produce      octet-stream
// @Param        id   path      string true "Storage key"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /binary/{id} [get]
func (h *OptimizeHandler) GetBinary(c *fiber.Ctx) error {
	id := c.Params("id")
	data, err := h.service.GetBinary(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "not_found", Detail: err.Error()})
	}
	c.Set(fiber.HeaderContentType, file.DetectMimeType(data))
	return c.Send(data)
}

// Formats
//
// @Summary      List supported output formats
// @Tags         Optimize
// @Produce      json
// @Success      200  {array}  dto.FormatDTO
// @Router       /formats [get]
func (h *OptimizeHandler) Formats(c *fiber.Ctx) error {
	specs := h.service.Formats()
	out := make([]dto.FormatDTO, 0, len(specs))
	for _, s := range specs {
		out = append(out, mapper.FormatToDTO(s))
	}
	return c.JSON(out)
}

// historyError reports a missing run store as 503; anything else passes
// through unchanged.
func historyError(err error) error {
	if errors.Is(err, usecases.ErrHistoryDisabled) {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return err
}
