package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"image-optimizer/internal/domain/entities"
	"image-optimizer/internal/usecases"
	"image-optimizer/pkg/constants"
	perrors "image-optimizer/pkg/errors"
)

const (
	JobQueueKey    = "optimize_queue"
	ResultQueueKey = "optimize_results"
)

// BatchJob is one optimize run handed to a worker. Attachments must reference
// binaries by storage key; inline bytes are not serialized.
type BatchJob struct {
	ID             string                 `json:"id"`
	Records        []entities.InputRecord `json:"records"`
	BinaryField    string                 `json:"binaryField"`
	Formats        []string               `json:"formats"`
	ContinueOnFail bool                   `json:"continueOnFail"`
	ChannelCount   int                    `json:"channelCount"`
	RouteByFormat  bool                   `json:"routeByFormat"`
	EnqueuedAt     time.Time              `json:"enqueuedAt"`
}

func (j BatchJob) RunOptions() usecases.RunOptions {
	return usecases.RunOptions{
		BinaryField:    j.BinaryField,
		Formats:        j.Formats,
		ContinueOnFail: j.ContinueOnFail,
		ChannelCount:   j.ChannelCount,
		RouteByFormat:  j.RouteByFormat,
	}
}

type BatchResult struct {
	JobID       string                    `json:"jobId"`
	RunID       string                    `json:"runId,omitempty"`
	Status      string                    `json:"status"`
	FailedCount int                       `json:"failedCount"`
	Channels    entities.OutputChannelSet `json:"channels,omitempty"`
	Error       string                    `json:"error,omitempty"`
	ErrorCode   string                    `json:"errorCode,omitempty"`
	ItemIndex   *int                      `json:"itemIndex,omitempty"`
	WorkerID    int                       `json:"workerId"`
	FinishedAt  time.Time                 `json:"finishedAt"`
}

func newBatchResult(job BatchJob, res *usecases.OptimizeResult, err error) BatchResult {
	out := BatchResult{JobID: job.ID, FinishedAt: time.Now()}
	if res != nil {
		out.RunID = res.RunID
		out.Status = res.Status
		out.FailedCount = res.FailedCount
		out.Channels = res.Channels
	}
	if err != nil {
		out.Error = err.Error()
		out.ErrorCode = perrors.CodeOf(err)
		var ie *perrors.ItemError
		if errors.As(err, &ie) {
			index := ie.Index
			out.ItemIndex = &index
		}
		if out.Status == "" {
			out.Status = constants.StatusFailed
		}
	}
	return out
}

func DeserializeJob(data string) (*BatchJob, error) {
	var job BatchJob
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to deserialize job: %w", err)
	}
	return &job, nil
}

func SerializeJob(job BatchJob) (string, error) {
	bytes, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to serialize job: %w", err)
	}
	return string(bytes), nil
}

func DeserializeResult(data string) (*BatchResult, error) {
	var res BatchResult
	if err := json.Unmarshal([]byte(data), &res); err != nil {
		return nil, fmt.Errorf("failed to deserialize result: %w", err)
	}
	return &res, nil
}
