package dto

import "time"

// OptimizeRequestDTO carries the form parameters of POST /optimize. Empty
// values fall back to the server defaults.
type OptimizeRequestDTO struct {
	BinaryField    string `json:"binary_field" form:"binary_field"`
	Formats        string `json:"formats" form:"formats"` // comma separated
	ContinueOnFail string `json:"continue_on_fail" form:"continue_on_fail"`
	ChannelCount   string `json:"channel_count" form:"channel_count"`
	RouteByFormat  string `json:"route_by_format" form:"route_by_format"`
	Async          string `json:"async" form:"async"`
}

type BinaryDTO struct {
	ID            string `json:"id,omitempty"`
	FileName      string `json:"fileName,omitempty"`
	FileExtension string `json:"fileExtension,omitempty"`
	MimeType      string `json:"mimeType"`
	FileSize      int64  `json:"fileSize"`
	URL           string `json:"url,omitempty"`
}

type OutputRecordDTO struct {
	PairedItem int                  `json:"pairedItem"`
	JSON       map[string]any       `json:"json"`
	Binary     map[string]BinaryDTO `json:"binary,omitempty"`
}

type OptimizeResponse struct {
	RunID       string              `json:"runId,omitempty"`
	Status      string              `json:"status"`
	FailedCount int                 `json:"failedCount"`
	Channels    [][]OutputRecordDTO `json:"channels"`
}

type JobAcceptedResponse struct {
	JobID   string `json:"jobId"`
	Status  string `json:"status"`
	Records int    `json:"records"`
}

type JobStatusResponse struct {
	JobID       string              `json:"jobId"`
	RunID       string              `json:"runId,omitempty"`
	Status      string              `json:"status"`
	FailedCount int                 `json:"failedCount"`
	Error       string              `json:"error,omitempty"`
	ItemIndex   *int                `json:"itemIndex,omitempty"`
	Channels    [][]OutputRecordDTO `json:"channels,omitempty"`
}

type RunOutputDTO struct {
	PairedItem int    `json:"pairedItem"`
	Channel    int    `json:"channel"`
	Format     string `json:"format,omitempty"`
	FileName   string `json:"fileName,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`
	URL        string `json:"url,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Size       int64  `json:"size,omitempty"`
	Error      string `json:"error,omitempty"`
}

type RunDTO struct {
	ID          string         `json:"id"`
	Status      string         `json:"status"`
	Formats     string         `json:"formats"`
	ItemCount   int            `json:"itemCount"`
	FailedCount int            `json:"failedCount"`
	Error       string         `json:"error,omitempty"`
	Outputs     []RunOutputDTO `json:"outputs,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type FormatDTO struct {
	ID        string         `json:"id"`
	MimeType  string         `json:"mimeType"`
	Extension string         `json:"extension"`
	Options   map[string]any `json:"options"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
}
