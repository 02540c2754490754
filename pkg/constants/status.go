package constants

const (
	StatusCompleted = "completed"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
	StatusQueued    = "queued"
	StatusOK        = "ok"
)

// Host parameter defaults.
const (
	DefaultBinaryField  = "data"
	DefaultFormats      = "png,jpeg"
	DefaultChannelCount = 1
)
