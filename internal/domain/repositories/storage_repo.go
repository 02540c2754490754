package repositories

import (
	"context"
	"time"

	"image-optimizer/internal/domain/entities"
)

type BinaryStorage interface {
	// ReadBinary returns the bytes of the attachment stored under field of the
	// record at itemIndex. Inline Data is returned as is; otherwise the
	// attachment ID is resolved against the backend.
	ReadBinary(ctx context.Context, itemIndex int, field string, attachment *entities.BinaryAttachment) ([]byte, error)
	// WriteBinary persists data and returns an attachment describing it.
	// fileName may be empty.
	WriteBinary(ctx context.Context, data []byte, fileName, mimeType string) (*entities.BinaryAttachment, error)
	Get(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
	// Cleanup removes objects older than maxAge and reports how many went.
	Cleanup(ctx context.Context, maxAge time.Duration) (int, error)
}
