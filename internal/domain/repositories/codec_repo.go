package repositories

import (
	"context"
	"image"

	"image-optimizer/internal/domain/entities"
)

// Codec decodes raw bytes into an in-memory image and encodes that image into
// a catalog format. Encode must treat img as read-only: a single decoded image
// is shared by concurrent encodes.
type Codec interface {
	Decode(ctx context.Context, data []byte) (image.Image, error)
	Encode(ctx context.Context, img image.Image, spec entities.FormatSpec) ([]byte, entities.ImageInfo, error)
}
