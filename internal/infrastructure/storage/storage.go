// Package storage implements repositories.BinaryStorage on top of process
// memory, a local directory and S3.
package storage

import (
	"context"
	"fmt"

	"image-optimizer/internal/domain/entities"
	"image-optimizer/pkg/file"
)

type getter interface {
	Get(ctx context.Context, id string) ([]byte, error)
}

// readBinary resolves attachment bytes: inline data first, then the backend.
func readBinary(ctx context.Context, g getter, itemIndex int, field string, att *entities.BinaryAttachment) ([]byte, error) {
	if att == nil {
		return nil, fmt.Errorf("item %d has no binary field %q", itemIndex, field)
	}
	if att.Data != nil {
		return att.Data, nil
	}
	if att.ID == "" {
		return nil, fmt.Errorf("item %d binary field %q has neither data nor id", itemIndex, field)
	}
	data, err := g.Get(ctx, att.ID)
	if err != nil {
		return nil, fmt.Errorf("item %d binary field %q: %w", itemIndex, field, err)
	}
	return data, nil
}

func newAttachment(id string, data []byte, fileName, mimeType string) *entities.BinaryAttachment {
	att := &entities.BinaryAttachment{
		ID:       id,
		FileType: entities.KindImage,
		FileName: fileName,
		MimeType: mimeType,
		FileSize: int64(len(data)),
	}
	if ext := file.ExtensionFor(mimeType); ext != "" {
		att.FileExtension = ext[1:]
	}
	return att
}
