package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"image-optimizer/internal/domain/entities"
	"image-optimizer/pkg/file"
)

// LocalStorage keeps binaries as flat files under BasePath.
type LocalStorage struct {
	BasePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStorage{BasePath: basePath}, nil
}

func (l *LocalStorage) path(id string) (string, error) {
	if !file.SafeKey(id) {
		return "", fmt.Errorf("invalid binary id %q", id)
	}
	return filepath.Join(l.BasePath, id), nil
}

func (l *LocalStorage) ReadBinary(ctx context.Context, itemIndex int, field string, att *entities.BinaryAttachment) ([]byte, error) {
	return readBinary(ctx, l, itemIndex, field, att)
}

func (l *LocalStorage) WriteBinary(ctx context.Context, data []byte, fileName, mimeType string) (*entities.BinaryAttachment, error) {
	key := file.MakeKey(fileName, mimeType)
	fullPath := filepath.Join(l.BasePath, key)

	// write to a temp name first so readers never see a partial file
	tmp := fullPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil, fmt.Errorf("write binary: %w", err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("rename binary: %w", err)
	}
	return newAttachment(key, data, fileName, mimeType), nil
}

func (l *LocalStorage) Get(ctx context.Context, id string) ([]byte, error) {
	p, err := l.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("binary %s: %w", id, ErrNotFound)
	}
	return data, err
}

func (l *LocalStorage) Delete(ctx context.Context, id string) error {
	p, err := l.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("binary %s: %w", id, ErrNotFound)
		}
		return err
	}
	return nil
}

func (l *LocalStorage) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(l.BasePath)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return removed, fmt.Errorf("stat binary: %w", err)
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(l.BasePath, entry.Name())); err != nil {
				return removed, fmt.Errorf("remove binary: %w", err)
			}
			removed++
		}
	}
	return removed, nil
}
