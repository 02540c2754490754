package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"image-optimizer/internal/domain/entities"
	"image-optimizer/pkg/file"
)

type memoryObject struct {
	data      []byte
	createdAt time.Time
}

// MemoryStorage keeps binaries in process memory. Written attachments keep
// their bytes inline in Data as well, so hosts can use them directly.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string]memoryObject
	now  func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		data: make(map[string]memoryObject),
		now:  time.Now,
	}
}

func (m *MemoryStorage) ReadBinary(ctx context.Context, itemIndex int, field string, att *entities.BinaryAttachment) ([]byte, error) {
	return readBinary(ctx, m, itemIndex, field, att)
}

func (m *MemoryStorage) WriteBinary(ctx context.Context, data []byte, fileName, mimeType string) (*entities.BinaryAttachment, error) {
	key := file.MakeKey(fileName, mimeType)

	m.mu.Lock()
	m.data[key] = memoryObject{data: data, createdAt: m.now()}
	m.mu.Unlock()

	att := newAttachment(key, data, fileName, mimeType)
	att.Data = data
	return att, nil
}

func (m *MemoryStorage) Get(ctx context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("binary %s: %w", id, ErrNotFound)
	}
	return obj.data, nil
}

func (m *MemoryStorage) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[id]; !ok {
		return fmt.Errorf("binary %s: %w", id, ErrNotFound)
	}
	delete(m.data, id)
	return nil
}

func (m *MemoryStorage) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := m.now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, obj := range m.data {
		if obj.createdAt.Before(cutoff) {
			delete(m.data, id)
			removed++
		}
	}
	return removed, nil
}
