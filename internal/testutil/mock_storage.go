// mock_storage.go - In-memory figure store and image fixtures for testing
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/figure-editor/backend/internal/imagemeta"
	"github.com/figure-editor/backend/internal/models"
	"github.com/figure-editor/backend/internal/storage"
)

// MockStorage implements storage.Store in memory.
type MockStorage struct {
	figures map[string]*models.FigureInfo
	data    map[string][]byte
	mu      sync.RWMutex

	// SaveErr, when set, is returned by every Save.
	SaveErr error
	// Saves counts successful Save calls.
	Saves int
}

// NewMockStorage creates an empty mock store.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		figures: make(map[string]*models.FigureInfo),
		data:    make(map[string][]byte),
	}
}

func (m *MockStorage) Save(_ context.Context, id, name string, data []byte) (*models.FigureInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	if id == "" {
		id = generateTestID()
	}
	now := time.Now()
	info, ok := m.figures[id]
	if !ok {
		info = &models.FigureInfo{ID: id, CreatedAt: now}
		m.figures[id] = info
	}
	info.Name = name
	info.Size = int64(len(data))
	info.UpdatedAt = now
	m.data[id] = append([]byte(nil), data...)
	m.Saves++

	out := *info
	return &out, nil
}

func (m *MockStorage) Load(_ context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return append([]byte(nil), data...), nil
}

func (m *MockStorage) Get(_ context.Context, id string) (*models.FigureInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.figures[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	out := *info
	return &out, nil
}

func (m *MockStorage) List(_ context.Context, limit int) ([]*models.FigureInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*models.FigureInfo, 0, len(m.figures))
	for _, info := range m.figures {
		out := *info
		list = append(list, &out)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].UpdatedAt.Equal(list[j].UpdatedAt) {
			return list[i].UpdatedAt.After(list[j].UpdatedAt)
		}
		return list[i].ID < list[j].ID
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *MockStorage) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.figures[id]; !exists {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	delete(m.figures, id)
	delete(m.data, id)
	return nil
}

func (m *MockStorage) Close() error { return nil }

// Ensure MockStorage implements storage.Store
var _ storage.Store = (*MockStorage)(nil)

// Test Helper Methods

// AddFigure stores raw document data under id.
func (m *MockStorage) AddFigure(id, name string, data []byte) *models.FigureInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	info := &models.FigureInfo{ID: id, Name: name, Size: int64(len(data)), CreatedAt: now, UpdatedAt: now}
	m.figures[id] = info
	m.data[id] = data
	return info
}

// GetFigureData returns the stored bytes of a figure.
func (m *MockStorage) GetFigureData(id string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[id]
	return data, ok
}

// GetFigureCount returns the number of stored figures
func (m *MockStorage) GetFigureCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.figures)
}

// Image returns single-channel image metadata of the given size.
func Image(id int64, width, height float64) models.ImageData {
	return models.ImageData{
		ImageID: id,
		Name:    fmt.Sprintf("image-%d", id),
		Width:   width,
		Height:  height,
		SizeZ:   1,
		SizeT:   1,
		Channels: []models.Channel{
			{Label: "DAPI", Color: "0000FF", Active: true, Window: models.ChannelWindow{Min: 0, Max: 255, Start: 0, End: 255}},
		},
	}
}

// NewImages returns a catalog provider holding the given images.
func NewImages(images ...models.ImageData) *imagemeta.CatalogProvider {
	return imagemeta.NewCatalog(images)
}

// generateTestID generates a simple test ID
var testIDCounter int
var testIDMutex sync.Mutex

func generateTestID() string {
	testIDMutex.Lock()
	defer testIDMutex.Unlock()
	testIDCounter++
	return fmt.Sprintf("test-id-%d", testIDCounter)
}
