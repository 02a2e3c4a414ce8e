package imagemeta

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/figure-editor/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML layout of an image catalog.
type catalogFile struct {
	Images []models.ImageData `yaml:"images"`
}

// CatalogProvider serves metadata from a static list of images.
type CatalogProvider struct {
	mu     sync.RWMutex
	images map[int64]models.ImageData
}

// NewCatalog creates a CatalogProvider holding images.
func NewCatalog(images []models.ImageData) *CatalogProvider {
	c := &CatalogProvider{images: make(map[int64]models.ImageData, len(images))}
	for _, img := range images {
		c.images[img.ImageID] = img
	}
	return c
}

// LoadCatalog reads a YAML catalog file.
func LoadCatalog(path string) (*CatalogProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return NewCatalog(f.Images), nil
}

// Add registers or replaces an image.
func (c *CatalogProvider) Add(img models.ImageData) {
	c.mu.Lock()
	c.images[img.ImageID] = img
	c.mu.Unlock()
}

// Lookup returns a copy of the catalog entry for imageID.
func (c *CatalogProvider) Lookup(_ context.Context, imageID int64) (*models.ImageData, error) {
	c.mu.RLock()
	img, ok := c.images[imageID]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, imageID)
	}
	img.Channels = append([]models.Channel{}, img.Channels...)
	img.DeltaT = append([]float64{}, img.DeltaT...)
	return &img, nil
}
