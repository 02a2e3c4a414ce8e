// Package imagemeta looks up image metadata for panel creation and rebinding.
package imagemeta

import (
	"context"
	"errors"
	"fmt"

	"github.com/figure-editor/backend/internal/models"
)

// DefaultMaxPixels is the largest image area (width*height) accepted.
const DefaultMaxPixels = 10000 * 10000

var (
	ErrNotFound      = errors.New("image not found")
	ErrMalformed     = errors.New("malformed image metadata")
	ErrImageTooLarge = errors.New("image too large")
)

// Provider returns the metadata of an image.
type Provider interface {
	Lookup(ctx context.Context, imageID int64) (*models.ImageData, error)
}

// CheckSize rejects metadata that is incomplete or whose pixel area exceeds
// maxPixels. A non-positive maxPixels means DefaultMaxPixels.
func CheckSize(img *models.ImageData, maxPixels float64) error {
	if img == nil {
		return fmt.Errorf("%w: no data", ErrMalformed)
	}
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("%w: image %d has size %vx%v", ErrMalformed, img.ImageID, img.Width, img.Height)
	}
	if img.SizeZ < 0 || img.SizeT < 0 {
		return fmt.Errorf("%w: image %d has negative sizeZ/sizeT", ErrMalformed, img.ImageID)
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if img.Width*img.Height > maxPixels {
		return fmt.Errorf("%w: image '%s' is %vx%v", ErrImageTooLarge, img.Name, img.Width, img.Height)
	}
	return nil
}
