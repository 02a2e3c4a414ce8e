package storage

import (
	"context"
	"fmt"

	"github.com/figure-editor/backend/internal/document"
	"github.com/figure-editor/backend/internal/models"
)

// Documents stores figure documents in a Store. Loading runs the document
// upgrade chain, so callers always see the current format.
type Documents struct {
	Store Store
}

// Load reads and decodes the figure with the given id.
func (d Documents) Load(ctx context.Context, id string) (*models.FigureDocument, error) {
	data, err := d.Store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := document.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding figure %s: %w", id, err)
	}
	return doc, nil
}

// Save encodes doc and stores it under doc.FileID, or under a new id when
// FileID is empty. It returns the id used.
func (d Documents) Save(ctx context.Context, doc *models.FigureDocument) (string, error) {
	data, err := document.Encode(doc)
	if err != nil {
		return "", fmt.Errorf("encoding figure: %w", err)
	}
	info, err := d.Store.Save(ctx, doc.FileID, doc.FigureName, data)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// Delete removes the figure with the given id.
func (d Documents) Delete(ctx context.Context, id string) error {
	return d.Store.Delete(ctx, id)
}
