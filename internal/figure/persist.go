package figure

import (
	"context"
	"fmt"

	"github.com/figure-editor/backend/internal/models"
	"github.com/google/uuid"
)

// Persistence loads and saves figure documents. Retries are the
// implementation's concern.
type Persistence interface {
	Load(ctx context.Context, id string) (*models.FigureDocument, error)
	Save(ctx context.Context, doc *models.FigureDocument) (string, error)
}

// Load replaces the figure with the stored document id.
func (f *Figure) Load(ctx context.Context, store Persistence, id string) error {
	doc, err := store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("loading figure %s: %w", id, err)
	}
	doc.FileID = id
	return f.FromDocument(doc)
}

// Save stores the figure and records the returned id. Panels without a
// persistence id get one first. A figure the user may not edit is saved as
// a new document.
func (f *Figure) Save(ctx context.Context, store Persistence) (string, error) {
	if err := f.AssignIDs(); err != nil {
		return "", err
	}
	doc := f.ToDocument()
	if !f.settings.CanEdit {
		doc.FileID = ""
	}
	id, err := store.Save(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("saving figure: %w", err)
	}
	f.updateSettings(func(s *Settings) {
		s.FileID = id
		s.CanEdit = true
		s.Unsaved = false
	})
	return id, nil
}

// AssignIDs gives every panel without a persistence id a new one. Id
// assignment neither marks the figure unsaved nor enters undo history.
func (f *Figure) AssignIDs() error {
	for _, p := range f.panels.items {
		if p.attrs.ID != "" {
			continue
		}
		if err := p.setID(uuid.NewString()); err != nil {
			return err
		}
	}
	return nil
}
