package figure

import (
	"math"

	"github.com/figure-editor/backend/internal/geometry"
	"github.com/figure-editor/backend/internal/imagemeta"
	"github.com/figure-editor/backend/internal/models"
)

// Clipboard holds copied panel attributes. Each Paste shifts the held
// panels, so repeated pastes cascade.
type Clipboard struct {
	Panels []models.PanelAttrs `json:"panels"`
}

// Copy returns the attributes of the selected panels without their ids.
func (f *Figure) Copy() *Clipboard {
	sel := f.Selected()
	c := &Clipboard{Panels: make([]models.PanelAttrs, 0, len(sel))}
	for _, p := range sel {
		a := p.Attrs()
		a.ID = ""
		c.Panels = append(c.Panels, a)
	}
	return c
}

// Paste adds the clipboard panels as new, selected panels. A wide group is
// pasted below the original, a tall one to its right.
func (f *Figure) Paste(c *Clipboard) (Panels, error) {
	if c == nil || len(c.Panels) == 0 {
		return nil, nil
	}
	for i := range c.Panels {
		a := normalize(c.Panels[i])
		if err := validate(&a); err != nil {
			return nil, err
		}
	}

	rects := make([]geometry.Rect, len(c.Panels))
	for i, a := range c.Panels {
		rects[i] = geometry.NewRect(a.X, a.Y, a.Width, a.Height)
	}
	box, _ := geometry.Bounds(rects)
	var offX, offY float64
	if box.Width > box.Height {
		offY = box.Height + box.Height/20
	} else {
		offX = box.Width + box.Width/20
	}

	f.clearSelected()
	pasted := make(Panels, 0, len(c.Panels))
	for i := range c.Panels {
		c.Panels[i].X += offX
		c.Panels[i].Y += offY
		p, err := f.AddPanel(c.Panels[i])
		if err != nil {
			return pasted, err
		}
		p.setSelected(true)
		pasted = append(pasted, p)
	}
	f.NotifySelectionChange()
	return pasted, nil
}

// AddImage creates a selected panel for img covering r. An empty r places a
// panel at the image's own size, scaled down to fit the paper.
func (f *Figure) AddImage(img *models.ImageData, r geometry.Rect) (*Panel, error) {
	if r.IsEmpty() {
		ps, err := f.AddImages([]*models.ImageData{img}, 1)
		if err != nil {
			return nil, err
		}
		return ps[0], nil
	}
	if err := imagemeta.CheckSize(img, f.opts.MaxImagePixels); err != nil {
		return nil, err
	}
	p, err := f.AddPanel(attrsFromImage(img, r))
	if err != nil {
		return nil, err
	}
	f.clearSelected()
	p.setSelected(true)
	f.NotifySelectionChange()
	return p, nil
}

// AddImages lays out images in a grid of cols columns, centred on the paper
// and scaled down so a row fits the paper width. Every image is checked
// against the size ceiling before any panel is created. The new panels
// become the selection.
func (f *Figure) AddImages(imgs []*models.ImageData, cols int) (Panels, error) {
	if len(imgs) == 0 {
		return nil, nil
	}
	for _, img := range imgs {
		if err := imagemeta.CheckSize(img, f.opts.MaxImagePixels); err != nil {
			return nil, err
		}
	}
	cols = min(max(cols, 1), len(imgs))
	rows := (len(imgs) + cols - 1) / cols

	first := imgs[0]
	spacer := first.Width / 20
	fullW := float64(cols)*(first.Width+spacer) - spacer
	fullH := float64(rows)*(first.Height+spacer) - spacer
	scale := math.Min((f.settings.PaperWidth-2*spacer)/fullW, 1)
	if scale <= 0 {
		scale = 1
	}
	x0 := f.settings.PaperWidth/2 - fullW*scale/2
	y := f.settings.PaperHeight/2 - fullH*scale/2

	attrs := make([]models.PanelAttrs, len(imgs))
	x := x0
	for i, img := range imgs {
		attrs[i] = normalize(attrsFromImage(img, geometry.NewRect(x, y, img.Width*scale, img.Height*scale)))
		if err := validate(&attrs[i]); err != nil {
			return nil, err
		}
		x += (img.Width + spacer) * scale
		if (i+1)%cols == 0 {
			x = x0
			y += (img.Height + spacer) * scale
		}
	}

	f.clearSelected()
	added := make(Panels, 0, len(imgs))
	for _, a := range attrs {
		p, err := f.AddPanel(a)
		if err != nil {
			return added, err
		}
		p.setSelected(true)
		added = append(added, p)
	}
	f.NotifySelectionChange()
	return added, nil
}

func attrsFromImage(img *models.ImageData, r geometry.Rect) models.PanelAttrs {
	a := models.DefaultPanelAttrs()
	a.X, a.Y, a.Width, a.Height = r.X, r.Y, r.Width, r.Height
	a.ImageID = img.ImageID
	a.Name = img.Name
	a.BaseURL = img.BaseURL
	a.OrigWidth = img.Width
	a.OrigHeight = img.Height
	a.SizeZ = img.SizeZ
	a.TheZ = img.TheZ
	a.SizeT = img.SizeT
	a.TheT = img.TheT
	a.DatasetName = img.DatasetName
	a.DatasetID = img.DatasetID
	a.PixelSizeX = img.PixelSizeX
	a.PixelSizeY = img.PixelSizeY
	a.DeltaT = append([]float64{}, img.DeltaT...)
	a.Channels = append([]models.Channel{}, img.Channels...)
	return a
}

// RebindSelected binds every selected panel to img.
func (f *Figure) RebindSelected(img *models.ImageData) error {
	if err := imagemeta.CheckSize(img, f.opts.MaxImagePixels); err != nil {
		return err
	}
	sel := f.Selected()
	if len(sel) == 0 {
		return ErrNoSelection
	}
	return eachPanel(sel, func(p *Panel) error { return p.Rebind(*img) })
}
