package figure

import (
	"fmt"
	"math"

	"github.com/figure-editor/backend/internal/geometry"
	"github.com/figure-editor/backend/internal/models"
	"github.com/figure-editor/backend/internal/signal"
)

// Change describes one committed attribute set on a panel. Prev and Next are
// immutable snapshots; Fields lists what differs between them. A selection
// change carries only FieldSelected and equal snapshots.
type Change struct {
	Panel  *Panel
	Fields []Field
	Prev   models.PanelAttrs
	Next   models.PanelAttrs
}

// Has reports whether f is among the changed fields.
func (c Change) Has(f Field) bool {
	for _, cf := range c.Fields {
		if cf == f {
			return true
		}
	}
	return false
}

// Preview is an uncommitted geometry shown during a drag.
type Preview struct {
	Panel *Panel
	Rect  geometry.Rect
}

// GeometryPatch holds optional new geometry values.
type GeometryPatch struct {
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

// Panel is one image placed on the figure.
//
// All attribute changes go through Update, which validates the result,
// stores it and emits exactly one Change. Panels are not safe for concurrent
// use.
type Panel struct {
	key      int64
	attrs    models.PanelAttrs
	selected bool

	Changed   signal.Signal[Change]
	Previewed signal.Signal[Preview]
}

func newPanel(key int64, attrs models.PanelAttrs) *Panel {
	return &Panel{key: key, attrs: attrs.Clone()}
}

// Key returns the session-local key of the panel. Keys are never reused
// within a figure and exist before the panel has a persistence id.
func (p *Panel) Key() int64 { return p.key }

// ID returns the persistence id, or "" for panels never saved.
func (p *Panel) ID() string { return p.attrs.ID }

// Attrs returns a copy of the current attributes.
func (p *Panel) Attrs() models.PanelAttrs { return p.attrs.Clone() }

// Selected reports the transient selection flag.
func (p *Panel) Selected() bool { return p.selected }

// Rect returns the panel rectangle in paper coordinates.
func (p *Panel) Rect() geometry.Rect {
	return geometry.NewRect(p.attrs.X, p.attrs.Y, p.attrs.Width, p.attrs.Height)
}

// Center returns the centre of the panel.
func (p *Panel) Center() geometry.Point {
	return p.Rect().Center()
}

// Overlaps reports whether the panel strictly overlaps r.
func (p *Panel) Overlaps(r geometry.Rect) bool {
	return p.Rect().Overlaps(r)
}

// Update applies fn to a copy of the attributes. If the result is valid and
// differs from the current state it is stored and one Change is emitted.
// On error nothing is applied.
func (p *Panel) Update(fn func(a *models.PanelAttrs)) error {
	next := p.attrs.Clone()
	fn(&next)
	if err := validate(&next); err != nil {
		return err
	}
	fields := diffFields(&p.attrs, &next)
	if len(fields) == 0 {
		return nil
	}
	prev := p.attrs
	p.attrs = next
	p.Changed.Emit(Change{Panel: p, Fields: fields, Prev: prev, Next: next})
	return nil
}

// RestoreFields sets the named fields back to their values in src.
func (p *Panel) RestoreFields(src models.PanelAttrs, fields []Field) error {
	return p.Update(func(a *models.PanelAttrs) {
		copyFields(a, &src, fields)
	})
}

func (p *Panel) setSelected(selected bool) bool {
	if p.selected == selected {
		return false
	}
	p.selected = selected
	p.Changed.Emit(Change{Panel: p, Fields: []Field{FieldSelected}, Prev: p.attrs, Next: p.attrs})
	return true
}

func (p *Panel) setID(id string) error {
	return p.Update(func(a *models.PanelAttrs) { a.ID = id })
}

// SetGeometry sets any of x, y, width and height.
func (p *Panel) SetGeometry(g GeometryPatch) error {
	return p.Update(func(a *models.PanelAttrs) {
		if g.X != nil {
			a.X = *g.X
		}
		if g.Y != nil {
			a.Y = *g.Y
		}
		if g.Width != nil {
			a.Width = *g.Width
		}
		if g.Height != nil {
			a.Height = *g.Height
		}
	})
}

// Rebind binds the panel to a different image. theT is clamped into the new
// range, a pan offset beyond half the new image is reset, and each new
// channel keeps the active state and colour of the old channel at the same
// index. The replacement is applied as one attribute set.
func (p *Panel) Rebind(img models.ImageData) error {
	return p.Update(func(a *models.PanelAttrs) {
		old := a.Channels

		a.ImageID = img.ImageID
		a.Name = img.Name
		a.SizeZ = img.SizeZ
		a.TheZ = img.TheZ
		a.SizeT = img.SizeT
		a.OrigWidth = img.Width
		a.OrigHeight = img.Height
		a.DatasetName = img.DatasetName
		a.DatasetID = img.DatasetID
		a.PixelSizeX = img.PixelSizeX
		a.PixelSizeY = img.PixelSizeY
		a.DeltaT = append([]float64{}, img.DeltaT...)

		if a.TheT >= a.SizeT {
			a.TheT = max(a.SizeT-1, 0)
		}
		if math.Abs(a.Dx) > img.Width/2 {
			a.Dx = 0
		}
		if math.Abs(a.Dy) > img.Height/2 {
			a.Dy = 0
		}
		if a.SizeZ > 0 {
			a.ZStart = clampPtr(a.ZStart, 0, a.SizeZ-1)
			a.ZEnd = clampPtr(a.ZEnd, 0, a.SizeZ-1)
		}
		if a.SizeZ <= 1 {
			a.ZProjection = false
		}

		channels := make([]models.Channel, len(img.Channels))
		for i, ch := range img.Channels {
			ch.Active = i < len(old) && old[i].Active
			if i < len(old) {
				ch.Color = old[i].Color
			}
			channels[i] = ch
		}
		a.Channels = channels
	})
}

// DragMove moves the panel by dx, dy. Without commit only a Preview is
// emitted. It returns the new position and false for a zero delta, which is
// a click rather than a drag.
func (p *Panel) DragMove(dx, dy float64, commit bool) (geometry.Point, bool, error) {
	if dx == 0 && dy == 0 {
		return geometry.Point{X: p.attrs.X, Y: p.attrs.Y}, false, nil
	}
	r := p.Rect().Translate(dx, dy)
	if err := p.DragResize(r, commit); err != nil {
		return geometry.Point{}, true, err
	}
	return geometry.Point{X: r.X, Y: r.Y}, true, nil
}

// DragResize sets the panel rectangle to r, or previews it without commit.
func (p *Panel) DragResize(r geometry.Rect, commit bool) error {
	if !commit {
		p.Previewed.Emit(Preview{Panel: p, Rect: r})
		return nil
	}
	return p.Update(func(a *models.PanelAttrs) {
		a.X, a.Y, a.Width, a.Height = r.X, r.Y, r.Width, r.Height
	})
}

// MultiSelectDrag maps the panel through the transform taking box from onto
// box to.
func (p *Panel) MultiSelectDrag(from, to geometry.Rect, commit bool) error {
	return p.DragResize(geometry.MapRect(p.Rect(), from, to), commit)
}

// defaultZHalfWidth is the half-width of a new z-projection range.
const defaultZHalfWidth = 2

// SetZProjection turns z-projection on or off. Turning it on needs sizeZ > 1
// and centres z_start..z_end on theZ, reusing the previous range width.
// Turning it off moves theZ to the middle of the range.
func (p *Panel) SetZProjection(enable bool) error {
	a := &p.attrs
	switch {
	case enable && !a.ZProjection && a.SizeZ > 1:
		half := defaultZHalfWidth
		if a.ZStart != nil && a.ZEnd != nil {
			half = int(jsRound(float64(*a.ZEnd-*a.ZStart) / 2))
		}
		start := max(a.TheZ-half, 0)
		end := min(a.TheZ+half, a.SizeZ-1)
		return p.Update(func(a *models.PanelAttrs) {
			a.ZProjection = true
			a.ZStart = models.IntPtr(start)
			a.ZEnd = models.IntPtr(end)
		})
	case !enable && a.ZProjection:
		return p.Update(func(a *models.PanelAttrs) {
			a.ZProjection = false
			if a.ZStart != nil && a.ZEnd != nil {
				a.TheZ = int(jsRound(float64(*a.ZStart+*a.ZEnd) / 2))
			}
		})
	}
	return nil
}

func validate(a *models.PanelAttrs) error {
	if a.TheT < 0 || (a.SizeT > 0 && a.TheT >= a.SizeT) {
		return &ValidationError{Field: FieldTheT, Value: a.TheT, Reason: fmt.Sprintf("must be in [0, %d)", a.SizeT)}
	}
	if a.TheZ < 0 || (a.SizeZ > 0 && a.TheZ >= a.SizeZ) {
		return &ValidationError{Field: FieldTheZ, Value: a.TheZ, Reason: fmt.Sprintf("must be in [0, %d)", a.SizeZ)}
	}
	for _, z := range []struct {
		field Field
		v     *int
	}{{FieldZStart, a.ZStart}, {FieldZEnd, a.ZEnd}} {
		if z.v == nil {
			continue
		}
		if *z.v < 0 || (a.SizeZ > 0 && *z.v >= a.SizeZ) {
			return &ValidationError{Field: z.field, Value: *z.v, Reason: fmt.Sprintf("must be in [0, %d)", a.SizeZ)}
		}
	}
	if a.Width < 0 || a.Height < 0 {
		return &ValidationError{Field: FieldWidth, Value: fmt.Sprintf("%vx%v", a.Width, a.Height), Reason: "size must not be negative"}
	}
	for _, l := range a.Labels {
		if !models.ValidPosition(l.Position) {
			return &ValidationError{Field: FieldLabels, Value: l.Position, Reason: "unknown label position"}
		}
	}
	return nil
}

// jsRound rounds half up, matching the rounding of stored documents.
func jsRound(v float64) float64 {
	return math.Floor(v + 0.5)
}

func clampPtr(p *int, lo, hi int) *int {
	if p == nil {
		return nil
	}
	return models.IntPtr(min(max(*p, lo), hi))
}
