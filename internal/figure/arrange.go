package figure

import (
	"fmt"
	"math"

	"github.com/figure-editor/backend/internal/geometry"
	"github.com/figure-editor/backend/internal/models"
)

// AlignMode selects how Align lines up panels.
type AlignMode string

const (
	AlignLeft AlignMode = "left"
	AlignTop  AlignMode = "top"
	AlignGrid AlignMode = "grid"
)

// Axis is a paper axis.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// NudgeStep is the distance of one keyboard nudge.
const NudgeStep = 10

// Align lines up the selected panels.
func (f *Figure) Align(mode AlignMode) error {
	sel := f.Selected()
	if len(sel) == 0 {
		return nil
	}
	switch mode {
	case AlignLeft:
		minX := sel.Min(FieldX)
		return eachPanel(sel, func(p *Panel) error {
			return p.Update(func(a *models.PanelAttrs) { a.X = minX })
		})
	case AlignTop:
		minY := sel.Min(FieldY)
		return eachPanel(sel, func(p *Panel) error {
			return p.Update(func(a *models.PanelAttrs) { a.Y = minY })
		})
	case AlignGrid:
		return f.alignGrid(sel)
	}
	return &ValidationError{Field: "align", Value: mode, Reason: "unknown align mode"}
}

// alignGrid rebuilds a grid from roughly grid-like positions. Starting at the
// top-left panel it walks right to the panel whose centre lies within one
// panel width of the current right edge and inside the current row band,
// then wraps below the first panel of the row. Panels not reached keep
// their position. Output for non grid-like input is deterministic but not
// meaningful.
func (f *Figure) alignGrid(sel Panels) error {
	topLeft := sel.topLeft()
	visited := map[*Panel]bool{topLeft: true}

	var grid []Panels
	rowStart := topLeft
	for rowStart != nil {
		row := Panels{rowStart}
		cur := rowStart
		for {
			r := cur.Rect()
			next := nearest(sel, visited, func(c geometry.Point) bool {
				return c.X >= r.Right() && c.X <= r.Right()+r.Width &&
					c.Y >= r.Y && c.Y <= r.Bottom()
			}, AxisX)
			if next == nil {
				break
			}
			visited[next] = true
			row = append(row, next)
			cur = next
		}
		grid = append(grid, row)

		r := rowStart.Rect()
		rowStart = nearest(sel, visited, func(c geometry.Point) bool {
			return c.Y >= r.Bottom() && c.Y <= r.Bottom()+r.Height &&
				c.X >= r.X && c.X <= r.Right()
		}, AxisY)
		if rowStart != nil {
			visited[rowStart] = true
		}
	}

	spacer := topLeft.attrs.Width / 20
	x0, y := topLeft.attrs.X, topLeft.attrs.Y
	for _, row := range grid {
		x := x0
		rowHeight := 0.0
		for _, p := range row {
			nx, ny := x, y
			if err := p.Update(func(a *models.PanelAttrs) { a.X, a.Y = nx, ny }); err != nil {
				return err
			}
			rowHeight = math.Max(rowHeight, p.attrs.Height)
			x += p.attrs.Width + spacer
		}
		y += rowHeight + spacer
	}
	return nil
}

// nearest returns the unvisited panel whose centre satisfies in, preferring
// the smallest centre along axis and then z-order.
func nearest(ps Panels, visited map[*Panel]bool, in func(geometry.Point) bool, axis Axis) *Panel {
	var best *Panel
	bestV := math.Inf(1)
	for _, p := range ps {
		if visited[p] {
			continue
		}
		c := p.Center()
		if !in(c) {
			continue
		}
		v := c.X
		if axis == AxisY {
			v = c.Y
		}
		if v < bestV {
			best, bestV = p, v
		}
	}
	return best
}

// AlignSize copies the size of the top-left selected panel to the others.
// With only one of width and height matched the other dimension keeps each
// panel's aspect ratio.
func (f *Figure) AlignSize(matchWidth, matchHeight bool) error {
	sel := f.Selected()
	if len(sel) == 0 || (!matchWidth && !matchHeight) {
		return nil
	}
	ref := sel.topLeft()
	refW, refH := ref.attrs.Width, ref.attrs.Height
	return eachPanel(sel, func(p *Panel) error {
		return p.Update(func(a *models.PanelAttrs) {
			switch {
			case matchWidth && matchHeight:
				a.Width, a.Height = refW, refH
			case matchWidth:
				if a.Width != 0 {
					a.Height = refW / a.Width * a.Height
				}
				a.Width = refW
			default:
				if a.Height != 0 {
					a.Width = refH / a.Height * a.Width
				}
				a.Height = refH
			}
		})
	})
}

// Nudge shifts the selected panels along axis by delta.
func (f *Figure) Nudge(axis Axis, delta float64) error {
	if axis != AxisX && axis != AxisY {
		return &ValidationError{Field: "axis", Value: axis, Reason: "must be x or y"}
	}
	return eachPanel(f.Selected(), func(p *Panel) error {
		return p.Update(func(a *models.PanelAttrs) {
			if axis == AxisX {
				a.X += delta
			} else {
				a.Y += delta
			}
		})
	})
}

// DragAllSelected moves every selected panel by dx, dy and emits one
// DragMoved with the smallest resulting x and y. A zero delta does nothing.
func (f *Figure) DragAllSelected(dx, dy float64, commit bool) error {
	if dx == 0 && dy == 0 {
		return nil
	}
	minX, minY := math.Inf(1), math.Inf(1)
	for _, p := range f.Selected() {
		pos, _, err := p.DragMove(dx, dy, commit)
		if err != nil {
			return fmt.Errorf("dragging panel %d: %w", p.key, err)
		}
		minX = math.Min(minX, pos.X)
		minY = math.Min(minY, pos.Y)
	}
	f.DragMoved.Emit(DragEvent{Position: geometry.Point{X: minX, Y: minY}, Commit: commit})
	return nil
}

// MultiSelectDrag maps every selected panel through the transform taking box
// from onto box to.
func (f *Figure) MultiSelectDrag(from, to geometry.Rect, commit bool) error {
	return eachPanel(f.Selected(), func(p *Panel) error {
		return p.MultiSelectDrag(from, to, commit)
	})
}

func eachPanel(ps Panels, fn func(p *Panel) error) error {
	for _, p := range ps {
		if err := fn(p); err != nil {
			return fmt.Errorf("panel %d: %w", p.key, err)
		}
	}
	return nil
}
