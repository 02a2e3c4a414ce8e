// Package geometry provides the rectangle types and pure coordinate transforms
// shared by the figure model and the selection overlay.
package geometry

import "math"

// Point is a 2D point in whatever space the caller is working in.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle given by its top-left corner and size.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewRect creates a new Rect.
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 {
	return r.X + r.Width
}

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 {
	return r.Y + r.Height
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Translate returns the rectangle moved by dx, dy.
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Overlaps reports whether two rectangles overlap on both axes.
// Edges that only touch do not count.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() &&
		r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Bounds returns the tight bounding box of the given rectangles.
// The second return value is false when rects is empty.
func Bounds(rects []Rect) (Rect, bool) {
	if len(rects) == 0 {
		return Rect{}, false
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, r := range rects {
		minX = math.Min(minX, r.X)
		minY = math.Min(minY, r.Y)
		maxX = math.Max(maxX, r.Right())
		maxY = math.Max(maxY, r.Bottom())
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}

// MapRect maps r through the linear transform that takes box from onto box to.
// Corners are mapped independently so width and height follow the far corner.
// A zero-sized source axis is translated instead of scaled.
func MapRect(r, from, to Rect) Rect {
	mapX := func(x float64) float64 {
		if from.Width == 0 {
			return x - from.X + to.X
		}
		return (x-from.X)/from.Width*to.Width + to.X
	}
	mapY := func(y float64) float64 {
		if from.Height == 0 {
			return y - from.Y + to.Y
		}
		return (y-from.Y)/from.Height*to.Height + to.Y
	}
	x := mapX(r.X)
	y := mapY(r.Y)
	return Rect{
		X:      x,
		Y:      y,
		Width:  mapX(r.Right()) - x,
		Height: mapY(r.Bottom()) - y,
	}
}
