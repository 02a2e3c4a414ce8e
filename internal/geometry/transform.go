package geometry

import "math"

// Viewport describes how the paper is placed inside the virtual canvas and how
// far the canvas is zoomed. Overlay coordinates are canvas pixels after zoom;
// model coordinates are paper units.
type Viewport struct {
	Zoom         float64 // percent, 100 = no zoom
	CanvasWidth  float64
	CanvasHeight float64
	PaperWidth   float64
	PaperHeight  float64
}

// borderOffset accounts for the 1px paper border drawn by the overlay.
const borderOffset = 1

// Fraction returns the zoom as a scale factor.
func (v Viewport) Fraction() float64 {
	if v.Zoom <= 0 {
		return 1
	}
	return v.Zoom * 0.01
}

// PaperOffset returns the top-left of the paper within the canvas, unzoomed.
func (v Viewport) PaperOffset() Point {
	return Point{
		X: (v.CanvasWidth - v.PaperWidth) / 2,
		Y: (v.CanvasHeight - v.PaperHeight) / 2,
	}
}

// ToOverlay converts a model rectangle to overlay pixels.
func (v Viewport) ToOverlay(r Rect) Rect {
	z := v.Fraction()
	off := v.PaperOffset()
	return Rect{
		X:      (off.X + borderOffset + r.X) * z,
		Y:      (off.Y + borderOffset + r.Y) * z,
		Width:  r.Width * z,
		Height: r.Height * z,
	}
}

// ToModel converts overlay pixels back to model coordinates, truncating each
// component toward zero.
func (v Viewport) ToModel(r Rect) Rect {
	z := v.Fraction()
	off := v.PaperOffset()
	return Rect{
		X:      math.Trunc(r.X/z - off.X - borderOffset),
		Y:      math.Trunc(r.Y/z - off.Y - borderOffset),
		Width:  math.Trunc(r.Width / z),
		Height: math.Trunc(r.Height / z),
	}
}

// ToModelDelta converts an overlay drag delta into model units.
func (v Viewport) ToModelDelta(dx, dy float64) (float64, float64) {
	z := v.Fraction()
	return dx / z, dy / z
}

// CanvasToPaper converts a point in zoomed canvas pixels to paper coordinates,
// without the border offset. Used to find the paper point under the centre of
// the visible viewport.
func (v Viewport) CanvasToPaper(p Point) Point {
	z := v.Fraction()
	off := v.PaperOffset()
	return Point{X: p.X/z - off.X, Y: p.Y/z - off.Y}
}

// PaperToCanvas is the inverse of CanvasToPaper.
func (v Viewport) PaperToCanvas(p Point) Point {
	z := v.Fraction()
	off := v.PaperOffset()
	return Point{X: (p.X + off.X) * z, Y: (p.Y + off.Y) * z}
}
