package geometry

import "math"

// ImageLayout is the box an image occupies inside a panel frame, in frame
// pixels, plus the rotation origin expressed as percentages of the image box.
type ImageLayout struct {
	Left     float64 `json:"left"`
	Top      float64 `json:"top"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	OriginX  float64 `json:"originX"`
	OriginY  float64 `json:"originY"`
	Rotation float64 `json:"rotation"`
}

// aspectTolerance treats near-identical aspect ratios as equal.
const aspectTolerance = 0.01

// ViewportImageLayout fits an image of origW x origH into a frameW x frameH
// frame at the given zoom (percent), panned by dx, dy image pixels.
// The image always covers the frame: the larger scale factor wins and the
// image is centered before the pan is applied. A degenerate frame or image
// gives an empty layout.
func ViewportImageLayout(origW, origH, zoom, frameW, frameH, dx, dy, rotation float64) ImageLayout {
	if origW <= 0 || origH <= 0 || frameW <= 0 || frameH <= 0 {
		return ImageLayout{OriginX: 50, OriginY: 50, Rotation: rotation}
	}
	if zoom == 0 {
		zoom = 100
	}
	zf := zoom / 100

	imgW := frameW * zf
	imgH := frameH * zf
	origRatio := origW / origH
	frameRatio := frameW / frameH
	switch {
	case math.Abs(origRatio-frameRatio) < aspectTolerance:
	case origRatio < frameRatio:
		// frame is wider than the image: image overflows vertically
		imgH = imgW / origRatio
	default:
		imgW = imgH * origRatio
	}

	scale := math.Max(frameW/origW, frameH/origH)

	left := (dx*zf)*scale - (imgW-frameW)/2
	top := (dy*zf)*scale - (imgH-frameH)/2

	return ImageLayout{
		Left:     left,
		Top:      top,
		Width:    imgW,
		Height:   imgH,
		OriginX:  100 * (frameW/2 - left) / imgW,
		OriginY:  100 * (frameH/2 - top) / imgH,
		Rotation: rotation,
	}
}
