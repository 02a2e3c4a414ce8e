package figure

import (
	"math"

	"github.com/figure-editor/backend/internal/models"
)

// paperDPI is the resolution of paper coordinates.
const paperDPI = 72

// pageSizesMM holds width and height in millimetres of the named sizes.
var pageSizesMM = map[string][2]float64{
	models.PageA4:     {210, 297},
	models.PageA3:     {297, 420},
	models.PageA2:     {420, 594},
	models.PageA1:     {594, 841},
	models.PageA0:     {841, 1189},
	models.PageLetter: {216, 280},
}

// PaperSpec describes a requested paper setup. WidthMM and HeightMM are used
// for page size "mm", Width and Height (pixels) for "pixels".
type PaperSpec struct {
	PageSize    string  `json:"page_size"`
	Orientation string  `json:"orientation"`
	WidthMM     float64 `json:"width_mm,omitempty"`
	HeightMM    float64 `json:"height_mm,omitempty"`
	Width       float64 `json:"width,omitempty"`
	Height      float64 `json:"height,omitempty"`
}

// mmToPixels converts millimetres to 72 dpi paper pixels.
func mmToPixels(mm float64) float64 {
	return jsRound(paperDPI * mm / 25.4)
}

// resolve returns the paper settings described by spec. Horizontal
// orientation swaps the named sizes; "mm" sizes are taken as given.
func (spec PaperSpec) resolve() (Settings, error) {
	var s Settings
	orientation := spec.Orientation
	if orientation == "" {
		orientation = models.OrientationVertical
	}
	if orientation != models.OrientationVertical && orientation != models.OrientationHorizontal {
		return s, &ValidationError{Field: "orientation", Value: spec.Orientation, Reason: "must be vertical or horizontal"}
	}

	var wMM, hMM, wPx, hPx float64
	switch spec.PageSize {
	case models.PageMM:
		wMM, hMM = spec.WidthMM, spec.HeightMM
		wPx, hPx = mmToPixels(wMM), mmToPixels(hMM)
	case models.PagePixels:
		wPx, hPx = spec.Width, spec.Height
		wMM, hMM = jsRound(wPx*25.4/paperDPI), jsRound(hPx*25.4/paperDPI)
	default:
		size, ok := pageSizesMM[spec.PageSize]
		if !ok {
			return s, &ValidationError{Field: "page_size", Value: spec.PageSize, Reason: "unknown page size"}
		}
		wMM, hMM = size[0], size[1]
		wPx, hPx = mmToPixels(wMM), mmToPixels(hMM)
	}
	if wPx <= 0 || hPx <= 0 {
		return s, &ValidationError{Field: "paper_width", Value: wPx, Reason: "paper size must be positive"}
	}
	if orientation == models.OrientationHorizontal && spec.PageSize != models.PageMM {
		wMM, hMM = hMM, wMM
		wPx, hPx = hPx, wPx
	}

	s.PageSize = spec.PageSize
	s.Orientation = orientation
	s.WidthMM, s.HeightMM = wMM, hMM
	s.PaperWidth, s.PaperHeight = wPx, hPx
	return s, nil
}

// SetPaper changes the paper size and orientation.
func (f *Figure) SetPaper(spec PaperSpec) error {
	s, err := spec.resolve()
	if err != nil {
		return err
	}
	f.RestorePaper(s)
	return nil
}

// SetZoom sets the canvas zoom in percent. Zoom is a view setting and does
// not mark the figure unsaved.
func (f *Figure) SetZoom(zoom float64) error {
	if zoom <= 0 || math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		return &ValidationError{Field: "zoom", Value: zoom, Reason: "must be positive"}
	}
	f.updateSettings(func(s *Settings) { s.Zoom = zoom })
	return nil
}

// ZoomToFit sets the zoom that fits the paper into a viewport of the given
// size, less a margin, and returns it.
func (f *Figure) ZoomToFit(viewportW, viewportH float64) (float64, error) {
	s := f.settings
	fit := math.Min(viewportW/s.PaperWidth, viewportH/s.PaperHeight)
	zoom := math.Max(math.Trunc(fit*100)-5, 1)
	if err := f.SetZoom(zoom); err != nil {
		return 0, err
	}
	return zoom, nil
}
