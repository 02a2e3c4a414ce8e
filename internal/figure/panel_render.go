package figure

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/figure-editor/backend/internal/geometry"
	"github.com/figure-editor/backend/internal/models"
)

// ImageURL returns the render URL of the panel's current view. defaultBase
// is used when the panel has no base URL of its own.
func (p *Panel) ImageURL(defaultBase string) string {
	a := &p.attrs
	var channels []string
	for i, c := range a.Channels {
		if c.Active {
			channels = append(channels, fmt.Sprintf("%d|%s:%s$%s",
				i+1, formatNumber(c.Window.Start), formatNumber(c.Window.End), c.Color))
		}
	}

	var proj string
	if a.ZProjection {
		start, end := a.TheZ, a.TheZ
		if a.ZStart != nil {
			start = *a.ZStart
		}
		if a.ZEnd != nil {
			end = *a.ZEnd
		}
		proj = fmt.Sprintf("&p=intmax|%d:%d", start, end)
	}

	base := a.BaseURL
	if base == "" {
		base = defaultBase
	}
	base = strings.TrimSuffix(base, "/")

	return fmt.Sprintf("%s/render_image/%d/%d/%d/?c=%s%s&m=c",
		base, a.ImageID, a.TheZ, a.TheT, strings.Join(channels, ","), proj)
}

// ViewportLayout returns where the image sits inside a frameW x frameH frame
// at the given zoom. A nil pan uses the panel's own dx, dy.
func (p *Panel) ViewportLayout(zoom, frameW, frameH float64, pan *geometry.Point) geometry.ImageLayout {
	dx, dy := p.attrs.Dx, p.attrs.Dy
	if pan != nil {
		dx, dy = pan.X, pan.Y
	}
	return geometry.ViewportImageLayout(p.attrs.OrigWidth, p.attrs.OrigHeight,
		zoom, frameW, frameH, dx, dy, p.attrs.Rotation)
}

// DPI estimates the print resolution of the panel on 72 dpi paper. Zero
// arguments default to the panel's own size and zoom.
func (p *Panel) DPI(w, h, zoom float64) float64 {
	if w == 0 {
		w = p.attrs.Width
	}
	if h == 0 {
		h = p.attrs.Height
	}
	if zoom == 0 {
		zoom = p.attrs.Zoom
	}
	imgW := p.ViewportLayout(zoom, w, h, nil).Width
	if imgW == 0 {
		return 0
	}
	return math.Round(p.attrs.OrigWidth / imgW * 72)
}

// DeltaT returns the elapsed seconds of the current timepoint.
func (p *Panel) DeltaT() float64 {
	if p.attrs.TheT >= 0 && p.attrs.TheT < len(p.attrs.DeltaT) {
		return p.attrs.DeltaT[p.attrs.TheT]
	}
	return 0
}

// TimeLabelText formats the current delta-T in one of the time formats.
// Unknown formats give "".
func (p *Panel) TimeLabelText(format string) string {
	dt := p.DeltaT()
	switch format {
	case models.TimeSecs:
		return formatNumber(dt) + " secs"
	case models.TimeMins:
		return formatNumber(jsRound(dt/60)) + " mins"
	case models.TimeHrsMins:
		h := math.Trunc(dt / 3600)
		m := jsRound(math.Mod(dt, 3600) / 60)
		return formatNumber(h) + ":" + pad(m)
	case models.TimeHrsMinsSecs:
		h := math.Trunc(dt / 3600)
		m := math.Trunc(math.Mod(dt, 3600) / 60)
		return formatNumber(h) + ":" + pad(m) + ":" + pad(math.Mod(dt, 60))
	}
	return ""
}

func pad(v float64) string {
	s := formatNumber(v)
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
