package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Label positions relative to a panel.
const (
	PositionTop         = "top"
	PositionBottom      = "bottom"
	PositionLeft        = "left"
	PositionRight       = "right"
	PositionLeftVert    = "leftvert"
	PositionTopLeft     = "topleft"
	PositionTopRight    = "topright"
	PositionBottomLeft  = "bottomleft"
	PositionBottomRight = "bottomright"
)

// ValidPosition reports whether p is a known label position.
func ValidPosition(p string) bool {
	switch p {
	case PositionTop, PositionBottom, PositionLeft, PositionRight, PositionLeftVert,
		PositionTopLeft, PositionTopRight, PositionBottomLeft, PositionBottomRight:
		return true
	}
	return false
}

// Time label formats.
const (
	TimeSecs        = "secs"
	TimeMins        = "mins"
	TimeHrsMins     = "hrs:mins"
	TimeHrsMinsSecs = "hrs:mins:secs"
)

// FontSize is a label font size. Older documents store it as a number,
// newer ones as a string; both decode.
type FontSize string

// UnmarshalJSON accepts a JSON string or number.
func (f *FontSize) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FontSize(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("font size: %w", err)
	}
	*f = FontSize(n.String())
	return nil
}

// Points returns the size as a number, or 0 if it is not numeric.
func (f FontSize) Points() float64 {
	v, err := strconv.ParseFloat(string(f), 64)
	if err != nil {
		return 0
	}
	return v
}

// ChannelWindow is the rendering intensity window of a channel.
type ChannelWindow struct {
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// Channel is one rendering channel. Its index is its position in the list.
type Channel struct {
	Active bool          `json:"active" yaml:"active"`
	Color  string        `json:"color" yaml:"color"`
	Label  string        `json:"label" yaml:"label"`
	Window ChannelWindow `json:"window" yaml:"window"`
}

// Label is a text or time label drawn around or inside a panel.
// Exactly one of Text and Time is set.
type Label struct {
	Text     string   `json:"text,omitempty"`
	Time     string   `json:"time,omitempty"`
	Size     FontSize `json:"size"`
	Color    string   `json:"color"`
	Position string   `json:"position"`
}

// Key identifies a label for editing: text_size_color_position.
func (l Label) Key() string {
	text := l.Text
	if l.Time != "" {
		text = "time-" + l.Time
	}
	return text + "_" + string(l.Size) + "_" + l.Color + "_" + l.Position
}

// ScaleBar is the optional scale bar of a panel.
type ScaleBar struct {
	Show      bool     `json:"show"`
	Length    float64  `json:"length"`
	Units     string   `json:"units,omitempty"`
	Color     string   `json:"color"`
	Position  string   `json:"position"`
	ShowLabel bool     `json:"show_label,omitempty"`
	FontSize  FontSize `json:"font_size,omitempty"`
}

// PanelAttrs is the persisted attribute set of one panel.
type PanelAttrs struct {
	ID string `json:"id,omitempty"`

	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
	Zoom     float64 `json:"zoom"`
	Dx       float64 `json:"dx"`
	Dy       float64 `json:"dy"`

	ImageID     int64    `json:"imageId"`
	Name        string   `json:"name"`
	BaseURL     string   `json:"baseUrl,omitempty"`
	OrigWidth   float64  `json:"orig_width"`
	OrigHeight  float64  `json:"orig_height"`
	DatasetName string   `json:"datasetName,omitempty"`
	DatasetID   int64    `json:"datasetId,omitempty"`
	PixelSizeX  *float64 `json:"pixel_size_x,omitempty"`
	PixelSizeY  *float64 `json:"pixel_size_y,omitempty"`

	SizeZ       int       `json:"sizeZ"`
	TheZ        int       `json:"theZ"`
	ZStart      *int      `json:"z_start,omitempty"`
	ZEnd        *int      `json:"z_end,omitempty"`
	ZProjection bool      `json:"z_projection"`
	SizeT       int       `json:"sizeT"`
	TheT        int       `json:"theT"`
	DeltaT      []float64 `json:"deltaT"`

	Channels []Channel `json:"channels"`
	Labels   []Label   `json:"labels"`
	ScaleBar *ScaleBar `json:"scalebar,omitempty"`
}

// DefaultPanelAttrs returns the attributes of a freshly created panel.
func DefaultPanelAttrs() PanelAttrs {
	return PanelAttrs{
		X:      100,
		Y:      100,
		Width:  512,
		Height: 512,
		Zoom:   100,
		DeltaT: []float64{},
		Labels: []Label{},
	}
}

// Clone returns a deep copy.
func (a PanelAttrs) Clone() PanelAttrs {
	c := a
	c.PixelSizeX = cloneFloat(a.PixelSizeX)
	c.PixelSizeY = cloneFloat(a.PixelSizeY)
	c.ZStart = cloneInt(a.ZStart)
	c.ZEnd = cloneInt(a.ZEnd)
	if a.DeltaT != nil {
		c.DeltaT = append([]float64{}, a.DeltaT...)
	}
	if a.Channels != nil {
		c.Channels = append([]Channel{}, a.Channels...)
	}
	if a.Labels != nil {
		c.Labels = append([]Label{}, a.Labels...)
	}
	if a.ScaleBar != nil {
		sb := *a.ScaleBar
		c.ScaleBar = &sb
	}
	return c
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 { return &v }

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
