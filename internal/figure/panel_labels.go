package figure

import (
	"fmt"

	"github.com/figure-editor/backend/internal/models"
)

// outsidePositions are label positions drawn on the paper background.
var outsidePositions = map[string]bool{
	models.PositionTop:      true,
	models.PositionBottom:   true,
	models.PositionLeft:     true,
	models.PositionRight:    true,
	models.PositionLeftVert: true,
}

// AddLabels appends labels. White labels outside the panel would vanish on
// white paper and are turned black.
func (p *Panel) AddLabels(labels []models.Label) error {
	return p.Update(func(a *models.PanelAttrs) {
		for _, l := range labels {
			if outsidePositions[l.Position] && l.Color == "FFFFFF" {
				l.Color = "000000"
			}
			a.Labels = append(a.Labels, l)
		}
	})
}

// EditLabels replaces labels by key (see models.Label.Key). A nil value
// deletes the label. Labels not named keep their place.
func (p *Panel) EditLabels(edits map[string]*models.Label) error {
	return p.Update(func(a *models.PanelAttrs) {
		labels := make([]models.Label, 0, len(a.Labels))
		for _, l := range a.Labels {
			repl, ok := edits[l.Key()]
			switch {
			case !ok:
				labels = append(labels, l)
			case repl != nil:
				labels = append(labels, *repl)
			}
		}
		a.Labels = labels
	})
}

// LabelsFromChannels adds one label per active channel. An empty color uses
// the channel colour.
func (p *Panel) LabelsFromChannels(size models.FontSize, position, color string) error {
	var labels []models.Label
	for _, c := range p.attrs.Channels {
		if !c.Active {
			continue
		}
		col := color
		if col == "" {
			col = c.Color
		}
		labels = append(labels, models.Label{Text: c.Label, Size: size, Position: position, Color: col})
	}
	return p.AddLabels(labels)
}

// LabelsFromTime adds a time label in the given format.
func (p *Panel) LabelsFromTime(format string, size models.FontSize, position, color string) error {
	switch format {
	case models.TimeSecs, models.TimeMins, models.TimeHrsMins, models.TimeHrsMinsSecs:
	default:
		return &ValidationError{Field: FieldLabels, Value: format, Reason: "unknown time format"}
	}
	return p.AddLabels([]models.Label{{Time: format, Size: size, Position: position, Color: color}})
}

func (p *Panel) updateChannel(index int, fn func(c *models.Channel)) error {
	if index < 0 || index >= len(p.attrs.Channels) {
		return &ValidationError{Field: FieldChannels, Value: index, Reason: fmt.Sprintf("no channel %d", index)}
	}
	return p.Update(func(a *models.PanelAttrs) {
		fn(&a.Channels[index])
	})
}

// SetChannelColor sets the colour of channel index.
func (p *Panel) SetChannelColor(index int, color string) error {
	return p.updateChannel(index, func(c *models.Channel) { c.Color = color })
}

// ToggleChannel sets channel index active, or flips it when active is nil.
func (p *Panel) ToggleChannel(index int, active *bool) error {
	return p.updateChannel(index, func(c *models.Channel) {
		if active == nil {
			c.Active = !c.Active
			return
		}
		c.Active = *active
	})
}

// WindowPatch holds optional channel window values.
type WindowPatch struct {
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Start *float64 `json:"start,omitempty"`
	End   *float64 `json:"end,omitempty"`
}

// SetChannelWindow updates the rendering window of channel index.
func (p *Panel) SetChannelWindow(index int, w WindowPatch) error {
	return p.updateChannel(index, func(c *models.Channel) {
		if w.Min != nil {
			c.Window.Min = *w.Min
		}
		if w.Max != nil {
			c.Window.Max = *w.Max
		}
		if w.Start != nil {
			c.Window.Start = *w.Start
		}
		if w.End != nil {
			c.Window.End = *w.End
		}
	})
}

// ScaleBarPatch holds optional scale bar values.
type ScaleBarPatch struct {
	Show      *bool            `json:"show,omitempty"`
	Length    *float64         `json:"length,omitempty"`
	Units     *string          `json:"units,omitempty"`
	Color     *string          `json:"color,omitempty"`
	Position  *string          `json:"position,omitempty"`
	ShowLabel *bool            `json:"show_label,omitempty"`
	FontSize  *models.FontSize `json:"font_size,omitempty"`
}

// SetScalebar merges patch into the scale bar, creating it if needed.
func (p *Panel) SetScalebar(patch ScaleBarPatch) error {
	return p.Update(func(a *models.PanelAttrs) {
		sb := models.ScaleBar{}
		if a.ScaleBar != nil {
			sb = *a.ScaleBar
		}
		if patch.Show != nil {
			sb.Show = *patch.Show
		}
		if patch.Length != nil {
			sb.Length = *patch.Length
		}
		if patch.Units != nil {
			sb.Units = *patch.Units
		}
		if patch.Color != nil {
			sb.Color = *patch.Color
		}
		if patch.Position != nil {
			sb.Position = *patch.Position
		}
		if patch.ShowLabel != nil {
			sb.ShowLabel = *patch.ShowLabel
		}
		if patch.FontSize != nil {
			sb.FontSize = *patch.FontSize
		}
		a.ScaleBar = &sb
	})
}

// HideScalebar hides the scale bar and keeps its other settings.
func (p *Panel) HideScalebar() error {
	if p.attrs.ScaleBar == nil {
		return nil
	}
	hide := false
	return p.SetScalebar(ScaleBarPatch{Show: &hide})
}
