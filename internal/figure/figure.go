// Package figure holds the figure model: panels, their ordered collection and
// the figure-level mutation API.
//
// A Figure and everything it owns is single-threaded. Callers serialise all
// access, including draining the scheduler that delivers deferred selection
// notifications.
package figure

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/figure-editor/backend/internal/geometry"
	"github.com/figure-editor/backend/internal/models"
	"github.com/figure-editor/backend/internal/schedule"
	"github.com/figure-editor/backend/internal/signal"
)

// DefaultSelectionDelay is the quiet period before a selection change is
// announced.
const DefaultSelectionDelay = 10 * time.Millisecond

// Settings are the figure-level attributes.
type Settings struct {
	PaperWidth   float64 `json:"paper_width"`
	PaperHeight  float64 `json:"paper_height"`
	CanvasWidth  float64 `json:"canvas_width"`
	CanvasHeight float64 `json:"canvas_height"`
	PageSize     string  `json:"page_size"`
	WidthMM      float64 `json:"width_mm"`
	HeightMM     float64 `json:"height_mm"`
	Orientation  string  `json:"orientation"`
	Zoom         float64 `json:"zoom"`
	Unsaved      bool    `json:"unsaved"`
	FileID       string  `json:"fileId,omitempty"`
	FigureName   string  `json:"figureName,omitempty"`
	CanEdit      bool    `json:"canEdit"`
	Legend       string  `json:"legend,omitempty"`
}

// DefaultSettings returns the settings of a new figure.
func DefaultSettings() Settings {
	return Settings{
		PaperWidth:   612,
		PaperHeight:  792,
		CanvasWidth:  10000,
		CanvasHeight: 8000,
		PageSize:     models.PageA4,
		WidthMM:      210,
		HeightMM:     297,
		Orientation:  models.OrientationVertical,
		Zoom:         100,
		CanEdit:      true,
	}
}

// PaperFields are the settings that describe the paper.
var PaperFields = []string{"paper_width", "paper_height", "page_size", "width_mm", "height_mm", "orientation"}

// SettingsChange describes one settings update.
type SettingsChange struct {
	Prev   Settings
	Next   Settings
	Fields []string
}

// Has reports whether any of names changed.
func (c SettingsChange) Has(names ...string) bool {
	for _, f := range c.Fields {
		for _, n := range names {
			if f == n {
				return true
			}
		}
	}
	return false
}

// DragEvent reports the top-left of the selection after a group drag.
type DragEvent struct {
	Position geometry.Point
	Commit   bool
}

// Options configure a Figure.
type Options struct {
	// Scheduler delivers deferred selection notifications. Required.
	Scheduler      *schedule.Scheduler
	SelectionDelay time.Duration
	// DefaultBaseURL is the image service root for panels without baseUrl.
	DefaultBaseURL string
	// MaxImagePixels caps width*height of added images. 0 means the default.
	MaxImagePixels float64
}

// Figure is one open figure document.
type Figure struct {
	opts      Options
	settings  Settings
	panels    *PanelList
	nextKey   int64
	selection *schedule.Debouncer

	SelectionChanged signal.Signal[Panels]
	SettingsChanged  signal.Signal[SettingsChange]
	DragMoved        signal.Signal[DragEvent]
}

// New creates an empty figure.
func New(opts Options) *Figure {
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.New(nil)
	}
	if opts.SelectionDelay <= 0 {
		opts.SelectionDelay = DefaultSelectionDelay
	}
	f := &Figure{
		opts:     opts,
		settings: DefaultSettings(),
		panels:   NewPanelList(),
	}
	f.selection = schedule.NewDebouncer(opts.Scheduler, opts.SelectionDelay, func() {
		f.SelectionChanged.Emit(f.Selected())
	})

	f.panels.Changed.Subscribe(func(c Change) {
		for _, field := range c.Fields {
			if field != FieldSelected && field != FieldID {
				f.markUnsaved()
				return
			}
		}
	})
	f.panels.Added.Subscribe(func(Membership) { f.markUnsaved() })
	f.panels.Removed.Subscribe(func(Membership) { f.markUnsaved() })
	return f
}

// Panels returns the panel collection.
func (f *Figure) Panels() *PanelList { return f.panels }

// Settings returns the current settings.
func (f *Figure) Settings() Settings { return f.settings }

// Options returns the options the figure was created with.
func (f *Figure) Options() Options { return f.opts }

// Selected returns the selected panels in z-order.
func (f *Figure) Selected() Panels { return f.panels.Selected() }

// Viewport returns the current paper placement and zoom.
func (f *Figure) Viewport() geometry.Viewport {
	return geometry.Viewport{
		Zoom:         f.settings.Zoom,
		CanvasWidth:  f.settings.CanvasWidth,
		CanvasHeight: f.settings.CanvasHeight,
		PaperWidth:   f.settings.PaperWidth,
		PaperHeight:  f.settings.PaperHeight,
	}
}

// ImageURL returns the render URL of p using the figure's default base URL.
func (f *Figure) ImageURL(p *Panel) string {
	return p.ImageURL(f.opts.DefaultBaseURL)
}

func (f *Figure) updateSettings(fn func(s *Settings)) {
	next := f.settings
	fn(&next)
	fields := diffSettings(&f.settings, &next)
	if len(fields) == 0 {
		return
	}
	prev := f.settings
	f.settings = next
	f.SettingsChanged.Emit(SettingsChange{Prev: prev, Next: next, Fields: fields})
}

func (f *Figure) markUnsaved() {
	f.updateSettings(func(s *Settings) { s.Unsaved = true })
}

// RestorePaper sets the paper fields back to their values in s.
func (f *Figure) RestorePaper(s Settings) {
	f.updateSettings(func(cur *Settings) {
		before := *cur
		cur.PaperWidth = s.PaperWidth
		cur.PaperHeight = s.PaperHeight
		cur.PageSize = s.PageSize
		cur.WidthMM = s.WidthMM
		cur.HeightMM = s.HeightMM
		cur.Orientation = s.Orientation
		if before != *cur {
			cur.Unsaved = true
		}
	})
}

// SetName renames the figure.
func (f *Figure) SetName(name string) {
	f.updateSettings(func(s *Settings) {
		if s.FigureName != name {
			s.FigureName = name
			s.Unsaved = true
		}
	})
}

func diffSettings(a, b *Settings) []string {
	va := reflect.ValueOf(a).Elem()
	vb := reflect.ValueOf(b).Elem()
	t := va.Type()
	var changed []string
	for i := 0; i < t.NumField(); i++ {
		if va.Field(i).Interface() != vb.Field(i).Interface() {
			name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
			changed = append(changed, name)
		}
	}
	return changed
}

// AddPanel creates a panel from attrs and appends it to the figure.
func (f *Figure) AddPanel(attrs models.PanelAttrs) (*Panel, error) {
	attrs = normalize(attrs)
	if err := validate(&attrs); err != nil {
		return nil, err
	}
	f.nextKey++
	p := newPanel(f.nextKey, attrs)
	f.panels.Add(p)
	return p, nil
}

// RemovePanel takes p out of the figure.
func (f *Figure) RemovePanel(p *Panel) (int, bool) {
	return f.panels.Remove(p)
}

// Reinsert puts a previously removed panel back at index.
func (f *Figure) Reinsert(p *Panel, index int) {
	f.panels.Insert(index, p)
}

// normalize fills defaults missing from decoded or client supplied attrs.
func normalize(a models.PanelAttrs) models.PanelAttrs {
	a = a.Clone()
	if a.Zoom == 0 {
		a.Zoom = 100
	}
	if a.DeltaT == nil {
		a.DeltaT = []float64{}
	}
	if a.Labels == nil {
		a.Labels = []models.Label{}
	}
	if a.Channels == nil {
		a.Channels = []models.Channel{}
	}
	return a
}

// ToDocument returns the persisted form of the figure.
func (f *Figure) ToDocument() *models.FigureDocument {
	panels := make([]models.PanelAttrs, 0, f.panels.Len())
	for _, p := range f.panels.items {
		panels = append(panels, p.Attrs())
	}
	s := f.settings
	return &models.FigureDocument{
		Panels:      panels,
		PaperWidth:  s.PaperWidth,
		PaperHeight: s.PaperHeight,
		PageSize:    s.PageSize,
		WidthMM:     s.WidthMM,
		HeightMM:    s.HeightMM,
		Orientation: s.Orientation,
		FigureName:  s.FigureName,
		FileID:      s.FileID,
		Legend:      s.Legend,
	}
}

// FromDocument replaces the figure content with doc. Every panel is checked
// before anything changes, so an invalid document leaves the figure as it was.
// Callers holding undo history reset it first.
func (f *Figure) FromDocument(doc *models.FigureDocument) error {
	attrs := make([]models.PanelAttrs, len(doc.Panels))
	for i, a := range doc.Panels {
		a = normalize(a)
		if err := validate(&a); err != nil {
			return &DocumentError{Panel: i, Err: err}
		}
		attrs[i] = a
	}

	f.removeAll()
	f.updateSettings(func(s *Settings) {
		s.FileID = doc.FileID
		s.FigureName = doc.FigureName
		s.CanEdit = doc.CanEdit == nil || *doc.CanEdit
		s.Legend = doc.Legend
		if doc.PaperWidth > 0 && doc.PaperHeight > 0 {
			s.PaperWidth = doc.PaperWidth
			s.PaperHeight = doc.PaperHeight
		}
		s.PageSize = doc.PageSize
		if s.PageSize == "" {
			s.PageSize = models.PageLetter
		}
		if doc.Orientation != "" {
			s.Orientation = doc.Orientation
		}
		if doc.WidthMM != 0 {
			s.WidthMM = doc.WidthMM
		}
		if doc.HeightMM != 0 {
			s.HeightMM = doc.HeightMM
		}
	})
	for _, a := range attrs {
		f.nextKey++
		f.panels.Add(newPanel(f.nextKey, a))
	}
	f.updateSettings(func(s *Settings) { s.Unsaved = false })
	f.NotifySelectionChange()
	return nil
}

// Reset empties the figure for a new document. Paper settings are kept.
func (f *Figure) Reset() {
	f.removeAll()
	f.updateSettings(func(s *Settings) {
		s.FileID = ""
		s.FigureName = ""
		s.Legend = ""
		s.CanEdit = true
		s.Unsaved = false
	})
	f.NotifySelectionChange()
}

// removeAll removes every panel, last first.
func (f *Figure) removeAll() {
	for i := f.panels.Len() - 1; i >= 0; i-- {
		f.panels.Remove(f.panels.At(i))
	}
}

// DocumentError reports an invalid panel in a document being loaded.
type DocumentError struct {
	Panel int
	Err   error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("panel %d: %v", e.Panel, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }
