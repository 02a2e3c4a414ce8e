// Package overlay keeps overlay-space proxies of a figure's panels in sync
// with the model and turns overlay drags back into model mutations.
//
// Proxies are derived state: they are recomputed from the panels whenever
// geometry, zoom or paper size change and are never written back except
// through the figure's own mutation API.
package overlay

import (
	"github.com/figure-editor/backend/internal/figure"
	"github.com/figure-editor/backend/internal/geometry"
	"github.com/figure-editor/backend/internal/signal"
)

// Proxy is the overlay rectangle of one panel.
type Proxy struct {
	Key      int64         `json:"key"`
	Rect     geometry.Rect `json:"rect"`
	Selected bool          `json:"selected"`
}

// MultiProxy is the box around a multi-selection. It is visible only while
// two or more panels are selected.
type MultiProxy struct {
	Rect    geometry.Rect `json:"rect"`
	Visible bool          `json:"visible"`
}

// Snapshot is the full overlay state.
type Snapshot struct {
	Viewport geometry.Viewport `json:"viewport"`
	Proxies  []Proxy           `json:"proxies"`
	Multi    MultiProxy        `json:"multi"`
	Drag     DragState         `json:"drag"`
}

var geometryFields = []figure.Field{figure.FieldX, figure.FieldY, figure.FieldWidth, figure.FieldHeight}

var viewFields = []string{"zoom", "paper_width", "paper_height", "canvas_width", "canvas_height"}

// Sync maintains the proxies of one figure. It is driven entirely by the
// figure's signals and shares its threading rules.
type Sync struct {
	fig     *figure.Figure
	proxies map[*figure.Panel]*Proxy
	multi   MultiProxy
	drag    drag
	cancels []func()

	Updated      signal.Signal[Proxy]
	Removed      signal.Signal[int64]
	MultiUpdated signal.Signal[MultiProxy]
}

// New creates proxies for every panel of fig and starts following it.
func New(fig *figure.Figure) *Sync {
	s := &Sync{fig: fig, proxies: map[*figure.Panel]*Proxy{}, drag: drag{state: Idle}}
	for _, p := range fig.Panels().All() {
		s.proxies[p] = s.proxyFor(p)
	}
	s.refreshMulti()

	panels := fig.Panels()
	s.cancels = []func(){
		panels.Added.Subscribe(s.handleAdd),
		panels.Removed.Subscribe(s.handleRemove),
		panels.Changed.Subscribe(s.handleChange),
		panels.Previewed.Subscribe(s.handlePreview),
		fig.SettingsChanged.Subscribe(s.handleSettings),
		fig.SelectionChanged.Subscribe(func(figure.Panels) { s.refreshMulti() }),
		fig.DragMoved.Subscribe(s.handleDragMoved),
	}
	return s
}

// Close stops following the figure.
func (s *Sync) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
}

// Viewport returns the transform currently in use.
func (s *Sync) Viewport() geometry.Viewport { return s.fig.Viewport() }

// Proxies returns the panel proxies in z-order.
func (s *Sync) Proxies() []Proxy {
	out := make([]Proxy, 0, len(s.proxies))
	for _, p := range s.fig.Panels().All() {
		if px, ok := s.proxies[p]; ok {
			out = append(out, *px)
		}
	}
	return out
}

// Proxy returns the proxy of the panel with the given key.
func (s *Sync) Proxy(key int64) (Proxy, bool) {
	p := s.fig.Panels().ByKey(key)
	if p == nil {
		return Proxy{}, false
	}
	px, ok := s.proxies[p]
	if !ok {
		return Proxy{}, false
	}
	return *px, true
}

// Multi returns the multi-selection proxy.
func (s *Sync) Multi() MultiProxy { return s.multi }

// Snapshot returns the complete overlay state.
func (s *Sync) Snapshot() Snapshot {
	return Snapshot{
		Viewport: s.Viewport(),
		Proxies:  s.Proxies(),
		Multi:    s.multi,
		Drag:     s.drag.state,
	}
}

func (s *Sync) proxyFor(p *figure.Panel) *Proxy {
	return &Proxy{
		Key:      p.Key(),
		Rect:     s.Viewport().ToOverlay(p.Rect()),
		Selected: p.Selected(),
	}
}

func (s *Sync) render(p *figure.Panel) {
	px, ok := s.proxies[p]
	if !ok {
		return
	}
	px.Rect = s.Viewport().ToOverlay(p.Rect())
	s.Updated.Emit(*px)
}

func (s *Sync) renderAll() {
	for _, p := range s.fig.Panels().All() {
		s.render(p)
	}
	s.refreshMulti()
}

// refreshMulti recomputes the multi-selection box from the model.
func (s *Sync) refreshMulti() {
	next := MultiProxy{}
	sel := s.fig.Selected()
	if len(sel) >= 2 {
		box, _ := sel.Bounds()
		next = MultiProxy{Rect: s.Viewport().ToOverlay(box), Visible: true}
	}
	if next == s.multi {
		return
	}
	s.multi = next
	s.MultiUpdated.Emit(next)
}

func (s *Sync) handleAdd(m figure.Membership) {
	px := s.proxyFor(m.Panel)
	s.proxies[m.Panel] = px
	s.Updated.Emit(*px)
}

func (s *Sync) handleRemove(m figure.Membership) {
	if _, ok := s.proxies[m.Panel]; !ok {
		return
	}
	delete(s.proxies, m.Panel)
	s.Removed.Emit(m.Panel.Key())
}

func (s *Sync) handleChange(c figure.Change) {
	px, ok := s.proxies[c.Panel]
	if !ok {
		return
	}
	moved := false
	for _, f := range geometryFields {
		if c.Has(f) {
			moved = true
			break
		}
	}
	switch {
	case moved:
		px.Selected = c.Panel.Selected()
		s.render(c.Panel)
		if px.Selected && s.drag.state == Idle {
			s.refreshMulti()
		}
	case c.Has(figure.FieldSelected):
		px.Selected = c.Panel.Selected()
		s.Updated.Emit(*px)
	}
}

// handlePreview shows an uncommitted drag position without touching the model.
func (s *Sync) handlePreview(pv figure.Preview) {
	px, ok := s.proxies[pv.Panel]
	if !ok {
		return
	}
	px.Rect = s.Viewport().ToOverlay(pv.Rect)
	s.Updated.Emit(*px)
}

func (s *Sync) handleSettings(c figure.SettingsChange) {
	if c.Has(viewFields...) {
		s.renderAll()
	}
}

// handleDragMoved follows a group drag of the selected panels.
func (s *Sync) handleDragMoved(e figure.DragEvent) {
	if !s.multi.Visible {
		return
	}
	at := s.Viewport().ToOverlay(geometry.Rect{X: e.Position.X, Y: e.Position.Y})
	s.multi.Rect.X, s.multi.Rect.Y = at.X, at.Y
	s.MultiUpdated.Emit(s.multi)
}
