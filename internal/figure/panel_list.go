package figure

import (
	"math"
	"reflect"

	"github.com/figure-editor/backend/internal/geometry"
	"github.com/figure-editor/backend/internal/signal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Membership reports a panel joining or leaving a PanelList at Index.
type Membership struct {
	Panel *Panel
	Index int
}

// PanelList is the ordered set of panels of a figure. Order is z-order.
// Member Changed and Previewed notifications are re-emitted on the list.
type PanelList struct {
	items   []*Panel
	cancels map[*Panel][]func()

	Added     signal.Signal[Membership]
	Removed   signal.Signal[Membership]
	Changed   signal.Signal[Change]
	Previewed signal.Signal[Preview]
}

// NewPanelList creates an empty PanelList.
func NewPanelList() *PanelList {
	return &PanelList{cancels: make(map[*Panel][]func())}
}

// Len returns the number of panels.
func (l *PanelList) Len() int { return len(l.items) }

// At returns the panel at index i.
func (l *PanelList) At(i int) *Panel { return l.items[i] }

// All returns the panels in order.
func (l *PanelList) All() Panels {
	return append(Panels(nil), l.items...)
}

// Add appends p and returns its index.
func (l *PanelList) Add(p *Panel) int {
	return l.Insert(len(l.items), p)
}

// Insert places p at index i, clamped to the list bounds. Adding a panel that
// is already a member is a no-op returning its index.
func (l *PanelList) Insert(i int, p *Panel) int {
	if idx := l.Index(p); idx >= 0 {
		return idx
	}
	i = min(max(i, 0), len(l.items))
	l.items = append(l.items, nil)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = p

	l.cancels[p] = []func(){
		p.Changed.Subscribe(func(c Change) { l.Changed.Emit(c) }),
		p.Previewed.Subscribe(func(pv Preview) { l.Previewed.Emit(pv) }),
	}
	l.Added.Emit(Membership{Panel: p, Index: i})
	return i
}

// Remove takes p out of the list and returns its former index.
func (l *PanelList) Remove(p *Panel) (int, bool) {
	i := l.Index(p)
	if i < 0 {
		return -1, false
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	for _, cancel := range l.cancels[p] {
		cancel()
	}
	delete(l.cancels, p)
	l.Removed.Emit(Membership{Panel: p, Index: i})
	return i, true
}

// Index returns the position of p, or -1.
func (l *PanelList) Index(p *Panel) int {
	for i, item := range l.items {
		if item == p {
			return i
		}
	}
	return -1
}

// Find returns the first panel for which match is true.
func (l *PanelList) Find(match func(*Panel) bool) *Panel {
	for _, p := range l.items {
		if match(p) {
			return p
		}
	}
	return nil
}

// ByKey returns the panel with the given session key.
func (l *PanelList) ByKey(key int64) *Panel {
	return l.Find(func(p *Panel) bool { return p.key == key })
}

// ByID returns the panel with the given persistence id.
func (l *PanelList) ByID(id string) *Panel {
	if id == "" {
		return nil
	}
	return l.Find(func(p *Panel) bool { return p.attrs.ID == id })
}

// Selected returns the selected panels in order.
func (l *PanelList) Selected() Panels {
	var sel Panels
	for _, p := range l.items {
		if p.selected {
			sel = append(sel, p)
		}
	}
	return sel
}

// Panels is an ordered group of panels with aggregate queries.
type Panels []*Panel

func (ps Panels) values(f Field) []float64 {
	vals := make([]float64, 0, len(ps))
	for _, p := range ps {
		v, _ := numericValue(&p.attrs, f)
		vals = append(vals, v)
	}
	return vals
}

// Sum adds up a numeric field. Unset values count as 0.
func (ps Panels) Sum(f Field) float64 {
	return floats.Sum(ps.values(f))
}

// Average returns the mean of a numeric field, or 0 for no panels.
func (ps Panels) Average(f Field) float64 {
	if len(ps) == 0 {
		return 0
	}
	return stat.Mean(ps.values(f), nil)
}

// Min returns the smallest value of a numeric field, +Inf for no panels.
func (ps Panels) Min(f Field) float64 {
	if len(ps) == 0 {
		return math.Inf(1)
	}
	return floats.Min(ps.values(f))
}

// Max returns the largest value of a numeric field, -Inf for no panels.
func (ps Panels) Max(f Field) float64 {
	if len(ps) == 0 {
		return math.Inf(-1)
	}
	return floats.Max(ps.values(f))
}

// AverageAspect returns the mean width/height ratio, skipping flat panels.
func (ps Panels) AverageAspect() float64 {
	ratios := make([]float64, 0, len(ps))
	for _, p := range ps {
		if p.attrs.Height != 0 {
			ratios = append(ratios, p.attrs.Width/p.attrs.Height)
		}
	}
	if len(ratios) == 0 {
		return 0
	}
	return stat.Mean(ratios, nil)
}

// IfEqual returns the value of f when every panel has the same value.
func (ps Panels) IfEqual(f Field) (any, bool) {
	if len(ps) == 0 {
		return nil, false
	}
	if f == FieldSelected {
		for _, p := range ps[1:] {
			if p.selected != ps[0].selected {
				return nil, false
			}
		}
		return ps[0].selected, true
	}
	first, ok := fieldValue(&ps[0].attrs, f)
	if !ok {
		return nil, false
	}
	for _, p := range ps[1:] {
		v, _ := fieldValue(&p.attrs, f)
		if !reflect.DeepEqual(first.Interface(), v.Interface()) {
			return nil, false
		}
	}
	return first.Interface(), true
}

// AllEqual reports whether every panel has the same value of f.
func (ps Panels) AllEqual(f Field) bool {
	if len(ps) == 0 {
		return true
	}
	_, ok := ps.IfEqual(f)
	return ok
}

// AllTrue reports whether a field is truthy (non-zero) on every panel.
func (ps Panels) AllTrue(f Field) bool {
	for _, p := range ps {
		if f == FieldSelected {
			if !p.selected {
				return false
			}
			continue
		}
		v, ok := numericValue(&p.attrs, f)
		if !ok || v == 0 {
			return false
		}
	}
	return true
}

// DeltaTIfEqual returns the current delta-T when it is the same everywhere.
func (ps Panels) DeltaTIfEqual() (float64, bool) {
	if len(ps) == 0 {
		return 0, false
	}
	dt := ps[0].DeltaT()
	for _, p := range ps[1:] {
		if p.DeltaT() != dt {
			return 0, false
		}
	}
	return dt, true
}

// Rects returns the panel rectangles.
func (ps Panels) Rects() []geometry.Rect {
	rects := make([]geometry.Rect, len(ps))
	for i, p := range ps {
		rects[i] = p.Rect()
	}
	return rects
}

// Bounds returns the bounding box of the panels.
func (ps Panels) Bounds() (geometry.Rect, bool) {
	return geometry.Bounds(ps.Rects())
}

// Keys returns the session keys of the panels.
func (ps Panels) Keys() []int64 {
	keys := make([]int64, len(ps))
	for i, p := range ps {
		keys[i] = p.key
	}
	return keys
}

// Contains reports whether p is in the group.
func (ps Panels) Contains(p *Panel) bool {
	for _, q := range ps {
		if q == p {
			return true
		}
	}
	return false
}

// topLeft returns the panel with the least x+y, first in order on ties.
func (ps Panels) topLeft() *Panel {
	var best *Panel
	for _, p := range ps {
		if best == nil || p.attrs.X+p.attrs.Y < best.attrs.X+best.attrs.Y {
			best = p
		}
	}
	return best
}
