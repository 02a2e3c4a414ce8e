package figure

import "github.com/figure-editor/backend/internal/geometry"

// NotifySelectionChange schedules one SelectionChanged notification. Calls
// within the selection delay of each other produce a single notification.
func (f *Figure) NotifySelectionChange() {
	f.selection.Trigger()
}

// FlushSelection delivers a pending selection notification immediately.
func (f *Figure) FlushSelection() bool {
	return f.selection.Fire()
}

// Select makes p the only selected panel. If p is already selected and
// exclusive is false nothing happens.
func (f *Figure) Select(p *Panel, exclusive bool) {
	if p.selected && !exclusive {
		return
	}
	f.clearSelected()
	p.setSelected(true)
	f.NotifySelectionChange()
}

// AddToSelection selects p, keeping the current selection.
func (f *Figure) AddToSelection(p *Panel) {
	p.setSelected(true)
	f.NotifySelectionChange()
}

// ClearSelection deselects every panel.
func (f *Figure) ClearSelection() {
	f.clearSelected()
	f.NotifySelectionChange()
}

// SelectAll selects every panel.
func (f *Figure) SelectAll() {
	for _, p := range f.panels.items {
		p.setSelected(true)
	}
	f.NotifySelectionChange()
}

// SelectByRegion adds every panel overlapping r to the selection.
func (f *Figure) SelectByRegion(r geometry.Rect) {
	for _, p := range f.panels.items {
		if p.Overlaps(r) {
			p.setSelected(true)
		}
	}
	f.NotifySelectionChange()
}

// SetSelection selects exactly the given panels. Panels no longer in the
// figure are ignored.
func (f *Figure) SetSelection(ps Panels) {
	for _, p := range f.panels.items {
		p.setSelected(ps.Contains(p))
	}
	f.NotifySelectionChange()
}

func (f *Figure) clearSelected() {
	for _, p := range f.panels.items {
		p.setSelected(false)
	}
}

// DeleteSelected removes every selected panel. A selection notification is
// scheduled even when nothing was selected.
func (f *Figure) DeleteSelected() int {
	sel := f.Selected()
	for _, p := range sel {
		f.panels.Remove(p)
	}
	f.NotifySelectionChange()
	return len(sel)
}

// ClearAllPanels removes every panel regardless of selection.
func (f *Figure) ClearAllPanels() {
	f.removeAll()
	f.NotifySelectionChange()
}
