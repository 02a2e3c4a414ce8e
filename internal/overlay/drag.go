package overlay

import (
	"errors"
	"fmt"

	"github.com/figure-editor/backend/internal/geometry"
)

// DragState is the state of the overlay drag interaction.
type DragState string

const (
	Idle     DragState = "idle"
	Dragging DragState = "dragging"
)

// multiTarget addresses the multi-selection box instead of a panel.
const multiTarget int64 = 0

var (
	ErrUnknownPanel     = errors.New("no panel with that key")
	ErrDragInProgress   = errors.New("another drag is in progress")
	ErrNoMultiSelection = errors.New("fewer than two panels selected")
)

type drag struct {
	state  DragState
	target int64
	// start is the model box of the target when the drag began.
	start geometry.Rect
}

// DragState returns the current interaction state.
func (s *Sync) DragState() DragState { return s.drag.state }

// CancelDrag abandons an uncommitted drag and re-renders every proxy from
// the model.
func (s *Sync) CancelDrag() {
	if s.drag.state != Dragging {
		return
	}
	s.drag = drag{state: Idle}
	s.renderAll()
}

// begin enters the dragging state for target, or checks that a drag of the
// same target is already under way.
func (s *Sync) begin(target int64, start geometry.Rect) error {
	if s.drag.state == Dragging {
		if s.drag.target != target {
			return ErrDragInProgress
		}
		return nil
	}
	s.drag = drag{state: Dragging, target: target, start: start}
	return nil
}

// end leaves the dragging state after a committed step.
func (s *Sync) end(commit bool) {
	if !commit {
		return
	}
	s.drag = drag{state: Idle}
	s.refreshMulti()
}

// MovePanel drags the panel with the given key by an overlay delta measured
// from the start of the drag. The panel is selected first if it is not, and
// every selected panel moves with it.
func (s *Sync) MovePanel(key int64, dx, dy float64, commit bool) error {
	p := s.fig.Panels().ByKey(key)
	if p == nil {
		return fmt.Errorf("panel %d: %w", key, ErrUnknownPanel)
	}
	if err := s.begin(key, p.Rect()); err != nil {
		return err
	}
	if !p.Selected() {
		s.fig.Select(p, false)
	}
	mdx, mdy := s.Viewport().ToModelDelta(dx, dy)
	err := s.fig.DragAllSelected(mdx, mdy, commit)
	s.end(commit || err != nil)
	return err
}

// ResizePanel drags one panel to an overlay rectangle.
func (s *Sync) ResizePanel(key int64, r geometry.Rect, commit bool) error {
	p := s.fig.Panels().ByKey(key)
	if p == nil {
		return fmt.Errorf("panel %d: %w", key, ErrUnknownPanel)
	}
	if err := s.begin(key, p.Rect()); err != nil {
		return err
	}
	err := p.DragResize(s.Viewport().ToModel(r), commit)
	s.end(commit || err != nil)
	return err
}

// MoveSelection drags the multi-selection box by an overlay delta measured
// from the start of the drag.
func (s *Sync) MoveSelection(dx, dy float64, commit bool) error {
	if err := s.beginMulti(); err != nil {
		return err
	}
	mdx, mdy := s.Viewport().ToModelDelta(dx, dy)
	return s.mapSelection(s.drag.start.Translate(mdx, mdy), commit)
}

// ResizeSelection drags the multi-selection box to an overlay rectangle.
// Every selected panel is scaled and repositioned proportionally.
func (s *Sync) ResizeSelection(r geometry.Rect, commit bool) error {
	if err := s.beginMulti(); err != nil {
		return err
	}
	return s.mapSelection(s.Viewport().ToModel(r), commit)
}

func (s *Sync) beginMulti() error {
	if s.drag.state != Dragging && !s.multi.Visible {
		return ErrNoMultiSelection
	}
	box, _ := s.fig.Selected().Bounds()
	return s.begin(multiTarget, box)
}

func (s *Sync) mapSelection(to geometry.Rect, commit bool) error {
	err := s.fig.MultiSelectDrag(s.drag.start, to, commit)
	if err == nil && !commit {
		s.multi.Rect = s.Viewport().ToOverlay(to)
		s.MultiUpdated.Emit(s.multi)
	}
	s.end(commit || err != nil)
	return err
}
