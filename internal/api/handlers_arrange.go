// handlers_arrange.go - Selection and multi-panel layout handlers
package api

import (
	"fmt"
	"net/http"

	"github.com/figure-editor/backend/internal/figure"
	"github.com/figure-editor/backend/internal/geometry"
	"github.com/figure-editor/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// Selection modes accepted by HandleSelection.
const (
	SelectSet    = "set"
	SelectAdd    = "add"
	SelectClear  = "clear"
	SelectAll    = "all"
	SelectRegion = "region"
)

// ArrangeHandlerImpl implements the ArrangeHandler interface
type ArrangeHandlerImpl struct {
	sessionBase
}

// NewArrangeHandler creates a new arrange handler instance
func NewArrangeHandler(sessionMgr *session.Manager) ArrangeHandler {
	return &ArrangeHandlerImpl{sessionBase{sessionMgr: sessionMgr}}
}

// HandleSelection changes which panels are selected
func (h *ArrangeHandlerImpl) HandleSelection(c echo.Context) error {
	var req selectionRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	var selected []int64
	err := h.do(c, func(s *session.Session) error {
		panels := make(figure.Panels, 0, len(req.Keys))
		for _, key := range req.Keys {
			p, err := s.Panel(key)
			if err != nil {
				return err
			}
			panels = append(panels, p)
		}

		switch req.Mode {
		case SelectSet:
			if len(panels) == 1 {
				s.Figure.Select(panels[0], req.Exclusive)
			} else {
				s.Figure.SetSelection(panels)
			}
		case SelectAdd:
			for _, p := range panels {
				s.Figure.AddToSelection(p)
			}
		case SelectClear:
			s.Figure.ClearSelection()
		case SelectAll:
			s.Figure.SelectAll()
		case SelectRegion:
			s.Figure.SelectByRegion(*req.Rect)
		}
		selected = s.Figure.Selected().Keys()
		return nil
	})
	if err != nil {
		return err
	}
	if selected == nil {
		selected = []int64{}
	}
	return ok(c, map[string]interface{}{"selected": selected})
}

// HandleAlign lines up the selected panels
func (h *ArrangeHandlerImpl) HandleAlign(c echo.Context) error {
	var req alignRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	return h.respondView(c, http.StatusOK, func(s *session.Session) error {
		return s.Figure.Align(figure.AlignMode(req.Mode))
	})
}

// HandleAlignSize gives the selected panels a common width and/or height
func (h *ArrangeHandlerImpl) HandleAlignSize(c echo.Context) error {
	var req alignSizeRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	return h.respondView(c, http.StatusOK, func(s *session.Session) error {
		return s.Figure.AlignSize(req.Width, req.Height)
	})
}

// HandleNudge moves the selected panels by whole keyboard steps
func (h *ArrangeHandlerImpl) HandleNudge(c echo.Context) error {
	var req nudgeRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	return h.respondView(c, http.StatusOK, func(s *session.Session) error {
		return s.Figure.Nudge(figure.Axis(req.Axis), float64(req.Steps)*figure.NudgeStep)
	})
}

// HandleDrag moves the selected panels by a paper delta
func (h *ArrangeHandlerImpl) HandleDrag(c echo.Context) error {
	var req dragRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	return h.respondView(c, http.StatusOK, func(s *session.Session) error {
		return s.Figure.DragAllSelected(req.Dx, req.Dy, req.commit())
	})
}

// HandleDeleteSelected removes the selected panels
func (h *ArrangeHandlerImpl) HandleDeleteSelected(c echo.Context) error {
	var removed int
	err := h.do(c, func(s *session.Session) error {
		removed = s.Figure.DeleteSelected()
		return nil
	})
	if err != nil {
		return err
	}
	return ok(c, map[string]int{"removed": removed})
}

// HandleCopy copies the selected panels to the session clipboard
func (h *ArrangeHandlerImpl) HandleCopy(c echo.Context) error {
	var copied int
	err := h.do(c, func(s *session.Session) error {
		copied = s.Copy()
		return nil
	})
	if err != nil {
		return err
	}
	return ok(c, map[string]int{"copied": copied})
}

// HandlePaste pastes the session clipboard
func (h *ArrangeHandlerImpl) HandlePaste(c echo.Context) error {
	views := []session.PanelView{}
	err := h.do(c, func(s *session.Session) error {
		pasted, err := s.Paste()
		if err != nil {
			return err
		}
		for _, p := range pasted {
			views = append(views, s.PanelView(p))
		}
		return nil
	})
	if err != nil {
		return err
	}
	return ok(c, views)
}

// Request types

type selectionRequest struct {
	Mode      string         `json:"mode"`
	Keys      []int64        `json:"keys,omitempty"`
	Rect      *geometry.Rect `json:"rect,omitempty"`
	Exclusive bool           `json:"exclusive,omitempty"`
}

func (r *selectionRequest) validate() error {
	switch r.Mode {
	case SelectSet, SelectAdd:
		if len(r.Keys) == 0 && r.Mode == SelectAdd {
			return NewValidationError("keys")
		}
	case SelectClear, SelectAll:
	case SelectRegion:
		if r.Rect == nil {
			return NewValidationError("rect")
		}
	default:
		return NewBadRequestError(fmt.Sprintf("unknown selection mode %q", r.Mode), nil)
	}
	return nil
}

type alignRequest struct {
	Mode string `json:"mode"`
}

func (r *alignRequest) validate() error {
	switch figure.AlignMode(r.Mode) {
	case figure.AlignLeft, figure.AlignTop, figure.AlignGrid:
		return nil
	}
	return NewValidationError("mode")
}

type alignSizeRequest struct {
	Width  bool `json:"width"`
	Height bool `json:"height"`
}

func (r *alignSizeRequest) validate() error {
	if !r.Width && !r.Height {
		return NewValidationError("width")
	}
	return nil
}

type nudgeRequest struct {
	Axis  string `json:"axis"`
	Steps int    `json:"steps"`
}

func (r *nudgeRequest) validate() error {
	if figure.Axis(r.Axis) != figure.AxisX && figure.Axis(r.Axis) != figure.AxisY {
		return NewValidationError("axis")
	}
	if r.Steps == 0 {
		return NewValidationError("steps")
	}
	return nil
}

type dragRequest struct {
	Dx     float64 `json:"dx"`
	Dy     float64 `json:"dy"`
	Commit *bool   `json:"commit,omitempty"`
}

func (r *dragRequest) validate() error { return nil }

// commit defaults to true so a single request is a complete move.
func (r *dragRequest) commit() bool {
	return r.Commit == nil || *r.Commit
}
