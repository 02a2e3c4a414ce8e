// handlers_overlay.go - Interactive overlay handlers
package api

import (
	"github.com/figure-editor/backend/internal/geometry"
	"github.com/figure-editor/backend/internal/overlay"
	"github.com/figure-editor/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// Overlay drag actions.
const (
	DragMove   = "move"
	DragResize = "resize"
	DragCancel = "cancel"
)

// OverlayHandlerImpl implements the OverlayHandler interface
type OverlayHandlerImpl struct {
	sessionBase
}

// NewOverlayHandler creates a new overlay handler instance
func NewOverlayHandler(sessionMgr *session.Manager) OverlayHandler {
	return &OverlayHandlerImpl{sessionBase{sessionMgr: sessionMgr}}
}

// HandleGetOverlay returns the overlay proxies and drag state
func (h *OverlayHandlerImpl) HandleGetOverlay(c echo.Context) error {
	var snap overlay.Snapshot
	err := h.do(c, func(s *session.Session) error {
		snap = s.Overlay.Snapshot()
		return nil
	})
	if err != nil {
		return err
	}
	return ok(c, snap)
}

// HandleOverlayDrag advances a drag on a panel proxy, or on the
// multi-selection box when no key is given. Coordinates are overlay pixels;
// move deltas are measured from the start of the drag.
func (h *OverlayHandlerImpl) HandleOverlayDrag(c echo.Context) error {
	var req overlayDragRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	var snap overlay.Snapshot
	err := h.do(c, func(s *session.Session) error {
		var err error
		switch {
		case req.Action == DragCancel:
			s.Overlay.CancelDrag()
		case req.Action == DragMove && req.Key != nil:
			err = s.Overlay.MovePanel(*req.Key, req.Dx, req.Dy, req.Commit)
		case req.Action == DragMove:
			err = s.Overlay.MoveSelection(req.Dx, req.Dy, req.Commit)
		case req.Key != nil:
			err = s.Overlay.ResizePanel(*req.Key, *req.Rect, req.Commit)
		default:
			err = s.Overlay.ResizeSelection(*req.Rect, req.Commit)
		}
		if err != nil {
			return err
		}
		snap = s.Overlay.Snapshot()
		return nil
	})
	if err != nil {
		return err
	}
	return ok(c, snap)
}

type overlayDragRequest struct {
	Action string         `json:"action"`
	Key    *int64         `json:"key,omitempty"`
	Dx     float64        `json:"dx"`
	Dy     float64        `json:"dy"`
	Rect   *geometry.Rect `json:"rect,omitempty"`
	Commit bool           `json:"commit"`
}

func (r *overlayDragRequest) validate() error {
	switch r.Action {
	case DragMove, DragCancel:
		return nil
	case DragResize:
		if r.Rect == nil {
			return NewValidationError("rect")
		}
		return nil
	}
	return NewValidationError("action")
}
