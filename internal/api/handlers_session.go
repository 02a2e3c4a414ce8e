// handlers_session.go - Editing session handlers
package api

import (
	"net/http"

	"github.com/figure-editor/backend/internal/figure"
	"github.com/figure-editor/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// SessionHandlerImpl implements the SessionHandler interface
type SessionHandlerImpl struct {
	sessionBase
}

// NewSessionHandler creates a new session handler instance
func NewSessionHandler(sessionMgr *session.Manager) SessionHandler {
	return &SessionHandlerImpl{sessionBase{sessionMgr: sessionMgr}}
}

// HandleListSessions returns every open session
func (h *SessionHandlerImpl) HandleListSessions(c echo.Context) error {
	return ok(c, h.sessionMgr.List())
}

// HandleCreateSession opens a session, empty or on a stored figure
func (h *SessionHandlerImpl) HandleCreateSession(c echo.Context) error {
	var req createSessionRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	sess, err := h.sessionMgr.Create(c.Request().Context(), req.FileID)
	if err != nil {
		return mapError(err)
	}
	return h.respondViewID(c, sess.ID, http.StatusCreated, nil)
}

// HandleCloseSession ends a session
func (h *SessionHandlerImpl) HandleCloseSession(c echo.Context) error {
	if err := h.sessionMgr.Close(c.Param("sid")); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleGetSessionFigure returns the complete state of the session's figure
func (h *SessionHandlerImpl) HandleGetSessionFigure(c echo.Context) error {
	return h.respondView(c, http.StatusOK, nil)
}

// HandleSave stores the figure, optionally renaming it first
func (h *SessionHandlerImpl) HandleSave(c echo.Context) error {
	var req saveRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	store := h.sessionMgr.Store()
	if store == nil {
		return NewServiceUnavailableError("no figure store configured")
	}

	var fileID string
	var view session.FigureView
	err := h.do(c, func(s *session.Session) error {
		if req.FigureName != nil {
			s.Figure.SetName(*req.FigureName)
		}
		id, err := s.Save(c.Request().Context(), store)
		if err != nil {
			return err
		}
		fileID = id
		view = s.View()
		return nil
	})
	if err != nil {
		return err
	}
	return ok(c, saveResponse{FileID: fileID, Figure: view})
}

// HandleNewFigure empties the figure and its history
func (h *SessionHandlerImpl) HandleNewFigure(c echo.Context) error {
	return h.respondView(c, http.StatusOK, func(s *session.Session) error {
		s.New()
		return nil
	})
}

// HandleSetPaper changes the paper size and orientation
func (h *SessionHandlerImpl) HandleSetPaper(c echo.Context) error {
	var req figure.PaperSpec
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	var settings figure.Settings
	err := h.do(c, func(s *session.Session) error {
		if err := s.Figure.SetPaper(req); err != nil {
			return err
		}
		settings = s.Figure.Settings()
		return nil
	})
	if err != nil {
		return err
	}
	return ok(c, settings)
}

// HandleSetZoom sets the zoom, or fits the paper into a viewport
func (h *SessionHandlerImpl) HandleSetZoom(c echo.Context) error {
	var req zoomRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	var settings figure.Settings
	err := h.do(c, func(s *session.Session) error {
		if req.Fit != nil {
			if _, err := s.Figure.ZoomToFit(req.Fit.Width, req.Fit.Height); err != nil {
				return err
			}
		} else if err := s.Figure.SetZoom(*req.Zoom); err != nil {
			return err
		}
		settings = s.Figure.Settings()
		return nil
	})
	if err != nil {
		return err
	}
	return ok(c, settings)
}

// HandleUndo reverts the last history entry
func (h *SessionHandlerImpl) HandleUndo(c echo.Context) error {
	return h.respondView(c, http.StatusOK, func(s *session.Session) error {
		return s.Undo.Undo()
	})
}

// HandleRedo reapplies the next history entry
func (h *SessionHandlerImpl) HandleRedo(c echo.Context) error {
	return h.respondView(c, http.StatusOK, func(s *session.Session) error {
		return s.Undo.Redo()
	})
}

// Request/Response types

type createSessionRequest struct {
	FileID string `json:"fileId"`
}

func (r *createSessionRequest) validate() error { return nil }

type saveRequest struct {
	FigureName *string `json:"figureName"`
}

func (r *saveRequest) validate() error {
	if r.FigureName != nil && *r.FigureName == "" {
		return NewValidationError("figureName")
	}
	return nil
}

type saveResponse struct {
	FileID string             `json:"fileId"`
	Figure session.FigureView `json:"figure"`
}

type viewportSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type zoomRequest struct {
	Zoom *float64      `json:"zoom"`
	Fit  *viewportSize `json:"fit"`
}

func (r *zoomRequest) validate() error {
	if r.Zoom == nil && r.Fit == nil {
		return NewValidationError("zoom")
	}
	if r.Fit != nil && (r.Fit.Width <= 0 || r.Fit.Height <= 0) {
		return NewValidationError("fit")
	}
	return nil
}
