// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// FigureHandler handles stored figure documents
type FigureHandler interface {
	HandleListFigures(c echo.Context) error
	HandleGetFigure(c echo.Context) error
	HandleGetFigureMsgpack(c echo.Context) error
	HandleDeleteFigure(c echo.Context) error
}

// SessionHandler handles editing session lifecycle and figure-level edits
type SessionHandler interface {
	HandleListSessions(c echo.Context) error
	HandleCreateSession(c echo.Context) error
	HandleCloseSession(c echo.Context) error
	HandleGetSessionFigure(c echo.Context) error
	HandleSave(c echo.Context) error
	HandleNewFigure(c echo.Context) error
	HandleSetPaper(c echo.Context) error
	HandleSetZoom(c echo.Context) error
	HandleUndo(c echo.Context) error
	HandleRedo(c echo.Context) error
}

// PanelHandler handles panel creation and per-panel edits
type PanelHandler interface {
	HandleAddPanels(c echo.Context) error
	HandlePatchPanel(c echo.Context) error
	HandleRebindPanel(c echo.Context) error
	HandleRebindSelected(c echo.Context) error
	HandleZProjection(c echo.Context) error
	HandlePanelImage(c echo.Context) error
}

// ArrangeHandler handles selection and multi-panel layout operations
type ArrangeHandler interface {
	HandleSelection(c echo.Context) error
	HandleAlign(c echo.Context) error
	HandleAlignSize(c echo.Context) error
	HandleNudge(c echo.Context) error
	HandleDrag(c echo.Context) error
	HandleDeleteSelected(c echo.Context) error
	HandleCopy(c echo.Context) error
	HandlePaste(c echo.Context) error
}

// OverlayHandler handles the interactive overlay
type OverlayHandler interface {
	HandleGetOverlay(c echo.Context) error
	HandleOverlayDrag(c echo.Context) error
}

// EventsHandler streams session events
type EventsHandler interface {
	HandleEvents(c echo.Context) error
}
