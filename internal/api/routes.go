// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"time"

	"github.com/figure-editor/backend/internal/session"
	"github.com/figure-editor/backend/internal/storage"
	"github.com/labstack/echo/v4"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store               storage.Store
	SessionMgr          *session.Manager
	Version             string
	AllowFigureDeletion bool
	WebSocketWriteWait  time.Duration
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Figure  FigureHandler
	Session SessionHandler
	Panel   PanelHandler
	Arrange ArrangeHandler
	Overlay OverlayHandler
	Events  EventsHandler

	allowFigureDeletion bool
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:              NewHealthHandler(deps.Version, deps.SessionMgr),
		Figure:              NewFigureHandler(deps.Store),
		Session:             NewSessionHandler(deps.SessionMgr),
		Panel:               NewPanelHandler(deps.SessionMgr),
		Arrange:             NewArrangeHandler(deps.SessionMgr),
		Overlay:             NewOverlayHandler(deps.SessionMgr),
		Events:              NewWebSocketHandler(deps.SessionMgr, deps.WebSocketWriteWait),
		allowFigureDeletion: deps.AllowFigureDeletion,
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Stored figures
	figureGroup := apiGroup.Group("/figures")
	figureGroup.GET("", handlers.Figure.HandleListFigures)
	figureGroup.GET("/:id", handlers.Figure.HandleGetFigure)
	figureGroup.GET("/:id/msgpack", handlers.Figure.HandleGetFigureMsgpack)
	if handlers.allowFigureDeletion {
		figureGroup.DELETE("/:id", handlers.Figure.HandleDeleteFigure)
	}

	// Editing sessions
	apiGroup.GET("/sessions", handlers.Session.HandleListSessions)
	apiGroup.POST("/sessions", handlers.Session.HandleCreateSession)

	sessionGroup := apiGroup.Group("/sessions/:sid")
	sessionGroup.DELETE("", handlers.Session.HandleCloseSession)
	sessionGroup.GET("/figure", handlers.Session.HandleGetSessionFigure)
	sessionGroup.POST("/save", handlers.Session.HandleSave)
	sessionGroup.POST("/new", handlers.Session.HandleNewFigure)
	sessionGroup.POST("/paper", handlers.Session.HandleSetPaper)
	sessionGroup.POST("/zoom", handlers.Session.HandleSetZoom)
	sessionGroup.POST("/undo", handlers.Session.HandleUndo)
	sessionGroup.POST("/redo", handlers.Session.HandleRedo)

	// Panels
	sessionGroup.POST("/panels", handlers.Panel.HandleAddPanels)
	sessionGroup.POST("/panels/rebind", handlers.Panel.HandleRebindSelected)
	sessionGroup.PATCH("/panels/:key", handlers.Panel.HandlePatchPanel)
	sessionGroup.POST("/panels/:key/rebind", handlers.Panel.HandleRebindPanel)
	sessionGroup.POST("/panels/:key/zprojection", handlers.Panel.HandleZProjection)
	sessionGroup.GET("/panels/:key/image", handlers.Panel.HandlePanelImage)

	// Selection and layout
	sessionGroup.POST("/selection", handlers.Arrange.HandleSelection)
	sessionGroup.POST("/align", handlers.Arrange.HandleAlign)
	sessionGroup.POST("/align-size", handlers.Arrange.HandleAlignSize)
	sessionGroup.POST("/nudge", handlers.Arrange.HandleNudge)
	sessionGroup.POST("/drag", handlers.Arrange.HandleDrag)
	sessionGroup.POST("/delete-selected", handlers.Arrange.HandleDeleteSelected)
	sessionGroup.POST("/copy", handlers.Arrange.HandleCopy)
	sessionGroup.POST("/paste", handlers.Arrange.HandlePaste)

	// Overlay
	sessionGroup.GET("/overlay", handlers.Overlay.HandleGetOverlay)
	sessionGroup.POST("/overlay/drag", handlers.Overlay.HandleOverlayDrag)

	// Event stream
	sessionGroup.GET("/events", handlers.Events.HandleEvents)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler
}
