// handlers_figures.go - Stored figure handlers
package api

import (
	"net/http"
	"strconv"

	"github.com/figure-editor/backend/internal/document"
	"github.com/figure-editor/backend/internal/models"
	"github.com/figure-editor/backend/internal/storage"
	"github.com/labstack/echo/v4"
)

// defaultListLimit caps figure listings without an explicit limit.
const defaultListLimit = 50

// FigureHandlerImpl implements the FigureHandler interface
type FigureHandlerImpl struct {
	store storage.Store
	docs  storage.Documents
}

// NewFigureHandler creates a new figure handler instance
func NewFigureHandler(store storage.Store) FigureHandler {
	return &FigureHandlerImpl{
		store: store,
		docs:  storage.Documents{Store: store},
	}
}

type figureResponse struct {
	Info     *models.FigureInfo     `json:"info"`
	Document *models.FigureDocument `json:"document"`
}

// HandleListFigures returns stored figures, most recently updated first
func (h *FigureHandlerImpl) HandleListFigures(c echo.Context) error {
	limit := defaultListLimit
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return NewValidationError("limit")
		}
		limit = n
	}

	figures, err := h.store.List(c.Request().Context(), limit)
	if err != nil {
		return NewInternalError("failed to list figures", err)
	}
	if figures == nil {
		figures = []*models.FigureInfo{}
	}
	return c.JSON(http.StatusOK, figures)
}

// HandleGetFigure returns a stored figure with its decoded document
func (h *FigureHandlerImpl) HandleGetFigure(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	info, err := h.store.Get(ctx, id)
	if err != nil {
		return mapError(err)
	}
	doc, err := h.docs.Load(ctx, id)
	if err != nil {
		return mapError(err)
	}
	doc.FileID = id
	return c.JSON(http.StatusOK, figureResponse{Info: info, Document: doc})
}

// HandleGetFigureMsgpack returns the figure document in MessagePack format
func (h *FigureHandlerImpl) HandleGetFigureMsgpack(c echo.Context) error {
	id := c.Param("id")
	doc, err := h.docs.Load(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	doc.FileID = id

	data, err := document.EncodeMsgpack(doc)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleDeleteFigure removes a stored figure
func (h *FigureHandlerImpl) HandleDeleteFigure(c echo.Context) error {
	if err := h.docs.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
