// handlers.go - Shared helpers for session-scoped handlers
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/figure-editor/backend/internal/imagemeta"
	"github.com/figure-editor/backend/internal/models"
	"github.com/figure-editor/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// validator is implemented by request bodies that check themselves.
type validator interface {
	validate() error
}

// sessionBase gives handlers serialised access to a session named by the
// :sid path parameter.
type sessionBase struct {
	sessionMgr *session.Manager
}

// do runs fn inside the session and converts its error for the client.
func (b sessionBase) do(c echo.Context, fn func(s *session.Session) error) error {
	return b.doID(c.Param("sid"), fn)
}

func (b sessionBase) doID(id string, fn func(s *session.Session) error) error {
	if err := b.sessionMgr.Do(id, fn); err != nil {
		return mapError(err)
	}
	return nil
}

// respondView runs fn inside the session and answers with the resulting
// figure state.
func (b sessionBase) respondView(c echo.Context, status int, fn func(s *session.Session) error) error {
	return b.respondViewID(c, c.Param("sid"), status, fn)
}

func (b sessionBase) respondViewID(c echo.Context, id string, status int, fn func(s *session.Session) error) error {
	var view session.FigureView
	err := b.doID(id, func(s *session.Session) error {
		if fn != nil {
			if err := fn(s); err != nil {
				return err
			}
		}
		view = s.View()
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(status, view)
}

// lookupImages fetches image metadata before the session is locked, so
// remote lookups never block other requests on the same session.
func (b sessionBase) lookupImages(ctx context.Context, ids []int64) ([]*models.ImageData, error) {
	images := b.sessionMgr.Images()
	if images == nil {
		return nil, NewServiceUnavailableError("no image metadata provider configured")
	}
	out := make([]*models.ImageData, len(ids))
	for i, id := range ids {
		img, err := images.Lookup(ctx, id)
		if err != nil {
			return nil, mapError(err)
		}
		out[i] = img
	}
	return out, nil
}

// bindRequest decodes the request body into req and validates it.
func bindRequest(c echo.Context, req validator) error {
	if err := c.Bind(req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	return req.validate()
}

// panelKey parses the :key path parameter.
func panelKey(c echo.Context) (int64, error) {
	key, err := strconv.ParseInt(c.Param("key"), 10, 64)
	if err != nil {
		return 0, NewValidationError("key")
	}
	return key, nil
}

// checkImage applies the session's image size limit.
func checkImage(s *session.Session, img *models.ImageData) error {
	return imagemeta.CheckSize(img, s.Figure.Options().MaxImagePixels)
}

func ok(c echo.Context, v interface{}) error {
	return c.JSON(http.StatusOK, v)
}
