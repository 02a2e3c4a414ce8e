// handlers_panels.go - Panel creation and per-panel edit handlers
package api

import (
	"net/http"

	"github.com/figure-editor/backend/internal/figure"
	"github.com/figure-editor/backend/internal/geometry"
	"github.com/figure-editor/backend/internal/models"
	"github.com/figure-editor/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// PanelHandlerImpl implements the PanelHandler interface
type PanelHandlerImpl struct {
	sessionBase
}

// NewPanelHandler creates a new panel handler instance
func NewPanelHandler(sessionMgr *session.Manager) PanelHandler {
	return &PanelHandlerImpl{sessionBase{sessionMgr: sessionMgr}}
}

// HandleAddPanels creates panels for one or more images. A single image
// with a rect is placed there; otherwise the images are laid out in a grid.
func (h *PanelHandlerImpl) HandleAddPanels(c echo.Context) error {
	var req addPanelsRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	imgs, err := h.lookupImages(c.Request().Context(), req.ImageIDs)
	if err != nil {
		return err
	}

	var views []session.PanelView
	err = h.do(c, func(s *session.Session) error {
		var added figure.Panels
		if req.Rect != nil && len(imgs) == 1 {
			p, err := s.Figure.AddImage(imgs[0], *req.Rect)
			if err != nil {
				return err
			}
			added = figure.Panels{p}
		} else {
			var err error
			if added, err = s.Figure.AddImages(imgs, req.Columns); err != nil {
				return err
			}
		}
		for _, p := range added {
			views = append(views, s.PanelView(p))
		}
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, views)
}

// HandlePatchPanel applies attribute edits to one panel
func (h *PanelHandlerImpl) HandlePatchPanel(c echo.Context) error {
	key, err := panelKey(c)
	if err != nil {
		return err
	}
	var req panelPatchRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	var view session.PanelView
	err = h.do(c, func(s *session.Session) error {
		p, err := s.Panel(key)
		if err != nil {
			return err
		}
		if err := req.apply(p); err != nil {
			return err
		}
		view = s.PanelView(p)
		return nil
	})
	if err != nil {
		return err
	}
	return ok(c, view)
}

// HandleRebindPanel binds one panel to a different image
func (h *PanelHandlerImpl) HandleRebindPanel(c echo.Context) error {
	key, err := panelKey(c)
	if err != nil {
		return err
	}
	var req rebindRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	imgs, err := h.lookupImages(c.Request().Context(), []int64{req.ImageID})
	if err != nil {
		return err
	}

	var view session.PanelView
	err = h.do(c, func(s *session.Session) error {
		p, err := s.Panel(key)
		if err != nil {
			return err
		}
		if err := checkImage(s, imgs[0]); err != nil {
			return err
		}
		if err := p.Rebind(*imgs[0]); err != nil {
			return err
		}
		view = s.PanelView(p)
		return nil
	})
	if err != nil {
		return err
	}
	return ok(c, view)
}

// HandleRebindSelected binds every selected panel to a different image
func (h *PanelHandlerImpl) HandleRebindSelected(c echo.Context) error {
	var req rebindRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	imgs, err := h.lookupImages(c.Request().Context(), []int64{req.ImageID})
	if err != nil {
		return err
	}
	return h.respondView(c, http.StatusOK, func(s *session.Session) error {
		return s.Figure.RebindSelected(imgs[0])
	})
}

// HandleZProjection turns maximum-intensity projection on or off
func (h *PanelHandlerImpl) HandleZProjection(c echo.Context) error {
	key, err := panelKey(c)
	if err != nil {
		return err
	}
	var req zProjectionRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	var view session.PanelView
	err = h.do(c, func(s *session.Session) error {
		p, err := s.Panel(key)
		if err != nil {
			return err
		}
		if err := p.SetZProjection(req.Enable); err != nil {
			return err
		}
		view = s.PanelView(p)
		return nil
	})
	if err != nil {
		return err
	}
	return ok(c, view)
}

// HandlePanelImage returns the render URL and frame layout of a panel
func (h *PanelHandlerImpl) HandlePanelImage(c echo.Context) error {
	key, err := panelKey(c)
	if err != nil {
		return err
	}
	format := c.QueryParam("timeFormat")
	if format == "" {
		format = models.TimeSecs
	}

	var resp panelImageResponse
	err = h.do(c, func(s *session.Session) error {
		p, err := s.Panel(key)
		if err != nil {
			return err
		}
		a := p.Attrs()
		resp = panelImageResponse{
			ImageURL:  s.Figure.ImageURL(p),
			Layout:    p.ViewportLayout(a.Zoom, a.Width, a.Height, nil),
			DPI:       p.DPI(0, 0, 0),
			DeltaT:    p.DeltaT(),
			TimeLabel: p.TimeLabelText(format),
		}
		return nil
	})
	if err != nil {
		return err
	}
	return ok(c, resp)
}

// Request/Response types

type addPanelsRequest struct {
	ImageIDs []int64        `json:"imageIds"`
	Rect     *geometry.Rect `json:"rect,omitempty"`
	Columns  int            `json:"columns"`
}

func (r *addPanelsRequest) validate() error {
	if len(r.ImageIDs) == 0 {
		return NewValidationError("imageIds")
	}
	if r.Columns < 0 {
		return NewValidationError("columns")
	}
	if r.Columns == 0 {
		r.Columns = len(r.ImageIDs)
	}
	return nil
}

type rebindRequest struct {
	ImageID int64 `json:"imageId"`
}

func (r *rebindRequest) validate() error {
	if r.ImageID <= 0 {
		return NewValidationError("imageId")
	}
	return nil
}

type zProjectionRequest struct {
	Enable bool `json:"enable"`
}

func (r *zProjectionRequest) validate() error { return nil }

type panelImageResponse struct {
	ImageURL  string               `json:"imageUrl"`
	Layout    geometry.ImageLayout `json:"layout"`
	DPI       float64              `json:"dpi"`
	DeltaT    float64              `json:"deltaT"`
	TimeLabel string               `json:"timeLabel"`
}

type channelPatch struct {
	Index  int                 `json:"index"`
	Color  *string             `json:"color,omitempty"`
	Active *bool               `json:"active,omitempty"`
	Toggle bool                `json:"toggle,omitempty"`
	Window *figure.WindowPatch `json:"window,omitempty"`
}

type labelsFromRequest struct {
	Size     models.FontSize `json:"size"`
	Position string          `json:"position"`
	Color    string          `json:"color"`
	// Format selects a time label; empty means one label per active channel.
	Format string `json:"format,omitempty"`
}

type labelsPatch struct {
	Add  []models.Label           `json:"add,omitempty"`
	Edit map[string]*models.Label `json:"edit,omitempty"`
	From *labelsFromRequest       `json:"from,omitempty"`
}

// panelPatchRequest groups the edits a client can make to one panel. Each
// group is one attribute set; groups are applied in field order.
type panelPatchRequest struct {
	figure.GeometryPatch
	Rotation *float64              `json:"rotation,omitempty"`
	Zoom     *float64              `json:"zoom,omitempty"`
	Dx       *float64              `json:"dx,omitempty"`
	Dy       *float64              `json:"dy,omitempty"`
	TheZ     *int                  `json:"theZ,omitempty"`
	TheT     *int                  `json:"theT,omitempty"`
	Labels   *labelsPatch          `json:"labels,omitempty"`
	Channels []channelPatch        `json:"channels,omitempty"`
	ScaleBar *figure.ScaleBarPatch `json:"scalebar,omitempty"`
}

func (r *panelPatchRequest) validate() error {
	if r.Labels != nil && r.Labels.From != nil && !models.ValidPosition(r.Labels.From.Position) {
		return NewValidationError("labels.from.position")
	}
	for _, l := range r.labelsToAdd() {
		if !models.ValidPosition(l.Position) {
			return NewValidationError("labels.add.position")
		}
	}
	return nil
}

func (r *panelPatchRequest) labelsToAdd() []models.Label {
	if r.Labels == nil {
		return nil
	}
	return r.Labels.Add
}

func (r *panelPatchRequest) hasView() bool {
	return r.X != nil || r.Y != nil || r.Width != nil || r.Height != nil ||
		r.Rotation != nil || r.Zoom != nil || r.Dx != nil || r.Dy != nil ||
		r.TheZ != nil || r.TheT != nil
}

func (r *panelPatchRequest) apply(p *figure.Panel) error {
	if r.hasView() {
		err := p.Update(func(a *models.PanelAttrs) {
			setFloat(&a.X, r.X)
			setFloat(&a.Y, r.Y)
			setFloat(&a.Width, r.Width)
			setFloat(&a.Height, r.Height)
			setFloat(&a.Rotation, r.Rotation)
			setFloat(&a.Zoom, r.Zoom)
			setFloat(&a.Dx, r.Dx)
			setFloat(&a.Dy, r.Dy)
			if r.TheZ != nil {
				a.TheZ = *r.TheZ
			}
			if r.TheT != nil {
				a.TheT = *r.TheT
			}
		})
		if err != nil {
			return err
		}
	}

	if l := r.Labels; l != nil {
		if len(l.Add) > 0 {
			if err := p.AddLabels(l.Add); err != nil {
				return err
			}
		}
		if len(l.Edit) > 0 {
			if err := p.EditLabels(l.Edit); err != nil {
				return err
			}
		}
		if f := l.From; f != nil {
			var err error
			if f.Format != "" {
				err = p.LabelsFromTime(f.Format, f.Size, f.Position, f.Color)
			} else {
				err = p.LabelsFromChannels(f.Size, f.Position, f.Color)
			}
			if err != nil {
				return err
			}
		}
	}

	for _, ch := range r.Channels {
		if ch.Color != nil {
			if err := p.SetChannelColor(ch.Index, *ch.Color); err != nil {
				return err
			}
		}
		if ch.Active != nil || ch.Toggle {
			if err := p.ToggleChannel(ch.Index, ch.Active); err != nil {
				return err
			}
		}
		if ch.Window != nil {
			if err := p.SetChannelWindow(ch.Index, *ch.Window); err != nil {
				return err
			}
		}
	}

	if r.ScaleBar != nil {
		if r.ScaleBar.Show != nil && !*r.ScaleBar.Show {
			return p.HideScalebar()
		}
		return p.SetScalebar(*r.ScaleBar)
	}
	return nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
