package transit

import (
	"errors"
	"net/http"

	"parcel-courier/internal/models"
	"parcel-courier/internal/web"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Handler exposes the admin tracking-history actions of the parcel page.
type Handler struct {
	svc    ServiceInterface
	logger *zap.Logger
}

func NewHandler(svc ServiceInterface, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) fail(c echo.Context, parcelID string, err error) error {
	switch {
	case errors.Is(err, models.ErrValidation):
		return web.Redirect(c, "/parcel/"+parcelID, "invalid_input")
	case errors.Is(err, models.ErrNotFound):
		return web.RenderNotice(c, http.StatusNotFound, "error", "not_found", nil)
	default:
		h.logger.Error("Tracking update failed", zap.String("parcel_id", parcelID), zap.Error(err))
		return web.Redirect(c, "/parcel/"+parcelID, "failed")
	}
}

// Add handles POST /parcel/:id/tracking.
func (h *Handler) Add(c echo.Context) error {
	parcelID := c.Param("id")
	var req models.TransportEventRequest
	if err := c.Bind(&req); err != nil {
		return web.Redirect(c, "/parcel/"+parcelID, "invalid_input")
	}
	if _, err := h.svc.Add(c.Request().Context(), parcelID, req); err != nil {
		return h.fail(c, parcelID, err)
	}
	return web.Redirect(c, "/parcel/"+parcelID, "event_added")
}

// Edit handles POST /tracking/:transportId.
func (h *Handler) Edit(c echo.Context) error {
	var req models.TransportEventRequest
	if err := c.Bind(&req); err != nil {
		return web.Redirect(c, "/admin-dashboard", "invalid_input")
	}
	ev, err := h.svc.Edit(c.Request().Context(), c.Param("transportId"), req)
	if err != nil {
		// The form carries the parcel id so validation errors can go back to it.
		return h.fail(c, req.ParcelID, err)
	}
	return web.Redirect(c, "/parcel/"+ev.ParcelID, "event_updated")
}

// Delete handles POST /tracking/:transportId/delete.
func (h *Handler) Delete(c echo.Context) error {
	ev, err := h.svc.Delete(c.Request().Context(), c.Param("transportId"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return web.RenderNotice(c, http.StatusNotFound, "error", "not_found", nil)
		}
		h.logger.Error("Failed to delete transport event", zap.String("transport_id", c.Param("transportId")), zap.Error(err))
		return web.Redirect(c, "/admin-dashboard", "failed")
	}
	return web.Redirect(c, "/parcel/"+ev.ParcelID, "event_deleted")
}
