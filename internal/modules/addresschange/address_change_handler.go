package addresschange

import (
	"errors"
	"net/http"

	"parcel-courier/internal/models"
	"parcel-courier/internal/web"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for address-change requests.
type Handler struct {
	svc    ServiceInterface
	logger *zap.Logger
}

func NewHandler(svc ServiceInterface, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Submit handles POST /shipment-tracking/:id/address-change.
func (h *Handler) Submit(c echo.Context) error {
	parcelID := c.Param("id")
	back := "/shipment-tracking/" + parcelID

	var req models.CreateAddressChangeRequest
	if err := c.Bind(&req); err != nil {
		return web.Redirect(c, back, "invalid_input")
	}

	if _, err := h.svc.Create(c.Request().Context(), parcelID, req); err != nil {
		switch {
		case errors.Is(err, models.ErrValidation):
			return web.Redirect(c, back, "invalid_input")
		case errors.Is(err, models.ErrConflict):
			return web.Redirect(c, back, "request_pending")
		case errors.Is(err, models.ErrNotFound):
			return web.RenderNotice(c, http.StatusNotFound, "error", "not_found", nil)
		default:
			h.logger.Error("Failed to create address-change request", zap.String("parcel_id", parcelID), zap.Error(err))
			return web.Redirect(c, back, "failed")
		}
	}
	return web.Redirect(c, back, "request_sent")
}

// List handles GET /address-change-request.
func (h *Handler) List(c echo.Context) error {
	list, err := h.svc.FetchAll(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to list address-change requests", zap.Error(err))
		return web.RenderError(c, http.StatusInternalServerError, "address_requests",
			"The service is unavailable right now.", h.svc.State().Data)
	}
	return web.Render(c, http.StatusOK, "address_requests", list)
}

// Approve handles POST /address-change-request/:parcelId/approve.
func (h *Handler) Approve(c echo.Context) error {
	_, err := h.svc.Approve(c.Request().Context(), c.Param("parcelId"))
	return h.decided(c, err, "approved")
}

// Reject handles POST /address-change-request/:parcelId/reject.
func (h *Handler) Reject(c echo.Context) error {
	_, err := h.svc.Reject(c.Request().Context(), c.Param("parcelId"))
	return h.decided(c, err, "rejected")
}

// Delete handles POST /address-change-request/:parcelId/delete.
func (h *Handler) Delete(c echo.Context) error {
	return h.decided(c, h.svc.Delete(c.Request().Context(), c.Param("parcelId")), "deleted")
}

func (h *Handler) decided(c echo.Context, err error, notice string) error {
	switch {
	case err == nil:
		return web.Redirect(c, "/address-change-request", notice)
	case errors.Is(err, models.ErrInvalidTransition):
		return web.Redirect(c, "/address-change-request", "already_decided")
	case errors.Is(err, models.ErrNotFound):
		return web.RenderNotice(c, http.StatusNotFound, "error", "not_found", nil)
	default:
		h.logger.Error("Address-change decision failed", zap.String("parcel_id", c.Param("parcelId")), zap.Error(err))
		return web.Redirect(c, "/address-change-request", "failed")
	}
}
