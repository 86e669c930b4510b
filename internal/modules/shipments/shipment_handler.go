package shipments

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"parcel-courier/internal/models"
	"parcel-courier/internal/web"
	"parcel-courier/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestFinder returns the address-change request of a parcel, or nil.
type RequestFinder interface {
	Lookup(ctx context.Context, parcelID string) (*models.AddressChangeRequest, error)
}

// Handler handles HTTP requests for shipments.
type Handler struct {
	svc      ServiceInterface
	requests RequestFinder
	logger   *zap.Logger
}

func NewHandler(svc ServiceInterface, requests RequestFinder, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, requests: requests, logger: logger}
}

type dashboardData struct {
	Shipments []models.Shipment
}

type shipmentData struct {
	Shipment models.Shipment
	Request  *models.AddressChangeRequest
}

type createData struct {
	Form models.CreateShipmentRequest
}

type trackData struct {
	ParcelID string
}

// remoteError renders page with the error message and a retry link.
func (h *Handler) remoteError(c echo.Context, page string, err error, data any) error {
	h.logger.Error("Shipment operation failed", zap.String("path", c.Path()), zap.Error(err))
	msg := "The service is unavailable right now."
	if errors.Is(err, models.ErrUploadFailed) {
		msg = "The file could not be uploaded."
	}
	return web.RenderError(c, utils.StatusFor(err), page, msg, data)
}

func notFound(c echo.Context) error {
	return web.RenderNotice(c, http.StatusNotFound, "error", "not_found", nil)
}

// Dashboard handles GET /admin-dashboard.
func (h *Handler) Dashboard(c echo.Context) error {
	list, err := h.svc.FetchAll(c.Request().Context())
	if err != nil {
		return h.remoteError(c, "dashboard", err, dashboardData{Shipments: h.svc.State().Data})
	}
	return web.Render(c, http.StatusOK, "dashboard", dashboardData{Shipments: list})
}

// DeleteAll handles POST /admin-dashboard/delete-all.
func (h *Handler) DeleteAll(c echo.Context) error {
	if err := h.svc.DeleteAll(c.Request().Context()); err != nil {
		h.logger.Error("Failed to delete all shipments", zap.Error(err))
		return web.Redirect(c, "/admin-dashboard", "failed")
	}
	return web.Redirect(c, "/admin-dashboard", "deleted_all")
}

// Parcel handles GET /parcel/:id.
func (h *Handler) Parcel(c echo.Context) error {
	s, err := h.svc.Find(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return notFound(c)
		}
		return h.remoteError(c, "error", err, nil)
	}
	return web.Render(c, http.StatusOK, "parcel", shipmentData{Shipment: *s})
}

// Delete handles POST /parcel/:id/delete.
func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return notFound(c)
		}
		h.logger.Error("Failed to delete shipment", zap.String("parcel_id", c.Param("id")), zap.Error(err))
		return web.Redirect(c, "/parcel/"+c.Param("id"), "failed")
	}
	return web.Redirect(c, "/admin-dashboard", "deleted")
}

// EditForm handles GET /parcel/:id/edit.
func (h *Handler) EditForm(c echo.Context) error {
	s, err := h.svc.Find(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return notFound(c)
		}
		return h.remoteError(c, "error", err, nil)
	}
	return web.Render(c, http.StatusOK, "edit_shipment", shipmentData{Shipment: *s})
}

// Edit handles POST /parcel/:id/edit.
func (h *Handler) Edit(c echo.Context) error {
	parcelID := c.Param("id")
	var req models.EditShipmentRequest
	if err := c.Bind(&req); err != nil {
		return web.Redirect(c, "/parcel/"+parcelID+"/edit", "invalid_input")
	}
	patch, err := PatchFromForm(req)
	if err != nil {
		return web.Redirect(c, "/parcel/"+parcelID+"/edit", "invalid_input")
	}

	if _, err := h.svc.Update(c.Request().Context(), parcelID, patch); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return notFound(c)
		}
		h.logger.Error("Failed to update shipment", zap.String("parcel_id", parcelID), zap.Error(err))
		return web.Redirect(c, "/parcel/"+parcelID+"/edit", "failed")
	}
	return web.Redirect(c, "/parcel/"+parcelID, "updated")
}

// CreateForm handles GET /create-shipment.
func (h *Handler) CreateForm(c echo.Context) error {
	return web.Render(c, http.StatusOK, "create_shipment", createData{Form: models.CreateShipmentRequest{Status: string(models.StatusPending)}})
}

// Create handles POST /create-shipment. The package image is the "imageUrl" file field.
func (h *Handler) Create(c echo.Context) error {
	var req models.CreateShipmentRequest
	if err := c.Bind(&req); err != nil {
		return web.RenderError(c, http.StatusBadRequest, "create_shipment", "Invalid form submission", createData{Form: req})
	}

	var image *models.Upload
	fh, err := c.FormFile("imageUrl")
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			return web.RenderError(c, http.StatusBadRequest, "create_shipment", "Invalid image file", createData{Form: req})
		}
		defer f.Close()
		image = &models.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Size:        fh.Size,
			Body:        f,
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		return web.RenderError(c, http.StatusBadRequest, "create_shipment", "Invalid form submission", createData{Form: req})
	}

	s, err := h.svc.Create(c.Request().Context(), req, image)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrMissingImage), errors.Is(err, models.ErrConflict):
			return web.RenderError(c, utils.StatusFor(err), "create_shipment", err.Error(), createData{Form: req})
		default:
			return h.remoteError(c, "create_shipment", err, createData{Form: req})
		}
	}
	return web.Redirect(c, "/parcel/"+s.ParcelID, "created")
}

// TrackForm handles GET /track-parcel.
func (h *Handler) TrackForm(c echo.Context) error {
	return web.Render(c, http.StatusOK, "track", trackData{ParcelID: c.QueryParam("parcelId")})
}

// Track handles POST /track-parcel. The literal id "admin" leads to the admin login.
func (h *Handler) Track(c echo.Context) error {
	parcelID := strings.TrimSpace(c.FormValue("parcelId"))
	if parcelID == "admin" {
		return c.Redirect(http.StatusSeeOther, "/admin-login")
	}

	if _, err := h.svc.Find(c.Request().Context(), parcelID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return web.RenderNotice(c, http.StatusNotFound, "track", "not_found", trackData{ParcelID: parcelID})
		}
		return h.remoteError(c, "track", err, trackData{ParcelID: parcelID})
	}
	return c.Redirect(http.StatusSeeOther, "/shipment-tracking/"+parcelID)
}

// Tracking handles GET /shipment-tracking/:id.
func (h *Handler) Tracking(c echo.Context) error {
	ctx := c.Request().Context()
	parcelID := c.Param("id")

	s, err := h.svc.Find(ctx, parcelID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return web.RenderNotice(c, http.StatusNotFound, "track", "not_found", trackData{ParcelID: parcelID})
		}
		return h.remoteError(c, "track", err, trackData{ParcelID: parcelID})
	}

	req, err := h.requests.Lookup(ctx, parcelID)
	if err != nil {
		// The page is still useful without the request status.
		h.logger.Warn("Failed to load address-change request", zap.String("parcel_id", parcelID), zap.Error(err))
	}
	return web.Render(c, http.StatusOK, "tracking", shipmentData{Shipment: *s, Request: req})
}

// GetShipment handles GET /api/shipments/:id. The map on the tracking page polls it.
func (h *Handler) GetShipment(c echo.Context) error {
	s, err := h.svc.Find(c.Request().Context(), c.Param("id"))
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			h.logger.Error("Failed to load shipment", zap.String("parcel_id", c.Param("id")), zap.Error(err))
		}
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, s)
}
