package support

import (
	"errors"
	"net/http"

	"parcel-courier/internal/models"
	"parcel-courier/internal/web"
	"parcel-courier/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Handler handles the contact form and the support inbox.
type Handler struct {
	svc    ServiceInterface
	logger *zap.Logger
}

func NewHandler(svc ServiceInterface, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Contact handles POST /contact. The optional attachment is the "attachment" file field.
func (h *Handler) Contact(c echo.Context) error {
	var req models.SupportMessageRequest
	if err := c.Bind(&req); err != nil {
		return web.Redirect(c, "/", "invalid_input")
	}

	var attachment *models.Upload
	fh, err := c.FormFile("attachment")
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			return web.Redirect(c, "/", "invalid_input")
		}
		defer f.Close()
		attachment = &models.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Size:        fh.Size,
			Body:        f,
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		return web.Redirect(c, "/", "invalid_input")
	}

	if _, err := h.svc.Create(c.Request().Context(), req, attachment); err != nil {
		if errors.Is(err, models.ErrValidation) {
			return web.RenderError(c, http.StatusBadRequest, "home", err.Error(), nil)
		}
		h.logger.Error("Failed to submit support message", zap.Error(err))
		msg := "The service is unavailable right now."
		if errors.Is(err, models.ErrUploadFailed) {
			msg = "The file could not be uploaded."
		}
		return web.RenderError(c, utils.StatusFor(err), "home", msg, nil)
	}
	return web.Redirect(c, "/", "message_sent")
}

// Inbox handles GET /customer-service.
func (h *Handler) Inbox(c echo.Context) error {
	list, err := h.svc.FetchAll(c.Request().Context())
	if err != nil {
		return web.RenderError(c, http.StatusInternalServerError, "customer_service",
			"The service is unavailable right now.", h.svc.State().Data)
	}
	return web.Render(c, http.StatusOK, "customer_service", list)
}
