package utils

import (
	"errors"
	"net/http"

	"parcel-courier/internal/models"

	"github.com/labstack/echo/v4"
)

func RespondWithJSON(c echo.Context, status int, payload any) error {
	return c.JSON(status, payload)
}

func RespondWithError(c echo.Context, status int, message string) error {
	return c.JSON(status, models.ErrorResponse{Message: message})
}

// StatusFor maps a service error to the HTTP status the client should see.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrMissingImage):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict), errors.Is(err, models.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrUploadFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HandleServiceError writes the JSON error body for err.
// Internal failures get a generic message; the detail is logged by the caller.
func HandleServiceError(c echo.Context, err error) error {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		return RespondWithError(c, status, "An internal error occurred")
	}
	return RespondWithError(c, status, err.Error())
}
