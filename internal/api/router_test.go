package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"parcel-courier/internal/api/middleware"
	"parcel-courier/internal/realtime"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestAddressRequestStreamRequiresSession(t *testing.T) {
	e := echo.New()
	e.Use(middleware.LoadSession("test-secret", zap.NewNop()))
	SetupRoutes(e, Handlers{Hub: realtime.NewHub(zap.NewNop())})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/address-change-requests", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?notice=unauthorized", rec.Header().Get(echo.HeaderLocation))

	// The per-parcel stream is public; a plain GET reaches the upgrader and is refused there.
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/shipment-tracking/P100", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
