package addresschange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"parcel-courier/internal/models"
	"parcel-courier/internal/web"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	catalog, err := web.LoadCatalog()
	require.NoError(t, err)
	renderer, err := web.NewRenderer(catalog)
	require.NoError(t, err)

	e := echo.New()
	e.Renderer = renderer
	return e
}

func post(e *echo.Echo, h echo.HandlerFunc, target, param, value string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames(param)
	c.SetParamValues(value)
	_ = h(c)
	return rec
}

func TestSubmitRedirectsWithNotice(t *testing.T) {
	e := newTestEcho(t)
	svc, _ := newTestService(newFakeRepo(), newFakeShipments())
	h := NewHandler(svc, zap.NewNop())
	form := url.Values{"newAddress": {"Tema"}}

	rec := post(e, h.Submit, "/shipment-tracking/P100/address-change", "id", "P100", form)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/shipment-tracking/P100?notice=request_sent", rec.Header().Get(echo.HeaderLocation))

	rec = post(e, h.Submit, "/shipment-tracking/P100/address-change", "id", "P100", form)
	assert.Equal(t, "/shipment-tracking/P100?notice=request_pending", rec.Header().Get(echo.HeaderLocation))

	rec = post(e, h.Submit, "/shipment-tracking/P404/address-change", "id", "P404", form)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not Found")
}

func TestDecisionRedirects(t *testing.T) {
	e := newTestEcho(t)
	repo := newFakeRepo()
	svc, _ := newTestService(repo, newFakeShipments())
	h := NewHandler(svc, zap.NewNop())

	_, err := svc.Create(context.Background(), "P100", models.CreateAddressChangeRequest{NewAddress: "Kumasi"})
	require.NoError(t, err)

	rec := post(e, h.Reject, "/address-change-request/P100/reject", "parcelId", "P100", nil)
	assert.Equal(t, "/address-change-request?notice=rejected", rec.Header().Get(echo.HeaderLocation))

	rec = post(e, h.Approve, "/address-change-request/P100/approve", "parcelId", "P100", nil)
	assert.Equal(t, "/address-change-request?notice=already_decided", rec.Header().Get(echo.HeaderLocation))

	rec = post(e, h.Delete, "/address-change-request/P100/delete", "parcelId", "P100", nil)
	assert.Equal(t, "/address-change-request?notice=deleted", rec.Header().Get(echo.HeaderLocation))
	assert.Empty(t, repo.requests)
}

func TestListRendersRequests(t *testing.T) {
	e := newTestEcho(t)
	svc, _ := newTestService(newFakeRepo(), newFakeShipments())
	h := NewHandler(svc, zap.NewNop())
	_, err := svc.Create(context.Background(), "P100", models.CreateAddressChangeRequest{NewAddress: "Tema"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/address-change-request", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.List(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-parcel="P100"`)
	assert.Contains(t, rec.Body.String(), "/address-change-request/P100/approve")
}
