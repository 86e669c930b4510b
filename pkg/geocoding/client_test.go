package geocoding

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"parcel-courier/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolveUsesFirstResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Lagos", r.URL.Query().Get("name"))
		assert.Equal(t, "Nigeria", r.URL.Query().Get("country"))
		w.Write([]byte(`{"results":[{"name":"Lagos","latitude":6.45,"longitude":3.39},{"name":"Lagos","latitude":37.1,"longitude":-8.67}]}`))
	}))
	defer srv.Close()

	coords, err := NewClient(srv.URL, time.Second).Resolve(context.Background(), "Lagos", "Nigeria")
	require.NoError(t, err)
	assert.Equal(t, &models.Coordinates{Latitude: 6.45, Longitude: 3.39}, coords)
}

func TestResolveOmitsEmptyCountry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["country"]
		assert.False(t, present)
		w.Write([]byte(`{"results":[{"latitude":5.6,"longitude":-0.19}]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Resolve(context.Background(), "Accra", "")
	assert.NoError(t, err)
}

func TestResolveNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"generationtime_ms":0.2}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Resolve(context.Background(), "Nowhere", "")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestResolveEmptyLocationSkipsRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Resolve(context.Background(), "  ", "Ghana")
	assert.ErrorIs(t, err, ErrNoMatch)
	assert.Zero(t, calls.Load())
}

func TestResolveServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Resolve(context.Background(), "Lagos", "")
	assert.Error(t, err)
}

type stubLookup map[string]*models.Coordinates

func (s stubLookup) Resolve(ctx context.Context, location, country string) (*models.Coordinates, error) {
	if location == "broken" {
		return nil, errors.New("connection reset")
	}
	c, ok := s[location]
	if !ok {
		return nil, ErrNoMatch
	}
	return c, nil
}

func TestEnrichIsolatesFailures(t *testing.T) {
	lagos := &models.Coordinates{Latitude: 6.45, Longitude: 3.39}
	accra := &models.Coordinates{Latitude: 5.6, Longitude: -0.19}
	e := NewEnricher(stubLookup{"Lagos": lagos, "Accra": accra}, 2, zap.NewNop())

	events := []models.TransportEvent{
		{ID: "1", Location: "Lagos"},
		{ID: "2", Location: "broken"},
		{ID: "3", Location: "Atlantis"},
		{ID: "4", Location: "Accra"},
	}
	got := e.Events(context.Background(), events)

	require.Len(t, got, 4)
	assert.Equal(t, lagos, got[0].Coordinates)
	assert.Nil(t, got[1].Coordinates)
	assert.Nil(t, got[2].Coordinates)
	assert.Equal(t, accra, got[3].Coordinates)
	for i := range got {
		assert.Equal(t, events[i].ID, got[i].ID)
	}
	assert.Nil(t, events[0].Coordinates, "input is not modified")
}

func TestEnrichShipments(t *testing.T) {
	e := NewEnricher(stubLookup{"Lagos": {Latitude: 1, Longitude: 2}}, 4, zap.NewNop())
	shipments := []models.Shipment{
		{ParcelID: "P1", TransportHistory: []models.TransportEvent{{Location: "Lagos"}}},
		{ParcelID: "P2"},
	}

	got := e.Shipments(context.Background(), shipments)
	require.NotNil(t, got[0].TransportHistory[0].Coordinates)
	assert.Empty(t, got[1].TransportHistory)
}
