package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type record struct {
	ParcelID string `json:"parcel_id"`
}

func TestLocalBrokerDeliversToEverySubscriber(t *testing.T) {
	b := NewLocalBroker(zap.NewNop())
	var got []string

	_, err := b.Subscribe(TopicAddressChangeRequest, Handlers{
		OnInsert: func(ctx context.Context, ev Event) error {
			var r record
			require.NoError(t, ev.Decode(&r))
			got = append(got, "a:"+r.ParcelID)
			return nil
		},
	})
	require.NoError(t, err)
	sub, err := b.Subscribe(TopicAddressChangeRequest, All(func(ctx context.Context, ev Event) error {
		got = append(got, "b:"+string(ev.Kind))
		return nil
	}))
	require.NoError(t, err)

	require.NoError(t, b.Publish(context.Background(), TopicAddressChangeRequest, Insert, record{ParcelID: "P1"}))
	require.NoError(t, b.Publish(context.Background(), TopicAddressChangeRequest, Delete, record{ParcelID: "P1"}))
	assert.Equal(t, []string{"a:P1", "b:INSERT", "b:DELETE"}, got)

	sub.Unsubscribe()
	sub.Unsubscribe()
	got = nil
	require.NoError(t, b.Publish(context.Background(), TopicAddressChangeRequest, Delete, record{}))
	assert.Empty(t, got)
}

func TestLocalBrokerIgnoresOtherTopics(t *testing.T) {
	b := NewLocalBroker(zap.NewNop())
	called := false
	_, _ = b.Subscribe("other", All(func(ctx context.Context, ev Event) error {
		called = true
		return nil
	}))

	require.NoError(t, b.Publish(context.Background(), TopicAddressChangeRequest, Update, record{}))
	assert.False(t, called)
}

func TestHandlersRejectUnknownKind(t *testing.T) {
	err := Handlers{}.Handle(context.Background(), Event{Kind: "TRUNCATE"})
	assert.Error(t, err)
}

func TestHubForwardsEvents(t *testing.T) {
	hub := NewHub(zap.NewNop())
	e := echo.New()
	e.GET("/ws", hub.ServeWS)
	srv := httptest.NewServer(e)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	ev, err := newEvent(TopicAddressChangeRequest, Update, record{ParcelID: "P100"})
	require.NoError(t, err)
	require.NoError(t, hub.Forward(context.Background(), ev))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, Update, got.Kind)
	assert.JSONEq(t, `{"parcel_id":"P100"}`, string(got.Payload))
}

func TestHubParcelStreamFiltersByParcel(t *testing.T) {
	hub := NewHub(zap.NewNop())
	e := echo.New()
	e.GET("/ws/shipment-tracking/:id", hub.ServeParcelWS)
	srv := httptest.NewServer(e)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/shipment-tracking/P100", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	for _, id := range []string{"P200", "P100"} {
		ev, err := newEvent(TopicAddressChangeRequest, Update, record{ParcelID: id})
		require.NoError(t, err)
		require.NoError(t, hub.Forward(context.Background(), ev))
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.JSONEq(t, `{"parcel_id":"P100"}`, string(got.Payload), "events of other parcels are not sent")
}
