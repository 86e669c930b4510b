// Package realtime carries record mutations between server instances and out to
// connected browsers.
//
// Delivery is fire-and-forget: events arrive in channel order, missed events are
// not replayed after a reconnect and nothing is deduplicated. Consumers must apply
// events by record key so that receiving the same event twice is harmless.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
)

// TopicAddressChangeRequest carries mutations of address-change requests.
const TopicAddressChangeRequest = "address_change_request"

// Kind is the mutation an event describes.
type Kind string

const (
	Insert Kind = "INSERT"
	Update Kind = "UPDATE"
	Delete Kind = "DELETE"
)

// Event is one broadcast mutation. Payload is the affected record, or only its
// key for deletes.
type Event struct {
	Topic   string          `json:"topic"`
	Kind    Kind            `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("realtime: decode %s %s payload: %w", e.Topic, e.Kind, err)
	}
	return nil
}

func newEvent(topic string, kind Kind, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("realtime: encode %s %s payload: %w", topic, kind, err)
	}
	return Event{Topic: topic, Kind: kind, Payload: raw}, nil
}

type HandlerFunc func(ctx context.Context, ev Event) error

// Handlers routes an event to the callback for its kind. Nil callbacks ignore the event.
type Handlers struct {
	OnInsert HandlerFunc
	OnUpdate HandlerFunc
	OnDelete HandlerFunc
}

// All returns Handlers that send every kind to fn.
func All(fn HandlerFunc) Handlers {
	return Handlers{OnInsert: fn, OnUpdate: fn, OnDelete: fn}
}

func (h Handlers) Handle(ctx context.Context, ev Event) error {
	var fn HandlerFunc
	switch ev.Kind {
	case Insert:
		fn = h.OnInsert
	case Update:
		fn = h.OnUpdate
	case Delete:
		fn = h.OnDelete
	default:
		return fmt.Errorf("realtime: unknown event kind %q", ev.Kind)
	}
	if fn == nil {
		return nil
	}
	return fn(ctx, ev)
}

// Subscription is a registered set of handlers.
type Subscription interface {
	Unsubscribe()
}

// Broker publishes events on topics and delivers them to every subscriber,
// the publishing process included.
type Broker interface {
	Publish(ctx context.Context, topic string, kind Kind, payload any) error
	Subscribe(topic string, h Handlers) (Subscription, error)
	Close() error
}
