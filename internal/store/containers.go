package store

import (
	"parcel-courier/internal/models"
)

// Shipments caches shipments keyed by parcel id, with their enriched transport history.
type Shipments = Collection[string, models.Shipment]

// Transit caches transport events keyed by transport id.
type Transit = Collection[string, models.TransportEvent]

// SupportMessages caches the customer-support inbox keyed by message id.
type SupportMessages = Collection[string, models.SupportMessage]

func NewShipments() *Shipments {
	return NewCollection(func(s models.Shipment) string { return s.ParcelID })
}

func NewTransit() *Transit {
	return NewCollection(func(e models.TransportEvent) string { return e.ID })
}

func NewSupportMessages() *SupportMessages {
	return NewCollection(func(m models.SupportMessage) string { return m.ID })
}

// AddressRequests caches address-change requests keyed by parcel id and merges
// real-time events into them.
//
// The Apply methods are idempotent: applying the same INSERT, UPDATE or DELETE
// payload any number of times yields the state of applying it once. A session that
// performs a change locally and then receives its own broadcast relies on this.
type AddressRequests struct {
	*Collection[string, models.AddressChangeRequest]
}

func NewAddressRequests() *AddressRequests {
	return &AddressRequests{
		Collection: NewCollection(func(r models.AddressChangeRequest) string { return r.ParcelID }),
	}
}

// ApplyInsert upserts the request by parcel id.
func (a *AddressRequests) ApplyInsert(r models.AddressChangeRequest) {
	a.Put(r)
}

// ApplyUpdate upserts the request by parcel id. An update for an unknown request is
// kept, since events missed before a reconnect are never replayed.
func (a *AddressRequests) ApplyUpdate(r models.AddressChangeRequest) {
	a.Put(r)
}

// ApplyDelete removes the request for parcelID.
func (a *AddressRequests) ApplyDelete(parcelID string) {
	a.Drop(parcelID)
}
