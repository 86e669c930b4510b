package models

import (
	"io"
	"time"
)

// DateLayout is the wire and form format of pickup, delivery and event dates.
const DateLayout = "2006-01-02"

// TimeLayout is the format of a transport event's time of day.
const TimeLayout = "15:04:05"

// ShipmentStatus is the lifecycle state of a shipment.
type ShipmentStatus string

const (
	StatusPending    ShipmentStatus = "pending"
	StatusShippedOff ShipmentStatus = "shipped off"
	StatusOnTransit  ShipmentStatus = "on transit"
	StatusDelivered  ShipmentStatus = "delivered"
)

// ShipmentStatuses lists every valid status in display order.
var ShipmentStatuses = []ShipmentStatus{StatusPending, StatusShippedOff, StatusOnTransit, StatusDelivered}

// Valid reports whether s is one of the four enumerated statuses.
func (s ShipmentStatus) Valid() bool {
	for _, v := range ShipmentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Shipment represents a parcel handed to the courier.
type Shipment struct {
	ID               string           `json:"shipment_id"`
	ParcelID         string           `json:"parcel_id"`
	SenderName       string           `json:"sender_name"`
	SenderAddress    string           `json:"sender_address"`
	SenderPhone      string           `json:"sender_phone_no"`
	RecipientName    string           `json:"recipient_name"`
	RecipientAddress string           `json:"recipient_address"`
	RecipientPhone   string           `json:"recipient_phone_no"`
	Origin           string           `json:"origin"`
	Destination      string           `json:"destination"`
	PackageName      string           `json:"package_name"`
	PackageDesc      string           `json:"package_desc,omitempty"`
	Quantity         int              `json:"quantity"`
	PickupDate       time.Time        `json:"pickup_date"`
	DeliveryDate     time.Time        `json:"delivery_date"`
	Status           ShipmentStatus   `json:"status"`
	ImageURL         string           `json:"img_url"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	TransportHistory []TransportEvent `json:"transport_history,omitempty"`
}

// LatestEvent returns the most recent transport event, if any.
func (s Shipment) LatestEvent() (TransportEvent, bool) {
	if len(s.TransportHistory) == 0 {
		return TransportEvent{}, false
	}
	return s.TransportHistory[len(s.TransportHistory)-1], true
}

// CurrentLocation is the location of the most recent transport event, or empty.
func (s Shipment) CurrentLocation() string {
	if ev, ok := s.LatestEvent(); ok {
		return ev.Location
	}
	return ""
}

// Route returns the resolved coordinates of the transport history in order.
// Events that could not be geocoded are skipped.
func (s Shipment) Route() []Coordinates {
	route := make([]Coordinates, 0, len(s.TransportHistory))
	for _, ev := range s.TransportHistory {
		if ev.Coordinates != nil {
			route = append(route, *ev.Coordinates)
		}
	}
	return route
}

// CreateShipmentRequest is the create-shipment form.
type CreateShipmentRequest struct {
	ParcelID         string `form:"parcelId" json:"parcel_id" validate:"required,max=64"`
	SenderName       string `form:"senderName" json:"sender_name" validate:"required"`
	SenderAddress    string `form:"senderAddress" json:"sender_address"`
	SenderPhone      string `form:"senderPhone" json:"sender_phone_no"`
	RecipientName    string `form:"recipientName" json:"recipient_name" validate:"required"`
	RecipientAddress string `form:"recipientAddress" json:"recipient_address"`
	RecipientPhone   string `form:"recipientPhone" json:"recipient_phone_no"`
	Origin           string `form:"origin" json:"origin" validate:"required"`
	Destination      string `form:"destination" json:"destination" validate:"required"`
	PackageName      string `form:"packageName" json:"package_name"`
	PackageDesc      string `form:"packageDesc" json:"package_desc"`
	Quantity         int    `form:"quantity" json:"quantity" validate:"gte=0"`
	PickupDate       string `form:"pickupDate" json:"pickup_date" validate:"required,datetime=2006-01-02"`
	DeliveryDate     string `form:"deliveryDate" json:"delivery_date" validate:"required,datetime=2006-01-02"`
	Status           string `form:"status" json:"status" validate:"omitempty,shipment_status"`
}

// ShipmentPatch carries the fields an admin edit may change. Nil fields are left untouched.
type ShipmentPatch struct {
	SenderName       *string
	SenderAddress    *string
	SenderPhone      *string
	RecipientName    *string
	RecipientAddress *string
	RecipientPhone   *string
	Origin           *string
	Destination      *string
	PackageName      *string
	PackageDesc      *string
	Quantity         *int
	PickupDate       *time.Time
	DeliveryDate     *time.Time
	Status           *ShipmentStatus
}

// EditShipmentRequest is the edit-shipment form. Empty fields are not changed.
type EditShipmentRequest struct {
	SenderName       string `form:"senderName"`
	SenderAddress    string `form:"senderAddress"`
	SenderPhone      string `form:"senderPhone"`
	RecipientName    string `form:"recipientName"`
	RecipientAddress string `form:"recipientAddress"`
	RecipientPhone   string `form:"recipientPhone"`
	Origin           string `form:"origin"`
	Destination      string `form:"destination"`
	PackageName      string `form:"packageName"`
	PackageDesc      string `form:"packageDesc"`
	Quantity         string `form:"quantity" validate:"omitempty,number"`
	PickupDate       string `form:"pickupDate" validate:"omitempty,datetime=2006-01-02"`
	DeliveryDate     string `form:"deliveryDate" validate:"omitempty,datetime=2006-01-02"`
	Status           string `form:"status" validate:"omitempty,shipment_status"`
}

// Upload is a file received from a form, ready to be stored in a bucket.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}
