package models

import "time"

// RequestStatus is the review state of an address-change request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "Pending"
	RequestApproved RequestStatus = "Approved"
	RequestRejected RequestStatus = "Rejected"
)

// Terminal reports whether no further review is possible.
func (s RequestStatus) Terminal() bool {
	return s == RequestApproved || s == RequestRejected
}

// AddressChangeRequest asks for a shipment to be redirected to a new address.
// It is identified by the parcel it refers to.
type AddressChangeRequest struct {
	ParcelID   string        `json:"parcel_id"`
	OldAddress string        `json:"old_address"`
	NewAddress string        `json:"new_address"`
	Status     RequestStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// CreateAddressChangeRequest is submitted from the shipment tracking page.
type CreateAddressChangeRequest struct {
	NewAddress string `form:"newAddress" json:"new_address" validate:"required,min=2,max=500"`
}
