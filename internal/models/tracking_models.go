package models

import (
	"encoding/json"
	"time"
)

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// MarshalJSON encodes the pair as [lat, lon], the shape map widgets expect.
func (c Coordinates) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Latitude, c.Longitude})
}

// UnmarshalJSON decodes a [lat, lon] pair.
func (c *Coordinates) UnmarshalJSON(b []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	c.Latitude, c.Longitude = pair[0], pair[1]
	return nil
}

// TransportEvent is one stop in a shipment's transport history.
// Coordinates are derived by geocoding and never persisted.
type TransportEvent struct {
	ID          string       `json:"transport_id"`
	ParcelID    string       `json:"parcel_id"`
	Location    string       `json:"current_location"`
	Country     string       `json:"current_country"`
	Date        time.Time    `json:"current_date"`
	Time        string       `json:"current_time"`
	Coordinates *Coordinates `json:"coordinates"`
	CreatedAt   time.Time    `json:"created_at"`
}

// TransportEventRequest is the add/edit tracking form.
type TransportEventRequest struct {
	ParcelID string `form:"parcel_id" json:"parcel_id"`
	Location string `form:"currentLocation" json:"current_location" validate:"required"`
	Country  string `form:"currentCountry" json:"current_country"`
	Date     string `form:"currentDate" json:"current_date" validate:"required,datetime=2006-01-02"`
}
