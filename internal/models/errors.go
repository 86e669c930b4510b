package models

import "errors"

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Message string `json:"message"`
}

var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned when a record with the same identifier already exists,
	// e.g. a duplicate parcel id or a second pending address-change request.
	ErrConflict = errors.New("resource already exists")

	// ErrValidation is returned when input fails validation before any remote call.
	ErrValidation = errors.New("validation failed")

	// ErrMissingImage is returned when a shipment is submitted without a package image.
	ErrMissingImage = errors.New("a package image is required")

	// ErrUploadFailed is returned when an object could not be written to a bucket.
	ErrUploadFailed = errors.New("file upload failed")

	// ErrInvalidCredentials is returned when the admin login does not match.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidTransition is returned when an address-change request was already
	// decided the other way.
	ErrInvalidTransition = errors.New("request has already been decided")
)
