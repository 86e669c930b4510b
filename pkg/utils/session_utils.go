package utils

import "github.com/google/uuid"

// NewSessionID returns a random identifier used as the JWT id of an admin session.
func NewSessionID() string {
	return uuid.NewString()
}
