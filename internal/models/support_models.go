package models

import "time"

// SupportMessage is a message left through the public contact form.
type SupportMessage struct {
	ID            string    `json:"support_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Message       string    `json:"message"`
	AttachmentURL *string   `json:"img_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// SupportMessageRequest is the contact form.
type SupportMessageRequest struct {
	Name    string `form:"name" json:"name" validate:"required,max=200"`
	Email   string `form:"email" json:"email" validate:"required,email"`
	Message string `form:"message" json:"message" validate:"required,max=5000"`
}
