package email

import (
	"context"
	"fmt"

	"parcel-courier/internal/models"
)

// SupportNotifier emails the admin inbox about new customer-support messages.
type SupportNotifier struct {
	sender    ServiceInterface
	templates *TemplateManager
	to        string
	inboxLink string
}

func NewSupportNotifier(sender ServiceInterface, templates *TemplateManager, to, inboxLink string) *SupportNotifier {
	return &SupportNotifier{sender: sender, templates: templates, to: to, inboxLink: inboxLink}
}

func (n *SupportNotifier) NotifySupportMessage(ctx context.Context, msg models.SupportMessage) error {
	data := SupportTemplateData{
		Name:       msg.Name,
		Email:      msg.Email,
		Message:    msg.Message,
		ReceivedAt: msg.CreatedAt,
		InboxLink:  n.inboxLink,
	}
	if msg.AttachmentURL != nil {
		data.AttachmentURL = *msg.AttachmentURL
	}

	html, text, err := n.templates.GenerateSupportEmail(data)
	if err != nil {
		return fmt.Errorf("email.NotifySupportMessage: %w", err)
	}
	subject := "New customer-support message from " + msg.Name
	return n.sender.SendEmail(ctx, n.to, subject, text, html)
}
