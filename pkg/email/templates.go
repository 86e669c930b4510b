package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"
)

// TemplateManager holds the parsed email templates.
type TemplateManager struct {
	SupportHTML *htmltemplate.Template
	SupportText *texttemplate.Template
}

// NewTemplateManager parses all email templates at startup.
func NewTemplateManager() (*TemplateManager, error) {
	supportHTML, err := htmltemplate.New("supportHTML").Parse(supportMessageHTMLTemplate)
	if err != nil {
		return nil, fmt.Errorf("email: parse support html template: %w", err)
	}
	supportText, err := texttemplate.New("supportText").Parse(supportMessageTextTemplate)
	if err != nil {
		return nil, fmt.Errorf("email: parse support text template: %w", err)
	}
	return &TemplateManager{SupportHTML: supportHTML, SupportText: supportText}, nil
}

// SupportTemplateData holds the dynamic data of a new support message email.
type SupportTemplateData struct {
	Name          string
	Email         string
	Message       string
	AttachmentURL string
	ReceivedAt    time.Time
	InboxLink     string
}

// GenerateSupportEmail executes the support message templates and returns the
// HTML and plain-text bodies.
func (tm *TemplateManager) GenerateSupportEmail(data SupportTemplateData) (string, string, error) {
	var html, text bytes.Buffer
	if err := tm.SupportHTML.Execute(&html, data); err != nil {
		return "", "", err
	}
	if err := tm.SupportText.Execute(&text, data); err != nil {
		return "", "", err
	}
	return html.String(), text.String(), nil
}

// --- Template Definitions ---

const supportMessageHTMLTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>New customer-support message</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>New message from {{.Name}}</h2>
	<p>Reply to: <a href="mailto:{{.Email}}">{{.Email}}</a></p>
	<p>Received {{.ReceivedAt.Format "2006-01-02 15:04:05 MST"}}</p>
	<blockquote style="white-space: pre-wrap;">{{.Message}}</blockquote>
	{{if .AttachmentURL}}<p><a href="{{.AttachmentURL}}">View attachment</a></p>{{end}}
	{{if .InboxLink}}<p><a href="{{.InboxLink}}">Open the support inbox</a></p>{{end}}
</body>
</html>
`

const supportMessageTextTemplate = `New message from {{.Name}} <{{.Email}}>
Received {{.ReceivedAt.Format "2006-01-02 15:04:05 MST"}}

{{.Message}}
{{if .AttachmentURL}}
Attachment: {{.AttachmentURL}}
{{end}}{{if .InboxLink}}
Support inbox: {{.InboxLink}}
{{end}}`
