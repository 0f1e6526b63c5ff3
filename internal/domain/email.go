package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the
// given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// EventUpdatedEmailData holds data for the event-updated notification email.
type EventUpdatedEmailData struct {
	Email         string
	RecipientName string
	EventTitle    string
	UpdatedByName string
	ChangedFields []string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendEventUpdated(ctx context.Context, data *EventUpdatedEmailData) error
}
