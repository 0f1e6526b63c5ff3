package services

import (
	"context"
	"fmt"
	"log"

	"teamcal/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService returns an EmailService that uses the given Mailer and
// template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

// SendEventUpdated sends the event-updated notification using the
// "event_updated" template and the given data.
func (s *emailService) SendEventUpdated(ctx context.Context, data *domain.EventUpdatedEmailData) error {
	if data == nil {
		return fmt.Errorf("event updated data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("event_updated", data)
	if err != nil {
		return fmt.Errorf("failed to render event_updated template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send event updated email: %w", err)
	}
	log.Printf("[EMAIL] Event update notification sent to %s", data.Email)
	return nil
}
