package mailer

import (
	"context"
	"log"
)

// Mailer is the delivery boundary. The authentication core hands it a
// recipient and a formatted message; transport mechanics live elsewhere.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	SendSMS(ctx context.Context, to, body string) error
}

// LogMailer writes deliveries to the process log. Used in development and as
// the default when no real delivery backend is configured.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (m *LogMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	log.Printf("[Mailer] email to=%s subject=%q body=%q", to, subject, body)
	return nil
}

func (m *LogMailer) SendSMS(ctx context.Context, to, body string) error {
	log.Printf("[Mailer] sms to=%s body=%q", to, body)
	return nil
}
