// Package email sends provider notifications over SMTP.
package email

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"leadmarket_backend/platform/config"
)

type Sender interface {
	SendLeadOfferEmail(ctx context.Context, toEmail, providerName, zoneName, postalCode, respondURL string) error
	SendChargeReceiptEmail(ctx context.Context, toEmail, providerName string, amountCents int64, currency string) error
}

// NoopSender drops emails. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendLeadOfferEmail(ctx context.Context, toEmail, providerName, zoneName, postalCode, respondURL string) error {
	return nil
}

func (NoopSender) SendChargeReceiptEmail(ctx context.Context, toEmail, providerName string, amountCents int64, currency string) error {
	return nil
}

// SMTPSender delivers through the configured SMTP relay.
type SMTPSender struct {
	client    *gomail.Client
	fromName  string
	fromEmail string
}

func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.IsEmailEnabled() {
		return NoopSender{}, nil
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.GetSMTPPort()),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.GetSMTPUsername()),
		gomail.WithPassword(cfg.GetSMTPPassword()),
	}
	client, err := gomail.NewClient(cfg.GetSMTPHost(), opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPSender{
		client:    client,
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}, nil
}

var _ Sender = (*SMTPSender)(nil)
var _ Sender = NoopSender{}

func (s *SMTPSender) SendLeadOfferEmail(ctx context.Context, toEmail, providerName, zoneName, postalCode, respondURL string) error {
	subject := fmt.Sprintf("New lead in %s", zoneName)
	body := fmt.Sprintf(
		"Hi %s,\n\nA new lead matching your coverage is available in %s (%s).\n\nAccept or decline it here: %s\n",
		providerName, zoneName, postalCode, respondURL)
	return s.send(ctx, toEmail, subject, body)
}

func (s *SMTPSender) SendChargeReceiptEmail(ctx context.Context, toEmail, providerName string, amountCents int64, currency string) error {
	subject := "Lead charge receipt"
	body := fmt.Sprintf(
		"Hi %s,\n\nYou were charged %d.%02d %s for an accepted lead.\n",
		providerName, amountCents/100, amountCents%100, currency)
	return s.send(ctx, toEmail, subject, body)
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
