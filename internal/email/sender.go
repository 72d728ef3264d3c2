// Package email delivers delay notices to task owners over SMTP. The whole
// module is config-gated; deployments without an SMTP host run without it.
package email

import (
	"context"
	"fmt"

	"opsboard_backend/platform/config"
	"opsboard_backend/platform/logger"

	"github.com/wneessen/go-mail"
)

// Sender wraps the SMTP client with the configured from identity.
type Sender struct {
	client   *mail.Client
	fromName string
	fromAddr string
	log      *logger.Logger
}

// NewSender connects the SMTP client from configuration.
func NewSender(cfg config.EmailConfig, log *logger.Logger) (*Sender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.GetSMTPPort()),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.GetSMTPUsername() != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.GetSMTPUsername()),
			mail.WithPassword(cfg.GetSMTPPassword()),
		)
	}

	client, err := mail.NewClient(cfg.GetSMTPHost(), opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &Sender{
		client:   client,
		fromName: cfg.GetEmailFromName(),
		fromAddr: cfg.GetEmailFromAddress(),
		log:      log,
	}, nil
}

// Send delivers one plain-text message.
func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromAddr); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
