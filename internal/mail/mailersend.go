package mail

import (
	"context"
	"fmt"

	"github.com/mailersend/mailersend-go"

	"github.com/Swati9798/Vehicle-Parking/internal/config"
)

// MailerSendSender delivers through the MailerSend API.
type MailerSendSender struct {
	client   *mailersend.Mailersend
	from     string
	fromName string
}

func NewMailerSendSender(cfg config.MailConfig) *MailerSendSender {
	return &MailerSendSender{client: mailersend.NewMailersend(cfg.MailerSendAPIKey), from: cfg.From, fromName: cfg.FromName}
}

func (s *MailerSendSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	message := s.client.Email.NewMessage()
	message.SetFrom(mailersend.From{Name: s.fromName, Email: s.from})
	message.SetRecipients([]mailersend.Recipient{{Name: msg.ToName, Email: msg.To}})
	message.SetSubject(msg.Subject)
	message.SetHTML(msg.HTML)
	if msg.Text != "" {
		message.SetText(msg.Text)
	}

	if _, err := s.client.Email.Send(ctx, message); err != nil {
		return fmt.Errorf("mailersend send to %s: %w", msg.To, err)
	}
	return nil
}
