package mail

import (
	"context"
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/Swati9798/Vehicle-Parking/internal/config"
)

// SendGridSender delivers through the SendGrid v3 API.
type SendGridSender struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

func NewSendGridSender(cfg config.MailConfig) *SendGridSender {
	return &SendGridSender{client: sendgrid.NewSendClient(cfg.SendGridAPIKey), from: cfg.From, fromName: cfg.FromName}
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	from := sgmail.NewEmail(s.fromName, s.from)
	to := sgmail.NewEmail(msg.ToName, msg.To)
	message := sgmail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", msg.To, err)
	}
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return nil
	}
	log.Printf("mail: sendgrid status=%d body=%s", response.StatusCode, response.Body)
	return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
}
