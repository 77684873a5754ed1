// Package mail sends the notification emails produced by background jobs.
// The provider is chosen by MAIL_PROVIDER; every provider implements Sender.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/Swati9798/Vehicle-Parking/internal/config"
)

// Message is one outbound email.  HTML is required; Text is optional.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return errors.New("mail: recipient required")
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.New("mail: subject required")
	}
	return nil
}

// Sender delivers a message or reports why it could not.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New builds the Sender named by cfg.Provider.
func New(cfg config.MailConfig) (Sender, error) {
	switch cfg.Provider {
	case "", "log":
		return NewLogSender(), nil
	case "smtp":
		return NewSMTPSender(cfg), nil
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, errors.New("mail: SENDGRID_API_KEY is required for the sendgrid provider")
		}
		return NewSendGridSender(cfg), nil
	case "mailersend":
		if cfg.MailerSendAPIKey == "" {
			return nil, errors.New("mail: MAILERSEND_API_KEY is required for the mailersend provider")
		}
		return NewMailerSendSender(cfg), nil
	}
	return nil, fmt.Errorf("mail: unknown provider %q", cfg.Provider)
}

// LogSender writes messages to the process log instead of sending them.
// It also keeps them so local runs and tests can inspect what went out.
type LogSender struct {
	mu   sync.Mutex
	sent []Message
}

func NewLogSender() *LogSender { return &LogSender{} }

func (s *LogSender) Send(_ context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	log.Printf("mail: to=%s subject=%q (log provider, not delivered)", msg.To, msg.Subject)
	return nil
}

// Sent returns a copy of the recorded messages.
func (s *LogSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}
