package config

import "strings"

// MailConfig selects and configures the outbound email provider used by
// reminder, report and export notifications.
type MailConfig struct {
	Provider         string // smtp | sendgrid | mailersend | log
	From             string
	FromName         string
	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPass         string
	SendGridAPIKey   string
	MailerSendAPIKey string
}

func LoadMailConfig() MailConfig {
	return MailConfig{
		Provider:         strings.ToLower(envStr("MAIL_PROVIDER", "log")),
		From:             envStr("MAIL_FROM", "noreply@parking.local"),
		FromName:         envStr("MAIL_FROM_NAME", "Vehicle Parking"),
		SMTPHost:         envStr("SMTP_HOST", "localhost"),
		SMTPPort:         envInt("SMTP_PORT", 1025),
		SMTPUser:         envStr("SMTP_USER", ""),
		SMTPPass:         envStr("SMTP_PASS", ""),
		SendGridAPIKey:   envStr("SENDGRID_API_KEY", ""),
		MailerSendAPIKey: envStr("MAILERSEND_API_KEY", ""),
	}
}
