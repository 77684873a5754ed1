package mail

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Swati9798/Vehicle-Parking/internal/config"
)

func TestReminderEmail(t *testing.T) {
	msg, err := ReminderEmail("ravi@example.com", ReminderData{Username: "ravi", BaseURL: "http://localhost:8080"})
	require.NoError(t, err)
	assert.Equal(t, "ravi@example.com", msg.To)
	assert.Contains(t, msg.HTML, "Hello ravi,")
	assert.Contains(t, msg.HTML, `href="http://localhost:8080"`)
	assert.Contains(t, msg.HTML, "Vehicle Parking")
}

func TestMonthlyReportEmail(t *testing.T) {
	msg, err := MonthlyReportEmail("ravi@example.com", ReportData{
		Username: "ravi", Month: "April 2026", TotalReservations: 4,
		TotalAmount: 35.5, MostUsedLocation: "Harbor", TotalHours: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "Your monthly parking report - April 2026", msg.Subject)
	assert.Contains(t, msg.HTML, "<strong>4</strong>")
	assert.Contains(t, msg.HTML, "<strong>35.50</strong>")
	assert.Contains(t, msg.HTML, "<strong>Harbor</strong>")
}

func TestTemplatesEscapeInput(t *testing.T) {
	msg, err := GenericEmail("a@example.com", "Notice", GenericData{Body: "<script>alert(1)</script>"})
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
}

func TestExportReadyEmail(t *testing.T) {
	msg, err := ExportReadyEmail("a@example.com", ExportData{Username: "a", Filename: "parking_history_1.csv"})
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "parking_history_1.csv")
	assert.NotContains(t, msg.HTML, "Download it here")
}

func TestNewSelectsProvider(t *testing.T) {
	s, err := New(config.MailConfig{Provider: "log"})
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)

	s, err = New(config.MailConfig{Provider: "smtp", SMTPHost: "localhost", SMTPPort: 1025})
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)

	_, err = New(config.MailConfig{Provider: "sendgrid"})
	assert.Error(t, err)

	s, err = New(config.MailConfig{Provider: "mailersend", MailerSendAPIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &MailerSendSender{}, s)

	_, err = New(config.MailConfig{Provider: "pigeon"})
	assert.Error(t, err)
}

func TestLogSenderRecords(t *testing.T) {
	s := NewLogSender()
	require.NoError(t, s.Send(context.Background(), Message{To: "a@example.com", Subject: "hi", HTML: "<p>x</p>"}))
	assert.Error(t, s.Send(context.Background(), Message{Subject: "no recipient"}))
	require.Len(t, s.Sent(), 1)
	assert.Equal(t, "hi", s.Sent()[0].Subject)
}

func TestSMTPSenderBuildsMessage(t *testing.T) {
	s := NewSMTPSender(config.MailConfig{SMTPHost: "mail.local", SMTPPort: 2525, From: "noreply@parking.local", FromName: "Parking"})
	var gotAddr string
	var gotTo []string
	var gotBody string
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotBody = addr, to, string(msg)
		assert.Nil(t, a)
		return nil
	}

	err := s.Send(context.Background(), Message{To: "ravi@example.com", Subject: "Hello", HTML: "<p>hi</p>", Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, []string{"ravi@example.com"}, gotTo)
	assert.True(t, strings.HasPrefix(gotBody, "From: "))
	assert.Contains(t, gotBody, "multipart/alternative")
	assert.Contains(t, gotBody, "<p>hi</p>")
}
