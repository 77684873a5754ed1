package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

var templates = template.Must(template.New("mail").Parse(`
{{define "layout"}}<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; color: #222;">
{{template "content" .}}
<p style="color:#888;font-size:12px;">Vehicle Parking</p>
</body></html>{{end}}

{{define "reminder"}}<h2>Hello {{.Username}},</h2>
<p>You have not booked a parking spot today. If you plan to park, reserve a spot now so one is waiting for you.</p>
{{if .BaseURL}}<p><a href="{{.BaseURL}}">Book a spot</a></p>{{end}}{{end}}

{{define "report"}}<h2>Your parking report for {{.Month}}</h2>
<p>Hello {{.Username}}, here is your activity for last month.</p>
<table cellpadding="6" style="border-collapse: collapse;">
<tr><td>Total reservations</td><td><strong>{{.TotalReservations}}</strong></td></tr>
<tr><td>Total amount</td><td><strong>{{printf "%.2f" .TotalAmount}}</strong></td></tr>
<tr><td>Most used location</td><td><strong>{{.MostUsedLocation}}</strong></td></tr>
<tr><td>Total hours</td><td><strong>{{printf "%.2f" .TotalHours}}</strong></td></tr>
</table>{{end}}

{{define "export"}}<h2>Your export is ready</h2>
<p>Hello {{.Username}}, your parking history CSV <strong>{{.Filename}}</strong> has been generated.</p>
{{if .DownloadURL}}<p><a href="{{.DownloadURL}}">Download it here</a>. You need to be signed in.</p>{{end}}{{end}}

{{define "generic"}}{{if .Heading}}<h2>{{.Heading}}</h2>{{end}}
<p>{{.Body}}</p>{{end}}
`))

func render(name string, data any) (string, error) {
	// Each email is the layout with one content block swapped in.
	t, err := templates.Clone()
	if err != nil {
		return "", err
	}
	if _, err := t.New("content").Parse(fmt.Sprintf(`{{template %q .}}`, name)); err != nil {
		return "", err
	}
	var b bytes.Buffer
	if err := t.ExecuteTemplate(&b, "layout", data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return b.String(), nil
}

// ReminderData fills the daily booking reminder.
type ReminderData struct {
	Username string
	BaseURL  string
}

func ReminderEmail(to string, d ReminderData) (Message, error) {
	html, err := render("reminder", d)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		ToName:  d.Username,
		Subject: "Parking reminder: book your spot",
		HTML:    html,
		Text:    fmt.Sprintf("Hello %s, you have not booked a parking spot today.", d.Username),
	}, nil
}

// ReportData fills the monthly activity report.
type ReportData struct {
	Username          string
	Month             string
	TotalReservations int64
	TotalAmount       float64
	MostUsedLocation  string
	TotalHours        float64
}

func MonthlyReportEmail(to string, d ReportData) (Message, error) {
	html, err := render("report", d)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		ToName:  d.Username,
		Subject: "Your monthly parking report - " + d.Month,
		HTML:    html,
		Text: fmt.Sprintf("%s: %d reservations, %.2f spent, %.2f hours, most used %s.",
			d.Month, d.TotalReservations, d.TotalAmount, d.TotalHours, d.MostUsedLocation),
	}, nil
}

// ExportData fills the CSV-ready notification.
type ExportData struct {
	Username    string
	Filename    string
	DownloadURL string
}

func ExportReadyEmail(to string, d ExportData) (Message, error) {
	html, err := render("export", d)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		ToName:  d.Username,
		Subject: "Your parking history export is ready",
		HTML:    html,
		Text:    fmt.Sprintf("Your export %s is ready.", d.Filename),
	}, nil
}

// GenericData fills an admin-composed email.
type GenericData struct {
	Heading string
	Body    string
}

func GenericEmail(to, subject string, d GenericData) (Message, error) {
	html, err := render("generic", d)
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subject, HTML: html, Text: d.Body}, nil
}
