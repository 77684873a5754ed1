package jobs

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Swati9798/Vehicle-Parking/internal/mail"
	"github.com/Swati9798/Vehicle-Parking/internal/model"
	"github.com/Swati9798/Vehicle-Parking/internal/repository"
	"github.com/Swati9798/Vehicle-Parking/internal/service"
)

// Job kinds.
const (
	KindDailyReminders = "daily_reminders"
	KindMonthlyReports = "monthly_reports"
	KindExportCSV      = "export_csv"
	KindSendEmail      = "send_email"
)

// UserStore lists and loads accounts.
type UserStore interface {
	ListByRole(ctx context.Context, role string, activeOnly bool) ([]model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// ReservationReader exposes the reservation reads the jobs need.
type ReservationReader interface {
	UsersWithActive(ctx context.Context) (map[uint64]bool, error)
	ListViews(ctx context.Context, f repository.ViewFilter, now time.Time) ([]model.ReservationView, error)
}

// Reporter builds a monthly activity report.
type Reporter interface {
	MonthlyReport(ctx context.Context, userID uint64, monthStart time.Time) (*service.MonthlyReport, error)
}

// Runner executes jobs in-process.  The dispatcher calls it inline on the
// sync path and the worker calls it for consumed messages.
type Runner struct {
	users        UserStore
	reservations ReservationReader
	reports      Reporter
	mailer       mail.Sender
	exportDir    string
	baseURL      string
	now          func() time.Time
}

func NewRunner(users UserStore, reservations ReservationReader, reports Reporter, mailer mail.Sender, exportDir, baseURL string) *Runner {
	return &Runner{
		users:        users,
		reservations: reservations,
		reports:      reports,
		mailer:       mailer,
		exportDir:    exportDir,
		baseURL:      strings.TrimRight(baseURL, "/"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ExportDir is where CSV files are written.
func (r *Runner) ExportDir() string { return r.exportDir }

// Known reports whether kind names a job the runner can execute.
func Known(kind string) bool {
	switch kind {
	case KindDailyReminders, KindMonthlyReports, KindExportCSV, KindSendEmail:
		return true
	}
	return false
}

// Run executes one job and returns its JSON-serialisable result.
func (r *Runner) Run(ctx context.Context, kind string, userID uint64, payload json.RawMessage) (any, error) {
	switch kind {
	case KindDailyReminders:
		return r.DailyReminders(ctx)
	case KindMonthlyReports:
		return r.MonthlyReports(ctx)
	case KindExportCSV:
		return r.ExportCSV(ctx, userID)
	case KindSendEmail:
		var p EmailPayload
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &p); err != nil {
				return nil, fmt.Errorf("decode email payload: %w", err)
			}
		}
		return r.SendEmail(ctx, p)
	}
	return nil, fmt.Errorf("unknown job kind %q", kind)
}

// BatchResult counts the outcome of a fan-out email job.
type BatchResult struct {
	Month   string `json:"month,omitempty"`
	Checked int    `json:"checked"`
	Sent    int    `json:"sent"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

// DailyReminders emails every active user who holds no active reservation.
// Individual send failures are logged and counted, not fatal.
func (r *Runner) DailyReminders(ctx context.Context) (*BatchResult, error) {
	users, err := r.users.ListByRole(ctx, model.RoleUser, true)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	parked, err := r.reservations.UsersWithActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("active reservations: %w", err)
	}
	res := &BatchResult{Checked: len(users)}
	for _, u := range users {
		if parked[u.ID] {
			res.Skipped++
			continue
		}
		msg, err := mail.ReminderEmail(u.Email, mail.ReminderData{Username: u.Username, BaseURL: r.baseURL})
		if err == nil {
			err = r.mailer.Send(ctx, msg)
		}
		if err != nil {
			log.Printf("job-worker: reminder to user %d failed: %v", u.ID, err)
			res.Failed++
			continue
		}
		res.Sent++
	}
	return res, nil
}

// MonthlyReports emails each active user a report for the previous calendar
// month.  Users with no reservations in that month are skipped.
func (r *Runner) MonthlyReports(ctx context.Context) (*BatchResult, error) {
	now := r.now()
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	users, err := r.users.ListByRole(ctx, model.RoleUser, true)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	res := &BatchResult{Month: month.Format("January 2006"), Checked: len(users)}
	for _, u := range users {
		rep, err := r.reports.MonthlyReport(ctx, u.ID, month)
		if err != nil {
			log.Printf("job-worker: report for user %d failed: %v", u.ID, err)
			res.Failed++
			continue
		}
		if rep.TotalReservations == 0 {
			res.Skipped++
			continue
		}
		msg, err := mail.MonthlyReportEmail(u.Email, mail.ReportData{
			Username:          u.Username,
			Month:             rep.Month,
			TotalReservations: rep.TotalReservations,
			TotalAmount:       rep.TotalAmount,
			MostUsedLocation:  rep.MostUsedLocation,
			TotalHours:        rep.TotalHours,
		})
		if err == nil {
			err = r.mailer.Send(ctx, msg)
		}
		if err != nil {
			log.Printf("job-worker: report mail to user %d failed: %v", u.ID, err)
			res.Failed++
			continue
		}
		res.Sent++
	}
	return res, nil
}

// ExportResult describes a written CSV export.
type ExportResult struct {
	Filename    string `json:"filename"`
	Rows        int    `json:"rows"`
	DownloadURL string `json:"download_url"`
}

var exportHeader = []string{
	"reservation_id", "parking_lot", "address", "spot_number", "vehicle_number",
	"parking_timestamp", "leaving_timestamp", "duration_hours", "parking_cost", "status", "remarks",
}

// ExportFilePrefix starts every export file name; the account id follows so
// downloads can be restricted to their owner.
const ExportFilePrefix = "parking_history_"

// ExportCSV writes the account's full reservation history to ExportDir and
// emails a download link.  A failed notification does not fail the export.
func (r *Runner) ExportCSV(ctx context.Context, userID uint64) (*ExportResult, error) {
	if userID == 0 {
		return nil, errors.New("export requires an account")
	}
	u, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	now := r.now()
	rows, err := r.reservations.ListViews(ctx, repository.ViewFilter{UserID: userID}, now)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	if err := os.MkdirAll(r.exportDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir exports: %w", err)
	}

	name := fmt.Sprintf("%s%d_%s_%s.csv", ExportFilePrefix, userID, now.Format("20060102_150405"), uuid.NewString()[:8])
	f, err := os.Create(filepath.Join(r.exportDir, name))
	if err != nil {
		return nil, fmt.Errorf("create export: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, v := range rows {
		if err := w.Write(exportRow(v)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write export: %w", err)
	}

	res := &ExportResult{Filename: name, Rows: len(rows), DownloadURL: r.baseURL + "/api/export/download/" + name}
	msg, err := mail.ExportReadyEmail(u.Email, mail.ExportData{Username: u.Username, Filename: name, DownloadURL: res.DownloadURL})
	if err == nil {
		err = r.mailer.Send(ctx, msg)
	}
	if err != nil {
		log.Printf("job-worker: export notification to user %d failed: %v", userID, err)
	}
	return res, nil
}

func exportRow(v model.ReservationView) []string {
	leaving, status := "", "Active"
	if v.LeavingTimestamp.Valid {
		leaving = v.LeavingTimestamp.Time.Format(time.RFC3339)
		status = "Completed"
	}
	return []string{
		strconv.FormatUint(v.ID, 10),
		v.ParkingLotName,
		v.ParkingLotAddress,
		v.SpotNumber,
		v.VehicleNumber.String,
		v.ParkingTimestamp.Format(time.RFC3339),
		leaving,
		strconv.FormatFloat(v.DurationHours, 'f', 2, 64),
		strconv.FormatFloat(v.ParkingCost, 'f', 2, 64),
		status,
		v.Remarks.String,
	}
}

// EmailPayload is an admin-composed message.
type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Heading string `json:"heading,omitempty"`
	Body    string `json:"body"`
}

// EmailResult confirms a sent message.
type EmailResult struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Sent    bool   `json:"sent"`
}

func (r *Runner) SendEmail(ctx context.Context, p EmailPayload) (*EmailResult, error) {
	msg, err := mail.GenericEmail(strings.TrimSpace(p.To), strings.TrimSpace(p.Subject), mail.GenericData{Heading: p.Heading, Body: p.Body})
	if err != nil {
		return nil, err
	}
	if err := r.mailer.Send(ctx, msg); err != nil {
		return nil, err
	}
	return &EmailResult{To: msg.To, Subject: msg.Subject, Sent: true}, nil
}
