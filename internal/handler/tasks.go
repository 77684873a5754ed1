package handler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Swati9798/Vehicle-Parking/internal/jobs"
)

// TaskHandler submits background jobs and serves their results.
type TaskHandler struct {
	Jobs      *jobs.Dispatcher
	ExportDir string
}

func NewTaskHandler(d *jobs.Dispatcher, exportDir string) *TaskHandler {
	if d == nil {
		panic("nil dispatcher passed to NewTaskHandler")
	}
	return &TaskHandler{Jobs: d, ExportDir: exportDir}
}

type testEmailReq struct {
	Recipient string `json:"recipient"`
}

type sendMailReq struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// TriggerReminders handles POST /api/admin/tasks/trigger-reminders.
func (h *TaskHandler) TriggerReminders(c echo.Context) error {
	res, err := h.Jobs.Submit(c.Request().Context(), jobs.KindDailyReminders, 0, nil)
	if err != nil {
		return err
	}
	return jobResponse(c, "Daily reminders task submitted", "Daily reminders completed (synchronous)", res)
}

// TriggerReports handles POST /api/admin/tasks/trigger-reports.
func (h *TaskHandler) TriggerReports(c echo.Context) error {
	res, err := h.Jobs.Submit(c.Request().Context(), jobs.KindMonthlyReports, 0, nil)
	if err != nil {
		return err
	}
	return jobResponse(c, "Monthly reports task submitted", "Monthly reports completed (synchronous)", res)
}

// TaskStatus handles GET /api/admin/tasks/status/:id for any task.
func (h *TaskHandler) TaskStatus(c echo.Context) error {
	st, err := h.Jobs.Status(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

// TestEmail handles POST /api/admin/test-email.
func (h *TaskHandler) TestEmail(c echo.Context) error {
	var req testEmailReq
	if err := c.Bind(&req); err != nil {
		return errBadRequest("invalid body")
	}
	to := strings.TrimSpace(req.Recipient)
	if to == "" {
		return errBadRequest("Recipient email is required")
	}
	res, err := h.Jobs.Submit(c.Request().Context(), jobs.KindSendEmail, 0, jobs.EmailPayload{
		To:      to,
		Subject: "Test Email from Parking App",
		Heading: "Test Email",
		Body: "This is a test email from your Vehicle Parking System! If you received this, your email " +
			"configuration is working correctly. Sent at: " + time.Now().UTC().Format("2006-01-02 15:04:05 UTC"),
	})
	if err != nil {
		return NewAPIError(http.StatusInternalServerError, "Failed to send test email: "+err.Error())
	}
	return jobResponse(c, "Test email task submitted", "Test email sent successfully (synchronous)", res)
}

// SendMail handles POST /api/admin/send-mail with a composed message.
func (h *TaskHandler) SendMail(c echo.Context) error {
	var req sendMailReq
	if err := c.Bind(&req); err != nil {
		return errBadRequest("invalid body")
	}
	if strings.TrimSpace(req.To) == "" || strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Body) == "" {
		return errBadRequest("Missing to, subject, or body")
	}
	res, err := h.Jobs.Submit(c.Request().Context(), jobs.KindSendEmail, 0, jobs.EmailPayload{
		To: req.To, Subject: req.Subject, Heading: req.Heading, Body: req.Body,
	})
	if err != nil {
		return err
	}
	return jobResponse(c, "Email task submitted for "+req.To, "Email sent to "+req.To, res)
}

// ExportCSV handles POST /api/export/csv for the caller's history.
func (h *TaskHandler) ExportCSV(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	res, err := h.Jobs.Submit(c.Request().Context(), jobs.KindExportCSV, uid, nil)
	if err != nil {
		return err
	}
	return jobResponse(c, "CSV export request submitted", "CSV export completed (synchronous)", res)
}

// ExportStatus handles GET /api/export/status/:id.  Only the caller's own
// export tasks are visible.
func (h *TaskHandler) ExportStatus(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	st, err := h.Jobs.Status(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if st.Kind != jobs.KindExportCSV || st.UserID != uid {
		return errNotFound("Task not found")
	}
	return c.JSON(http.StatusOK, st)
}

// Download handles GET /api/export/download/:filename.  The name must be a
// bare file name belonging to the caller.
func (h *TaskHandler) Download(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	name := c.Param("filename")
	owned := jobs.ExportFilePrefix + strconv.FormatUint(uid, 10) + "_"
	if name == "" || filepath.Base(name) != name || strings.Contains(name, "..") ||
		!strings.HasPrefix(name, owned) || !strings.HasSuffix(name, ".csv") {
		return errNotFound("File not found")
	}
	path := filepath.Join(h.ExportDir, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errNotFound("File not found")
		}
		return err
	}
	return c.Attachment(path, name)
}
