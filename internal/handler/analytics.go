package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Swati9798/Vehicle-Parking/internal/model"
	"github.com/Swati9798/Vehicle-Parking/internal/repository"
	"github.com/Swati9798/Vehicle-Parking/internal/service"
)

// AnalyticsHandler serves dashboards and summaries.
type AnalyticsHandler struct {
	Analytics *service.AnalyticsService
	Users     *repository.UserRepo
}

func NewAnalyticsHandler(a *service.AnalyticsService, users *repository.UserRepo) *AnalyticsHandler {
	return &AnalyticsHandler{Analytics: a, Users: users}
}

// Dashboard handles GET /api/admin/dashboard.
func (h *AnalyticsHandler) Dashboard(c echo.Context) error {
	counts, err := h.Analytics.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Dashboard data retrieved successfully", counts)
}

// AdminSummary handles GET /api/admin/summary.
func (h *AnalyticsHandler) AdminSummary(c echo.Context) error {
	sum, err := h.Analytics.AdminSummary(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Admin summary retrieved successfully", sum)
}

// UserSummary handles GET /api/user/summary for the caller.
func (h *AnalyticsHandler) UserSummary(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	sum, err := h.Analytics.UserSummary(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User summary retrieved successfully", sum)
}

// AdminUsers handles GET /api/admin/users: every regular account, newest
// first.
func (h *AnalyticsHandler) AdminUsers(c echo.Context) error {
	users, err := h.Users.ListByRole(c.Request().Context(), model.RoleUser, false)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Users retrieved successfully", users)
}
